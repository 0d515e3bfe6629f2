package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"image-vault/internal/logging"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RandomColor returns a random #rrggbb color.
func RandomColor() string {
	return fmt.Sprintf("#%06x", rand.IntN(0x1000000))
}

func queryCategories(ctx context.Context, db *sql.DB) ([]Category, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, description, color FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func queryTags(ctx context.Context, db *sql.DB) ([]Tag, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name, color FROM tags ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func insertCategory(ctx context.Context, tx *sql.Tx, c *Category) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO categories (name, description, color) VALUES (?, ?, ?)",
		c.Name, c.Description, c.Color)
	if err != nil {
		return 0, fmt.Errorf("failed to insert category %s: %w", c.Name, err)
	}
	return res.LastInsertId()
}

func insertTag(ctx context.Context, tx *sql.Tx, t *Tag) (int64, error) {
	res, err := tx.ExecContext(ctx, "INSERT INTO tags (name, color) VALUES (?, ?)", t.Name, t.Color)
	if err != nil {
		return 0, fmt.Errorf("failed to insert tag %s: %w", t.Name, err)
	}
	return res.LastInsertId()
}

// SaveCategory stores a category and returns its id. Duplicate names are
// allowed.
func (d *Database) SaveCategory(ctx context.Context, c Category) (int64, error) {
	start := time.Now()
	id, err := d.saveCategory(ctx, c)
	recordQuery("save_category", start, err)
	if err != nil {
		return 0, storageErr("save_category", err)
	}
	return id, nil
}

func (d *Database) saveCategory(ctx context.Context, c Category) (int64, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := validate.Struct(c); err != nil {
		return 0, fmt.Errorf("invalid category: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var id int64
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertCategory(ctx, tx, &c)
		return err
	})
	if err != nil {
		return 0, err
	}

	c.ID = id
	d.categories = append(d.categories, c)
	return id, nil
}

// Categories returns every category in insertion order.
func (d *Database) Categories(ctx context.Context) ([]Category, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		recordQuery("get_categories", start, err)
		return nil, err
	}

	d.mu.RLock()
	out := append([]Category{}, d.categories...)
	d.mu.RUnlock()

	recordQuery("get_categories", start, nil)
	return out, nil
}

// SaveTag stores a tag and returns the stored row. A tag without a color
// gets a random one.
func (d *Database) SaveTag(ctx context.Context, t Tag) (*Tag, error) {
	start := time.Now()
	saved, err := d.saveTag(ctx, t)
	recordQuery("save_tag", start, err)
	if err != nil {
		return nil, storageErr("save_tag", err)
	}
	return saved, nil
}

func (d *Database) saveTag(ctx context.Context, t Tag) (*Tag, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Color == "" {
		t.Color = RandomColor()
	}
	if err := validate.Struct(t); err != nil {
		return nil, fmt.Errorf("invalid tag: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var id int64
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertTag(ctx, tx, &t)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.ID = id
	d.tags = append(d.tags, t)
	return &t, nil
}

// Tags returns every tag in insertion order.
func (d *Database) Tags(ctx context.Context) ([]Tag, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		recordQuery("get_tags", start, err)
		return nil, err
	}

	d.mu.RLock()
	out := append([]Tag{}, d.tags...)
	d.mu.RUnlock()

	recordQuery("get_tags", start, nil)
	return out, nil
}

// SeedDefaultCategories inserts DefaultCategories when the categories
// collection is empty and reports whether it did. Calling it again is a
// no-op.
func (d *Database) SeedDefaultCategories(ctx context.Context) (bool, error) {
	start := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.categories) > 0 {
		recordQuery("seed_categories", start, nil)
		return false, nil
	}

	seeded, err := d.seedLocked(ctx)
	recordQuery("seed_categories", start, err)
	if err != nil {
		return false, storageErr("seed_categories", err)
	}
	if len(seeded) > 0 {
		d.categories = seeded
		logging.Info("Seeded %d default categories", len(seeded))
	}
	return len(seeded) > 0, nil
}

// seedLocked inserts the defaults in one transaction unless the table
// already has rows. The caller holds d.mu and applies the returned rows.
func (d *Database) seedLocked(ctx context.Context) ([]Category, error) {
	var seeded []Category
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		seeded = nil

		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, c := range DefaultCategories {
			id, err := insertCategory(ctx, tx, &c)
			if err != nil {
				return err
			}
			c.ID = id
			seeded = append(seeded, c)
		}
		return nil
	})
	return seeded, err
}
