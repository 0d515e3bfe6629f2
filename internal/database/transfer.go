package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"image-vault/internal/logging"
)

// ExportVersion is written to every export document.
const ExportVersion = "1.0"

// ExportDocument is the full-library JSON document. Records and Settings
// belong to other parts of the application and are carried through as raw
// JSON.
type ExportDocument struct {
	Records    json.RawMessage `json:"records"`
	Settings   json.RawMessage `json:"settings"`
	Images     []ImageRecord   `json:"images"`
	Categories []Category      `json:"categories"`
	Tags       []Tag           `json:"tags"`
	ExportDate time.Time       `json:"exportDate"`
	Version    string          `json:"version"`
}

// Clear removes every image, category and tag, then seeds the default
// categories again. It runs in one transaction.
func (d *Database) Clear(ctx context.Context) error {
	start := time.Now()
	err := d.clear(ctx)
	recordQuery("clear", start, err)
	return storageErr("clear", err)
}

func (d *Database) clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var seeded []Category
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteAll(ctx, tx); err != nil {
			return err
		}
		seeded = nil
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
	if err != nil {
		return err
	}

	removed := len(d.images.byID)
	d.images = newImageIndex()
	d.categories = seeded
	d.tags = []Tag{}
	logging.Info("Cleared library (%d images removed)", removed)
	return nil
}

func deleteAll(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"images", "categories", "tags"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Export snapshots the whole library. Nil records and settings fall back to
// what the last Import stored, then to [] and {}.
func (d *Database) Export(ctx context.Context, records, settings json.RawMessage) (*ExportDocument, error) {
	start := time.Now()
	doc, err := d.export(ctx, records, settings)
	recordQuery("export", start, err)
	if err != nil {
		return nil, storageErr("export", err)
	}
	return doc, nil
}

func (d *Database) export(ctx context.Context, records, settings json.RawMessage) (*ExportDocument, error) {
	var err error
	if records == nil {
		if records, err = storedJSON(ctx, d.db, metaRecords, "[]"); err != nil {
			return nil, err
		}
	}
	if settings == nil {
		if settings, err = storedJSON(ctx, d.db, metaSettings, "{}"); err != nil {
			return nil, err
		}
	}

	d.mu.RLock()
	doc := &ExportDocument{
		Records:    records,
		Settings:   settings,
		Images:     d.images.all(),
		Categories: append([]Category{}, d.categories...),
		Tags:       append([]Tag{}, d.tags...),
		ExportDate: d.now().UTC(),
		Version:    ExportVersion,
	}
	d.mu.RUnlock()

	return doc, nil
}

func storedJSON(ctx context.Context, q queryRower, key, fallback string) (json.RawMessage, error) {
	v, err := getMetadata(ctx, q, key)
	if err != nil {
		return nil, err
	}
	if v == "" {
		v = fallback
	}
	return json.RawMessage(v), nil
}

// Import replaces the whole library with doc in one transaction. Ids are
// reassigned; everything else, including upload dates, is kept. Images
// appear in the new store oldest first, so ids follow upload order.
func (d *Database) Import(ctx context.Context, doc *ExportDocument) error {
	start := time.Now()
	err := d.importDocument(ctx, doc)
	recordQuery("import", start, err)
	return storageErr("import", err)
}

func (d *Database) importDocument(ctx context.Context, doc *ExportDocument) error {
	if doc == nil {
		return fmt.Errorf("import document is empty")
	}
	if doc.Version != ExportVersion {
		return fmt.Errorf("unsupported export version %q (want %q)", doc.Version, ExportVersion)
	}

	// Prepare outside the lock: validation needs no state.
	images := make([]*ImageRecord, len(doc.Images))
	for i := range doc.Images {
		src := doc.Images[len(doc.Images)-1-i]
		uploaded := src.UploadDate
		if uploaded.IsZero() {
			uploaded = d.uploadTime()
		}
		rec, err := prepareImage(src, time.Unix(0, uploaded.UnixNano()))
		if err != nil {
			return err
		}
		images[i] = rec
	}

	categories := make([]Category, len(doc.Categories))
	for i, c := range doc.Categories {
		c.ID = 0
		if err := validate.Struct(c); err != nil {
			return fmt.Errorf("invalid category %q: %w", c.Name, err)
		}
		categories[i] = c
	}

	tags := make([]Tag, len(doc.Tags))
	for i, t := range doc.Tags {
		t.ID = 0
		if t.Color == "" {
			t.Color = RandomColor()
		}
		if err := validate.Struct(t); err != nil {
			return fmt.Errorf("invalid tag %q: %w", t.Name, err)
		}
		tags[i] = t
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteAll(ctx, tx); err != nil {
			return err
		}
		for i := range categories {
			id, err := insertCategory(ctx, tx, &categories[i])
			if err != nil {
				return err
			}
			categories[i].ID = id
		}
		for i := range tags {
			id, err := insertTag(ctx, tx, &tags[i])
			if err != nil {
				return err
			}
			tags[i].ID = id
		}
		for _, rec := range images {
			id, err := insertImage(ctx, tx, rec)
			if err != nil {
				return err
			}
			rec.ID = id
		}
		if err := setMetadata(ctx, tx, metaRecords, compactJSON(doc.Records, "[]")); err != nil {
			return err
		}
		return setMetadata(ctx, tx, metaSettings, compactJSON(doc.Settings, "{}"))
	})
	if err != nil {
		return err
	}

	ix := newImageIndex()
	for _, rec := range images {
		ix.put(rec)
	}
	d.images = ix
	d.categories = categories
	d.tags = tags

	logging.Info("Imported %d images, %d categories, %d tags (exported %s)",
		len(images), len(categories), len(tags), doc.ExportDate.Format(time.RFC3339))
	return nil
}

func compactJSON(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return fallback
	}
	return buf.String()
}
