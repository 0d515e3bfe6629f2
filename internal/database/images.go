package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"image-vault/internal/logging"
	"image-vault/internal/metrics"
)

// ErrIncomplete is returned when an image is saved without both variants.
var ErrIncomplete = errors.New("compressed and thumbnail payloads are required")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*ImageRecord, error) {
	var (
		rec      ImageRecord
		tagsJSON string
		uploaded int64
		recordID sql.NullInt64
	)
	err := row.Scan(&rec.ID, &rec.FileName, &rec.OriginalName, &rec.FileSize, &rec.MimeType,
		&rec.Category, &tagsJSON, &uploaded, &recordID, &rec.Compressed, &rec.Thumbnail,
		&rec.Width, &rec.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}

	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return nil, fmt.Errorf("image %d has malformed tags: %w", rec.ID, err)
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	rec.UploadDate = time.Unix(0, uploaded)
	if recordID.Valid {
		id := recordID.Int64
		rec.RecordID = &id
	}
	return &rec, nil
}

func encodeTags(tags []string) (string, error) {
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// insertImage writes rec (ID ignored) and returns the assigned id.
func insertImage(ctx context.Context, tx *sql.Tx, rec *ImageRecord) (int64, error) {
	tags, err := encodeTags(rec.Tags)
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO images (file_name, original_name, file_size, mime_type, category, tags,
		                    upload_date, record_id, compressed, thumbnail, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.FileName, rec.OriginalName, rec.FileSize, rec.MimeType, rec.Category, tags,
		rec.UploadDate.UnixNano(), nullableID(rec.RecordID), rec.Compressed, rec.Thumbnail,
		rec.Width, rec.Height)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image %s: %w", rec.OriginalName, err)
	}
	return res.LastInsertId()
}

// prepareImage applies the defaults every saved image gets.
func prepareImage(img ImageRecord, uploaded time.Time) (*ImageRecord, error) {
	if img.Compressed == "" || img.Thumbnail == "" {
		return nil, fmt.Errorf("%s: %w", img.OriginalName, ErrIncomplete)
	}
	rec := img.clone()
	rec.ID = 0
	rec.Category = normalizeCategory(rec.Category)
	rec.Tags = normalizeTags(rec.Tags)
	rec.UploadDate = uploaded
	return rec, nil
}

// uploadTime returns the clock reading with the monotonic part stripped, in
// the same form it has after a round trip through the database.
func (d *Database) uploadTime() time.Time {
	return time.Unix(0, d.now().UnixNano())
}

// Save stores one image and returns its id.
func (d *Database) Save(ctx context.Context, img ImageRecord) (int64, error) {
	start := time.Now()
	ids, err := d.saveImages(ctx, []ImageRecord{img})
	recordQuery("save_image", start, err)
	if err != nil {
		return 0, storageErr("save_image", err)
	}
	return ids[0], nil
}

// SaveMultiple stores images in one transaction and returns their ids in
// input order. Either every image is stored or none is. UploadDate is
// always set to the current time; an empty Category becomes
// "uncategorized".
func (d *Database) SaveMultiple(ctx context.Context, imgs []ImageRecord) ([]int64, error) {
	start := time.Now()
	ids, err := d.saveImages(ctx, imgs)
	recordQuery("save_images", start, err)
	if err != nil {
		return nil, storageErr("save_images", err)
	}
	return ids, nil
}

func (d *Database) saveImages(ctx context.Context, imgs []ImageRecord) ([]int64, error) {
	if len(imgs) == 0 {
		return []int64{}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	uploaded := d.uploadTime()
	recs := make([]*ImageRecord, len(imgs))
	for i := range imgs {
		rec, err := prepareImage(imgs[i], uploaded)
		if err != nil {
			return nil, err
		}
		recs[i] = rec
	}

	ids := make([]int64, len(recs))
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		for i, rec := range recs {
			id, err := insertImage(ctx, tx, rec)
			if err != nil {
				return err
			}
			ids[i] = id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, rec := range recs {
		rec.ID = ids[i]
		d.images.put(rec)
	}
	metrics.DBRowsAffected.WithLabelValues("save_images").Observe(float64(len(recs)))
	logging.Debug("Saved %d images (ids %d..%d)", len(ids), ids[0], ids[len(ids)-1])
	return ids, nil
}

// Get returns the image with id, or an error wrapping ErrNotFound.
func (d *Database) Get(ctx context.Context, id int64) (*ImageRecord, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	rec, ok := d.images.byID[id]
	if ok {
		rec = rec.clone()
	}
	d.mu.RUnlock()

	if !ok {
		err := fmt.Errorf("image %d: %w", id, ErrNotFound)
		recordQuery("get_image", start, err)
		return nil, err
	}
	recordQuery("get_image", start, nil)
	return rec, nil
}

// GetAll returns every image, newest upload first. Images uploaded at the
// same instant are ordered by id, highest first.
func (d *Database) GetAll(ctx context.Context) ([]ImageRecord, error) {
	return d.read(ctx, "get_all_images", func(ix *imageIndex) []ImageRecord {
		return ix.all()
	})
}

// GetByCategory returns the images in category, newest first.
func (d *Database) GetByCategory(ctx context.Context, category string) ([]ImageRecord, error) {
	return d.read(ctx, "get_by_category", func(ix *imageIndex) []ImageRecord {
		return ix.collect(ix.byCategory[category])
	})
}

// GetByTag returns the images carrying tag (case-insensitive), newest first.
func (d *Database) GetByTag(ctx context.Context, tag string) ([]ImageRecord, error) {
	return d.read(ctx, "get_by_tag", func(ix *imageIndex) []ImageRecord {
		return ix.collect(ix.byTag[tagKey(tag)])
	})
}

// GetByRecordID returns the images attached to an external record.
func (d *Database) GetByRecordID(ctx context.Context, recordID int64) ([]ImageRecord, error) {
	return d.read(ctx, "get_by_record", func(ix *imageIndex) []ImageRecord {
		return ix.collect(ix.byRecord[recordID])
	})
}

// Search returns images whose original name contains query, whose category
// contains query, or that carry a tag equal to query. All comparisons ignore
// case and any one match is enough.
func (d *Database) Search(ctx context.Context, query string) ([]ImageRecord, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return d.read(ctx, "search", func(ix *imageIndex) []ImageRecord {
		matches := make(idSet)
		for id, rec := range ix.byID {
			if MatchesQuery(rec, q) {
				matches[id] = struct{}{}
			}
		}
		return ix.collect(matches)
	})
}

// MatchesQuery is the disjunctive matcher behind Search. q must already be
// lowercased.
func MatchesQuery(rec *ImageRecord, q string) bool {
	if strings.Contains(strings.ToLower(rec.OriginalName), q) ||
		strings.Contains(strings.ToLower(rec.Category), q) {
		return true
	}
	return rec.HasTag(q)
}

func (d *Database) read(ctx context.Context, op string, fn func(ix *imageIndex) []ImageRecord) ([]ImageRecord, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		recordQuery(op, start, err)
		return nil, err
	}

	d.mu.RLock()
	out := fn(d.images)
	d.mu.RUnlock()

	recordQuery(op, start, nil)
	return out, nil
}

// Update applies patch to the image with id and returns the result.
// UploadDate and the payloads cannot be changed.
func (d *Database) Update(ctx context.Context, id int64, patch ImagePatch) (*ImageRecord, error) {
	start := time.Now()
	rec, err := d.update(ctx, id, patch)
	recordQuery("update_image", start, err)
	if err != nil {
		return nil, storageErr("update_image", err)
	}
	return rec, nil
}

func (d *Database) update(ctx context.Context, id int64, patch ImagePatch) (*ImageRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.images.byID[id]
	if !ok {
		return nil, fmt.Errorf("image %d: %w", id, ErrNotFound)
	}

	next := current.clone()
	if patch.OriginalName != nil {
		next.OriginalName = *patch.OriginalName
	}
	if patch.Category != nil {
		next.Category = normalizeCategory(*patch.Category)
	}
	if patch.Tags != nil {
		next.Tags = normalizeTags(patch.Tags)
	}
	switch {
	case patch.ClearRecordID:
		next.RecordID = nil
	case patch.RecordID != nil:
		rid := *patch.RecordID
		next.RecordID = &rid
	}

	tags, err := encodeTags(next.Tags)
	if err != nil {
		return nil, err
	}

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE images SET original_name = ?, category = ?, tags = ?, record_id = ?
			WHERE id = ?
		`, next.OriginalName, next.Category, tags, nullableID(next.RecordID), id)
		return err
	})
	if err != nil {
		return nil, err
	}

	d.images.put(next)
	return next.clone(), nil
}

// Delete removes one image. Deleting a missing id returns an error wrapping
// ErrNotFound.
func (d *Database) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	n, err := d.deleteImages(ctx, []int64{id})
	if err == nil && n == 0 {
		err = fmt.Errorf("image %d: %w", id, ErrNotFound)
	}
	recordQuery("delete_image", start, err)
	return storageErr("delete_image", err)
}

// BulkDelete removes every listed image that exists, in one transaction,
// and returns how many were removed. Missing ids are ignored.
func (d *Database) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	start := time.Now()
	n, err := d.deleteImages(ctx, ids)
	recordQuery("bulk_delete", start, err)
	if err != nil {
		return 0, storageErr("bulk_delete", err)
	}
	metrics.DBRowsAffected.WithLabelValues("bulk_delete").Observe(float64(n))
	return n, nil
}

func (d *Database) deleteImages(ctx context.Context, ids []int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	existing := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if _, ok := d.images.byID[id]; ok && !seen[id] {
			seen[id] = true
			existing = append(existing, id)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}

	err := d.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "DELETE FROM images WHERE id = ?")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, id := range existing {
			if _, err := stmt.ExecContext(ctx, id); err != nil {
				return fmt.Errorf("failed to delete image %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, id := range existing {
		d.images.remove(id)
	}
	return len(existing), nil
}

// GetStats computes library statistics with a full scan.
func (d *Database) GetStats(ctx context.Context) (*Stats, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		recordQuery("stats", start, err)
		return nil, err
	}

	d.mu.RLock()
	stats := &Stats{
		TotalImages:     len(d.images.byID),
		TotalCategories: len(d.categories),
		TotalTags:       len(d.tags),
	}
	for _, rec := range d.images.byID {
		stats.TotalSize += rec.FileSize
	}
	d.mu.RUnlock()

	if stats.TotalImages > 0 {
		stats.AverageSize = float64(stats.TotalSize) / float64(stats.TotalImages)
	}

	recordQuery("stats", start, nil)
	return stats, nil
}

// Stats implements metrics.StatsProvider.
func (d *Database) Stats(ctx context.Context) (metrics.Stats, error) {
	s, err := d.GetStats(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}
	return metrics.Stats{
		TotalImages:     s.TotalImages,
		TotalSize:       s.TotalSize,
		TotalCategories: s.TotalCategories,
		TotalTags:       s.TotalTags,
	}, nil
}
