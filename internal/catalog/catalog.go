package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"image-vault/internal/database"
	"image-vault/internal/logging"
	"image-vault/internal/media"
	"image-vault/internal/mediatypes"
)

// Store is the part of the storage engine the catalog reads and deletes
// through.
type Store interface {
	GetAll(ctx context.Context) ([]database.ImageRecord, error)
	Get(ctx context.Context, id int64) (*database.ImageRecord, error)
	BulkDelete(ctx context.Context, ids []int64) (int, error)
}

// Filter narrows a view. Empty fields are inactive; active fields must all
// match.
type Filter struct {
	// Query uses the store's search semantics: name or category substring,
	// or exact tag.
	Query string
	// Category must equal the image's category (case-insensitive).
	Category string
	// Tag must be one of the image's tags (case-insensitive).
	Tag string
}

// Matches reports whether rec satisfies every active criterion.
func (f Filter) Matches(rec *database.ImageRecord) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" && !database.MatchesQuery(rec, q) {
		return false
	}
	if c := strings.TrimSpace(f.Category); c != "" && !strings.EqualFold(rec.Category, c) {
		return false
	}
	if t := strings.TrimSpace(f.Tag); t != "" && !rec.HasTag(t) {
		return false
	}
	return true
}

// Sort orders a view.
type Sort struct {
	Field mediatypes.SortField
	Order mediatypes.SortOrder
}

// DefaultSort is newest upload first.
var DefaultSort = Sort{Field: mediatypes.SortByUploadDate, Order: mediatypes.SortDesc}

func compareRecords(field mediatypes.SortField, a, b *database.ImageRecord) int {
	switch field {
	case mediatypes.SortByName:
		return strings.Compare(strings.ToLower(a.OriginalName), strings.ToLower(b.OriginalName))
	case mediatypes.SortBySize:
		return cmpInt64(a.FileSize, b.FileSize)
	case mediatypes.SortByCategory:
		return strings.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
	default:
		return a.UploadDate.Compare(b.UploadDate)
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Apply filters recs and sorts the survivors. Ties keep their input order.
// recs is not modified.
func Apply(recs []database.ImageRecord, f Filter, s Sort) []database.ImageRecord {
	out := make([]database.ImageRecord, 0, len(recs))
	for i := range recs {
		if f.Matches(&recs[i]) {
			out = append(out, recs[i])
		}
	}

	desc := s.Order == mediatypes.SortDesc
	slices.SortStableFunc(out, func(a, b database.ImageRecord) int {
		c := compareRecords(s.Field, &a, &b)
		if desc {
			return -c
		}
		return c
	})
	return out
}

// View is one filtered and sorted snapshot of the library.
type View struct {
	Filter  Filter
	Sort    Sort
	Records []database.ImageRecord
}

// IDs returns the ids in view, in view order.
func (v *View) IDs() []int64 {
	ids := make([]int64, len(v.Records))
	for i := range v.Records {
		ids[i] = v.Records[i].ID
	}
	return ids
}

// Contains reports whether id is in view.
func (v *View) Contains(id int64) bool {
	for i := range v.Records {
		if v.Records[i].ID == id {
			return true
		}
	}
	return false
}

// Service builds views over a Store.
type Service struct {
	store Store
}

// New returns a Service reading from store.
func New(store Store) *Service {
	return &Service{store: store}
}

// View loads the library and applies f and s.
func (s *Service) View(ctx context.Context, f Filter, srt Sort) (*View, error) {
	if srt.Field == "" {
		srt.Field = DefaultSort.Field
	}
	if srt.Order == "" {
		srt.Order = DefaultSort.Order
	}

	all, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}

	records := Apply(all, f, srt)
	logging.Debug("Catalog view %+v sorted by %s %s: %d of %d images", f, srt.Field, srt.Order, len(records), len(all))
	return &View{Filter: f, Sort: srt, Records: records}, nil
}

// BulkDelete deletes the selected ids that are in view and returns how many
// were removed. Callers confirm with the user before calling.
func (s *Service) BulkDelete(ctx context.Context, sel *Selection) (int, error) {
	ids := sel.IDs()
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := s.store.BulkDelete(ctx, ids)
	if err != nil {
		return 0, err
	}
	sel.Clear()
	logging.Info("Deleted %d selected images", n)
	return n, nil
}

// Download is a decoded compressed payload ready to save under Name.
type Download struct {
	ID       int64
	Name     string
	MimeType string
	Data     []byte
}

// Download decodes the compressed payload of one image.
func (s *Service) Download(ctx context.Context, id int64) (*Download, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeDownload(rec)
}

// DownloadSelected decodes every selected image in view order.
func (s *Service) DownloadSelected(sel *Selection) ([]Download, error) {
	var out []Download
	for i := range sel.view.Records {
		rec := &sel.view.Records[i]
		if !sel.IsSelected(rec.ID) {
			continue
		}
		dl, err := decodeDownload(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *dl)
	}
	return out, nil
}

func decodeDownload(rec *database.ImageRecord) (*Download, error) {
	mimeType, data, err := media.DecodeDataURL(rec.Compressed)
	if err != nil {
		return nil, fmt.Errorf("image %d (%s): %w", rec.ID, rec.OriginalName, err)
	}
	return &Download{ID: rec.ID, Name: rec.OriginalName, MimeType: mimeType, Data: data}, nil
}
