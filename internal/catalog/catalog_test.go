package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"image-vault/internal/database"
	"image-vault/internal/media"
	"image-vault/internal/mediatypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	records []database.ImageRecord
	deleted []int64
	err     error
}

func (f *fakeStore) GetAll(context.Context) ([]database.ImageRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]database.ImageRecord(nil), f.records...), nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (*database.ImageRecord, error) {
	for i := range f.records {
		if f.records[i].ID == id {
			rec := f.records[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("image %d: %w", id, database.ErrNotFound)
}

func (f *fakeStore) BulkDelete(_ context.Context, ids []int64) (int, error) {
	f.deleted = append(f.deleted, ids...)
	return len(ids), nil
}

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func record(id int64, name, category string, size int64, tags ...string) database.ImageRecord {
	return database.ImageRecord{
		ID:           id,
		OriginalName: name,
		Category:     category,
		FileSize:     size,
		Tags:         tags,
		UploadDate:   base.Add(time.Duration(id) * time.Hour),
		Compressed:   media.EncodeDataURL("image/jpeg", []byte(name)),
	}
}

func library() []database.ImageRecord {
	// GetAll order: newest first.
	return []database.ImageRecord{
		record(5, "b-news.png", "ニュース", 300, "macro"),
		record(4, "Alpha.jpg", "chart", 100, "news"),
		record(3, "chart1.png", "other", 200, "news"),
		record(2, "zeta.gif", "chart", 200),
		record(1, "alpha-2.webp", "other", 50, "macro", "news"),
	}
}

func ids(recs []database.ImageRecord) []int64 {
	out := make([]int64, len(recs))
	for i := range recs {
		out[i] = recs[i].ID
	}
	return out
}

func TestFilterIsConjunctive(t *testing.T) {
	recs := library()

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{name: "no filter", filter: Filter{}, want: []int64{5, 4, 3, 2, 1}},
		{name: "query matches tag or name", filter: Filter{Query: "news"}, want: []int64{5, 4, 3, 1}},
		{name: "category", filter: Filter{Category: "CHART"}, want: []int64{4, 2}},
		{name: "tag", filter: Filter{Tag: "Macro"}, want: []int64{5, 1}},
		{name: "category and tag", filter: Filter{Category: "chart", Tag: "news"}, want: []int64{4}},
		{name: "all three", filter: Filter{Query: "alpha", Category: "other", Tag: "news"}, want: []int64{1}},
		{name: "nothing matches", filter: Filter{Category: "chart", Tag: "macro"}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(recs, tt.filter, DefaultSort)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSearchVersusFilter(t *testing.T) {
	rec := record(1, "chart1.png", "other", 10, "news")

	assert.True(t, database.MatchesQuery(&rec, "news"), "tag sub-match is enough for search")
	assert.False(t, Filter{Category: "chart", Tag: "news"}.Matches(&rec), "filters must all hold")
}

func TestSortIsStable(t *testing.T) {
	recs := library()

	tests := []struct {
		name string
		sort Sort
		want []int64
	}{
		{name: "date desc", sort: Sort{mediatypes.SortByUploadDate, mediatypes.SortDesc}, want: []int64{5, 4, 3, 2, 1}},
		{name: "date asc", sort: Sort{mediatypes.SortByUploadDate, mediatypes.SortAsc}, want: []int64{1, 2, 3, 4, 5}},
		{name: "name ignores case", sort: Sort{mediatypes.SortByName, mediatypes.SortAsc}, want: []int64{1, 4, 5, 3, 2}},
		{name: "size asc keeps ties in input order", sort: Sort{mediatypes.SortBySize, mediatypes.SortAsc}, want: []int64{1, 4, 3, 2, 5}},
		{name: "size desc keeps ties in input order", sort: Sort{mediatypes.SortBySize, mediatypes.SortDesc}, want: []int64{5, 3, 2, 4, 1}},
		{name: "category asc", sort: Sort{mediatypes.SortByCategory, mediatypes.SortAsc}, want: []int64{4, 2, 3, 1, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(recs, Filter{}, tt.sort)))
		})
	}

	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(recs), "Apply must not reorder its input")
}

func TestServiceView(t *testing.T) {
	svc := New(&fakeStore{records: library()})

	v, err := svc.View(context.Background(), Filter{Tag: "news"}, Sort{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSort, v.Sort)
	assert.Equal(t, []int64{4, 3, 1}, v.IDs())
	assert.True(t, v.Contains(3))
	assert.False(t, v.Contains(5))

	_, err = New(&fakeStore{err: errors.New("disk gone")}).View(context.Background(), Filter{}, DefaultSort)
	assert.ErrorContains(t, err, "disk gone")
}

func TestSelection(t *testing.T) {
	svc := New(&fakeStore{records: library()})
	v, err := svc.View(context.Background(), Filter{Category: "other"}, DefaultSort)
	require.NoError(t, err)

	sel := NewSelection(v)
	assert.False(t, sel.Toggle(5), "ids outside the view cannot be selected")
	assert.Zero(t, sel.Len())

	assert.True(t, sel.Toggle(1))
	assert.Equal(t, []int64{1}, sel.IDs())
	assert.False(t, sel.Toggle(1))
	assert.Zero(t, sel.Len())

	sel.SelectAll()
	assert.True(t, sel.AllSelected())
	assert.Equal(t, []int64{3, 1}, sel.IDs())

	sel.SelectAll()
	assert.Zero(t, sel.Len(), "SelectAll on a full selection deselects")

	sel.Toggle(3)
	sel.SelectAll()
	assert.Equal(t, 2, sel.Len(), "SelectAll on a partial selection selects the rest")

	sel.Clear()
	assert.Zero(t, sel.Len())

	empty := NewSelection(&View{})
	empty.SelectAll()
	assert.False(t, empty.AllSelected())
}

func TestBulkDeleteOnlyTouchesView(t *testing.T) {
	store := &fakeStore{records: library()}
	svc := New(store)

	v, err := svc.View(context.Background(), Filter{Tag: "macro"}, DefaultSort)
	require.NoError(t, err)

	sel := NewSelection(v)
	sel.SelectAll()

	n, err := svc.BulkDelete(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{5, 1}, store.deleted)
	assert.Zero(t, sel.Len())

	n, err = svc.BulkDelete(context.Background(), sel)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDownload(t *testing.T) {
	svc := New(&fakeStore{records: library()})
	ctx := context.Background()

	dl, err := svc.Download(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Alpha.jpg", dl.Name)
	assert.Equal(t, "image/jpeg", dl.MimeType)
	assert.Equal(t, []byte("Alpha.jpg"), dl.Data)

	_, err = svc.Download(ctx, 99)
	assert.ErrorIs(t, err, database.ErrNotFound)

	v, err := svc.View(ctx, Filter{}, Sort{mediatypes.SortByName, mediatypes.SortAsc})
	require.NoError(t, err)
	sel := NewSelection(v)
	sel.Toggle(2)
	sel.Toggle(4)

	dls, err := svc.DownloadSelected(sel)
	require.NoError(t, err)
	require.Len(t, dls, 2)
	assert.Equal(t, "Alpha.jpg", dls[0].Name)
	assert.Equal(t, "zeta.gif", dls[1].Name)
}

func TestCatalogOverDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping SQLite integration test in short mode")
	}

	ctx := context.Background()
	db, _, err := database.New(ctx, filepath.Join(t.TempDir(), "catalog.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	payload := media.EncodeDataURL("image/png", []byte{1, 2, 3})
	_, err = db.SaveMultiple(ctx, []database.ImageRecord{
		{FileName: "img_a", OriginalName: "chart1.png", Category: "other", Tags: []string{"news"},
			MimeType: "image/png", FileSize: 3, Compressed: payload, Thumbnail: payload},
		{FileName: "img_b", OriginalName: "candles.png", Category: "chart", Tags: []string{"news"},
			MimeType: "image/png", FileSize: 3, Compressed: payload, Thumbnail: payload},
	})
	require.NoError(t, err)

	searched, err := db.Search(ctx, "news")
	require.NoError(t, err)
	assert.Len(t, searched, 2)

	svc := New(db)
	v, err := svc.View(ctx, Filter{Category: "chart", Tag: "news"}, DefaultSort)
	require.NoError(t, err)
	require.Len(t, v.Records, 1)
	assert.Equal(t, "candles.png", v.Records[0].OriginalName)

	sel := NewSelection(v)
	sel.SelectAll()
	n, err := svc.BulkDelete(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	remaining, err := db.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "chart1.png", remaining[0].OriginalName)
}
