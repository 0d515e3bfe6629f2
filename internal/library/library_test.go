package library

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"image-vault/internal/database"
	"image-vault/internal/ingest"
	"image-vault/internal/media"
	"image-vault/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFile(t *testing.T, name string, width, height int) media.Source {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 3), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return media.Source{Name: name, MimeType: "image/png", Data: buf.Bytes()}
}

func setupLibrary(t *testing.T, opts ingest.Options) (*Library, *database.Database) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping SQLite integration test in short mode")
	}

	db, _, err := database.New(context.Background(), filepath.Join(t.TempDir(), "library.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return New(db, ingest.New(nil), opts), db
}

func TestUploadRoundTrip(t *testing.T) {
	lib, db := setupLibrary(t, ingest.DefaultOptions())
	ctx := context.Background()

	rid := int64(9)
	report, err := lib.Upload(ctx, []media.Source{pngFile(t, "chart.png", 120, 80)},
		UploadOptions{Category: "チャート", Tags: []string{"daily", "daily"}, RecordID: &rid}, nil)
	require.NoError(t, err)
	require.Len(t, report.Saved, 1)
	assert.Empty(t, report.Errors)

	got, err := db.Get(ctx, report.Saved[0].ID)
	require.NoError(t, err)

	assert.Equal(t, 120, got.Width)
	assert.Equal(t, 80, got.Height)
	assert.Equal(t, "chart.png", got.OriginalName)
	assert.Equal(t, "チャート", got.Category)
	assert.Equal(t, []string{"daily"}, got.Tags)
	require.NotNil(t, got.RecordID)
	assert.EqualValues(t, 9, *got.RecordID)

	_, payload, err := media.DecodeDataURL(got.Compressed)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), got.FileSize)
	assert.NotEmpty(t, got.Thumbnail)
}

func TestUploadReportsStoredRecords(t *testing.T) {
	lib, db := setupLibrary(t, ingest.DefaultOptions())
	ctx := context.Background()

	report, err := lib.Upload(ctx, []media.Source{pngFile(t, "a.png", 30, 30), pngFile(t, "b.png", 30, 30)},
		UploadOptions{Tags: []string{" daily", "daily "}}, nil)
	require.NoError(t, err)
	require.Len(t, report.Saved, 2)

	for _, saved := range report.Saved {
		assert.NotZero(t, saved.ID)
		assert.False(t, saved.UploadDate.IsZero(), "UploadDate should be set")
		assert.Equal(t, database.UncategorizedCategory, saved.Category)
		assert.Equal(t, []string{"daily"}, saved.Tags)

		stored, err := db.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, *stored, saved)
	}

	untagged, err := lib.Upload(ctx, []media.Source{pngFile(t, "c.png", 30, 30)}, UploadOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, untagged.Saved, 1)
	assert.NotNil(t, untagged.Saved[0].Tags)
	assert.Empty(t, untagged.Saved[0].Tags)
}

func TestUploadPartialFailurePersistsValidFiles(t *testing.T) {
	lib, db := setupLibrary(t, ingest.DefaultOptions())
	ctx := context.Background()

	files := []media.Source{
		pngFile(t, "one.png", 40, 40),
		{Name: "two.png", MimeType: "image/png", Data: []byte("definitely not a png")},
		pngFile(t, "three.png", 20, 60),
	}

	report, err := lib.Upload(ctx, files, UploadOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, report.Saved, 2)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "two.png", report.Errors[0].File)
	assert.Error(t, report.Err())

	all, err := db.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, rec := range all {
		assert.Equal(t, database.UncategorizedCategory, rec.Category)
	}
}

func TestUploadRejectedBatchPersistsNothing(t *testing.T) {
	opts := ingest.DefaultOptions()
	opts.MaxFiles = 2
	lib, db := setupLibrary(t, opts)
	ctx := context.Background()

	files := []media.Source{pngFile(t, "a.png", 8, 8), pngFile(t, "b.png", 8, 8), pngFile(t, "c.png", 8, 8)}

	report, err := lib.Upload(ctx, files, UploadOptions{}, nil)
	assert.Nil(t, report)
	var rej *validation.Rejection
	require.ErrorAs(t, err, &rej)

	all, err := db.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	report, err = lib.Upload(ctx, files[:2], UploadOptions{}, nil)
	require.NoError(t, err)
	assert.Len(t, report.Saved, 2)
}

type failingStore struct {
	calls int
}

func (f *failingStore) SaveMultiple(context.Context, []database.ImageRecord) ([]int64, error) {
	f.calls++
	return nil, &database.StorageError{Op: "save_images", Err: errors.New("disk full")}
}

func (f *failingStore) SaveTag(_ context.Context, t database.Tag) (*database.Tag, error) {
	return &t, nil
}

func (f *failingStore) Get(context.Context, int64) (*database.ImageRecord, error) {
	return nil, database.ErrNotFound
}

func TestUploadSurfacesStorageErrors(t *testing.T) {
	store := &failingStore{}
	lib := New(store, ingest.New(nil), ingest.DefaultOptions())

	_, err := lib.Upload(context.Background(), []media.Source{pngFile(t, "a.png", 8, 8)}, UploadOptions{}, nil)

	var se *database.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, store.calls)
}

func TestUploadAllFailedSkipsStore(t *testing.T) {
	store := &failingStore{}
	lib := New(store, ingest.New(nil), ingest.DefaultOptions())

	report, err := lib.Upload(context.Background(),
		[]media.Source{{Name: "bad.png", MimeType: "image/png", Data: []byte("x")}}, UploadOptions{}, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Saved)
	assert.Len(t, report.Errors, 1)
	assert.Zero(t, store.calls)
}

func TestAddTag(t *testing.T) {
	lib, db := setupLibrary(t, ingest.DefaultOptions())
	ctx := context.Background()

	tag, err := lib.AddTag(ctx, "earnings")
	require.NoError(t, err)
	assert.Equal(t, "earnings", tag.Name)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, tag.Color)

	tags, err := db.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, *tag, tags[0])

	_, err = lib.AddTag(ctx, " ")
	assert.Error(t, err)
}
