package validation

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"image-vault/internal/mediatypes"
)

type fakeFile struct {
	name string
	mime string
	size int64
}

func (f fakeFile) FileName() string    { return f.name }
func (f fakeFile) ContentType() string { return f.mime }
func (f fakeFile) Size() int64         { return f.size }

func pngs(n int) []File {
	files := make([]File, n)
	for i := range files {
		files[i] = fakeFile{name: fmt.Sprintf("chart%d.png", i), mime: "image/png", size: 1024}
	}
	return files
}

func TestValidateBatchCount(t *testing.T) {
	t.Run("exactly N files accepted", func(t *testing.T) {
		if err := Validate(pngs(5), 5); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	t.Run("N+1 files rejected in full", func(t *testing.T) {
		err := Validate(pngs(6), 5)
		if err == nil {
			t.Fatal("Validate() = nil, want rejection")
		}

		var rej *Rejection
		if !errors.As(err, &rej) {
			t.Fatalf("error %T is not *Rejection", err)
		}
		if !errors.Is(err, ErrTooManyFiles) {
			t.Errorf("errors.Is(err, ErrTooManyFiles) = false; err = %v", err)
		}
		if len(rej.Invalid) != 0 {
			t.Errorf("batch-level rejection should not list files, got %d", len(rej.Invalid))
		}
		if want := "at most 5 files"; !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should name the limit (%q)", err.Error(), want)
		}
	})

	t.Run("zero limit disables the count check", func(t *testing.T) {
		if err := Validate(pngs(30), 0); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})
}

func TestValidateReportsEveryInvalidFile(t *testing.T) {
	files := []File{
		fakeFile{name: "ok.jpg", mime: "image/jpeg", size: 100},
		fakeFile{name: "report.pdf", mime: "application/pdf", size: 100},
		fakeFile{name: "huge.png", mime: "image/png", size: mediatypes.MaxFileSize + 1},
		fakeFile{name: "logo.svg", mime: "image/svg+xml", size: 100},
	}

	err := Validate(files, 20)

	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("Validate() = %v, want *Rejection", err)
	}
	if rej.Err != nil {
		t.Errorf("unexpected batch-level error: %v", rej.Err)
	}
	if len(rej.Invalid) != 2 {
		t.Fatalf("got %d invalid files, want 2: %v", len(rej.Invalid), err)
	}

	if got := rej.Invalid[0]; got.Index != 1 || got.Name != "report.pdf" || !errors.Is(got, ErrUnsupportedType) {
		t.Errorf("Invalid[0] = {%d %s %v}, want index 1 unsupported type", got.Index, got.Name, got.Err)
	}
	if got := rej.Invalid[1]; got.Index != 2 || got.Name != "huge.png" || !errors.Is(got, ErrFileTooLarge) {
		t.Errorf("Invalid[1] = {%d %s %v}, want index 2 too large", got.Index, got.Name, got.Err)
	}

	if !errors.Is(err, ErrFileTooLarge) || !errors.Is(err, ErrUnsupportedType) {
		t.Error("rejection should unwrap to both per-file sentinels")
	}
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		wantErr error
	}{
		{name: "gif at limit", file: fakeFile{"a.gif", "image/gif", mediatypes.MaxFileSize}},
		{name: "webp", file: fakeFile{"a.webp", "image/webp", 1}},
		{name: "one byte over", file: fakeFile{"a.png", "image/png", mediatypes.MaxFileSize + 1}, wantErr: ErrFileTooLarge},
		{name: "bmp", file: fakeFile{"a.bmp", "image/bmp", 1}, wantErr: ErrUnsupportedType},
		{name: "unknown type", file: fakeFile{"a", "", 1}, wantErr: ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.file, mediatypes.MaxFileSize)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("ValidateFile() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateFile() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmptyBatch(t *testing.T) {
	if err := Validate(nil, 20); err != nil {
		t.Errorf("Validate(nil) = %v, want nil", err)
	}
}
