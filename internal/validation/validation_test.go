package validation

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantError error
	}{
		{"simple path", "doc.html", nil},
		{"nested path", "notes/week1/doc.html", nil},
		{"absolute path", "/tmp/doc.html", nil},
		{"empty path", "", ErrEmptyPath},
		{"too long", strings.Repeat("a", MaxPathLength+1), ErrPathTooLong},
		{"null byte", "doc\x00.html", ErrInvalidCharacter},
		{"newline", "doc\n.html", ErrInvalidCharacter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantError == nil {
				if err != nil {
					t.Errorf("ValidatePath(%q) unexpected error: %v", tt.path, err)
				}
				return
			}
			if !errors.Is(err, tt.wantError) {
				t.Errorf("ValidatePath(%q) error = %v, want %v", tt.path, err, tt.wantError)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		wantError error
	}{
		{"valid", "notes.html", nil},
		{"unicode", "лекция.html", nil},
		{"empty", "", ErrInvalidFilename},
		{"dot", ".", ErrInvalidFilename},
		{"dot dot", "..", ErrInvalidFilename},
		{"slash", "a/b.html", ErrInvalidFilename},
		{"backslash", "a\\b.html", ErrInvalidFilename},
		{"control", "a\tb", ErrInvalidFilename},
		{"hyphen", "-rf", ErrInvalidFilename},
		{"too long", strings.Repeat("a", MaxFilenameLength+1), ErrFilenameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if tt.wantError == nil {
				if err != nil {
					t.Errorf("ValidateFilename(%q) unexpected error: %v", tt.filename, err)
				}
				return
			}
			if !errors.Is(err, tt.wantError) {
				t.Errorf("ValidateFilename(%q) error = %v, want %v", tt.filename, err, tt.wantError)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"week 1", "week 1", false},
		{"  padded  ", "padded", false},
		{"biology/cells", "biology_cells", false},
		{"a\\b", "a_b", false},
		{"--flag", "flag", false},
		{"tab\there", "tabhere", false},
		{"..", "_", false},
		{"", "", true},
		{"---", "", true},
	}
	for _, tt := range tests {
		got, err := SanitizeFilename(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("SanitizeFilename(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDetectContent(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want ContentType
	}{
		{"markup", []byte("<div><p>x</p></div>"), ContentMarkup},
		{"markup after whitespace", []byte("\n  <p>x</p>"), ContentMarkup},
		{"plain text", []byte("just words"), ContentText},
		{"xz", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x01}, ContentXZ},
		{"gzip", []byte{0x1f, 0x8b, 0x08}, ContentGzip},
		{"zip", []byte{0x50, 0x4b, 0x03, 0x04, 0x00}, ContentZip},
		{"sqlite", []byte("SQLite format 3\x00rest"), ContentSQLite},
		{"binary", []byte{0x01, 0x02, 0x03, 0x00}, ContentBinary},
		{"empty", nil, ContentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectContent(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("DetectContent failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectContent = %s, want %s", got, tt.want)
			}
		})
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestDetectContentReadError(t *testing.T) {
	if _, err := DetectContent(errReader{}); err == nil {
		t.Error("DetectContent should report read errors")
	}
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "doc.html", []byte("<div><p>Hello</p></div>"))
	data, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}
	if string(data) != "<div><p>Hello</p></div>" {
		t.Errorf("data = %q", data)
	}

	if _, err := ReadDocument(writeFile(t, dir, "notes.txt", []byte("plain"))); !errors.Is(err, ErrNotMarkup) {
		t.Errorf("plain text err = %v, want ErrNotMarkup", err)
	}
	if _, err := ReadDocument(writeFile(t, dir, "doc.db", []byte("SQLite format 3\x00"))); !errors.Is(err, ErrNotMarkup) {
		t.Errorf("sqlite err = %v, want ErrNotMarkup", err)
	}
	if _, err := ReadDocument(dir); !errors.Is(err, ErrNotMarkup) {
		t.Errorf("directory err = %v, want ErrNotMarkup", err)
	}
	if _, err := ReadDocument(filepath.Join(dir, "missing.html")); !os.IsNotExist(err) {
		t.Errorf("missing err = %v, want not-exist", err)
	}
	if _, err := ReadDocument(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("empty err = %v, want ErrEmptyPath", err)
	}
}

func TestIsLikelyText(t *testing.T) {
	tests := []struct {
		data []byte
		want bool
	}{
		{[]byte("hello\n"), true},
		{[]byte{}, false},
		{[]byte("a\x00b"), false},
		{[]byte{0x01, 0x02, 0x03, 'a'}, false},
	}
	for _, tt := range tests {
		if got := isLikelyText(tt.data); got != tt.want {
			t.Errorf("isLikelyText(%q) = %v, want %v", tt.data, got, tt.want)
		}
	}
}
