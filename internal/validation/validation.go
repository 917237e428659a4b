// Package validation checks user-supplied paths and document files before
// the command line reads or writes them.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits on user input.
const (
	// MaxDocumentSize is the largest markup file accepted (16 MB).
	MaxDocumentSize = 16 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrTooLarge         = errors.New("document too large")
	ErrNotMarkup        = errors.New("not a markup document")
)

// ValidatePath checks length and character limits without touching the
// filesystem.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateFilename checks a single path element.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// SanitizeFilename turns a document name into a safe filename.
func SanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)

	var cleaned strings.Builder
	for _, r := range name {
		if r != 0 && !unicode.IsControl(r) {
			cleaned.WriteRune(r)
		}
	}
	name = strings.TrimLeft(cleaned.String(), "-")
	if name == "." || name == ".." {
		name = "_"
	}
	if err := ValidateFilename(name); err != nil {
		return "", err
	}
	return name, nil
}

// ContentType classifies a file by its leading bytes.
type ContentType string

const (
	ContentMarkup  ContentType = "markup"
	ContentText    ContentType = "text"
	ContentXZ      ContentType = "xz"
	ContentGzip    ContentType = "gzip"
	ContentZip     ContentType = "zip"
	ContentSQLite  ContentType = "sqlite"
	ContentBinary  ContentType = "binary"
	ContentUnknown ContentType = "unknown"
)

var magicBytes = []struct {
	contentType ContentType
	magic       []byte
}{
	{ContentXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{ContentGzip, []byte{0x1f, 0x8b}},
	{ContentZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{ContentSQLite, []byte("SQLite format 3")},
}

// DetectContent classifies the first bytes of r.
func DetectContent(r io.Reader) (ContentType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ContentUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	return classify(buf[:n]), nil
}

func classify(buf []byte) ContentType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(buf, sig.magic) {
			return sig.contentType
		}
	}
	if !isLikelyText(buf) {
		if len(buf) == 0 {
			return ContentUnknown
		}
		return ContentBinary
	}
	if trimmed := bytes.TrimLeft(buf, " \t\r\n\ufeff"); bytes.HasPrefix(trimmed, []byte("<")) {
		return ContentMarkup
	}
	return ContentText
}

// ReadDocument reads a markup file after checking its path, size and
// leading bytes.
func ReadDocument(path string) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotMarkup, path)
	}
	if info.Size() > MaxDocumentSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if ct := classify(data[:min(len(data), 512)]); ct != ContentMarkup {
		return nil, fmt.Errorf("%w: %s looks like %s", ErrNotMarkup, filepath.Base(path), ct)
	}
	return data, nil
}

// isLikelyText reports whether buf is mostly printable.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
		// UTF-8 lead and continuation bytes are neutral
	}
	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
