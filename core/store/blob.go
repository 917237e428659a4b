package store

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

// Injectable functions for testing
var (
	xzNewWriter = xz.NewWriter
	xzNewReader = xz.NewReader
)

// Hash returns the hex BLAKE3 digest of markup.
func Hash(markup []byte) string {
	h := blake3.Sum256(markup)
	return hex.EncodeToString(h[:])
}

// compress xz-encodes data.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xzNewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return buf.Bytes(), nil
}

// decompress reverses compress and checks the result against want.
func decompress(data []byte, want string) ([]byte, error) {
	r, err := xzNewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	if got := Hash(out); got != want {
		return nil, fmt.Errorf("content hash mismatch: got %s, want %s", got, want)
	}
	return out, nil
}
