package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Decode decompresses an LZ4 frame container into text. The daily archives
// are single-frame files; corrupted or truncated bytes surface as an error so
// the caller can skip the day.
func Decode(raw []byte) (string, error) {
	r := lz4.NewReader(bytes.NewReader(raw))
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode lz4 frame: %w", err)
	}
	return string(out), nil
}
