// Package logfile loads browser-automation log files from disk, expanding
// glob patterns and transparently decompressing gzip and zstd archives.
package logfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultMaxSize caps how many bytes Read loads when no limit is given
// (128 MiB). Logs are parsed fully in memory.
const DefaultMaxSize = 128 << 20

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Read loads one log file as a string, sniffing magic bytes to decompress
// .gz and .zst archives regardless of extension. maxSize <= 0 applies
// DefaultMaxSize; the limit is enforced on the decompressed content.
func Read(path string, maxSize int64) (string, error) {
	// #nosec G304 - path comes from the user's CLI arguments
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	var r io.Reader = f
	switch {
	case n >= 2 && bytes.Equal(head[:2], gzipMagic):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case n >= 4 && bytes.Equal(head[:4], zstdMagic):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if int64(len(data)) > maxSize {
		return "", fmt.Errorf("%s: content exceeds size limit of %d bytes", path, maxSize)
	}
	return string(data), nil
}
