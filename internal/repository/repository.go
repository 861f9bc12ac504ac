// Package repository persists hosted games as opaque records. A record's Data is
// the encoded action log; stores compress it with zstd at rest.
package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("record not found")

// Record is one stored game.
type Record struct {
	ID        string
	Data      []byte
	Checksum  string
	Round     int
	Finished  bool
	UpdatedAt time.Time
}

// Summary is a record without its payload, for listings.
type Summary struct {
	ID        string    `db:"id"`
	Checksum  string    `db:"checksum"`
	Round     int       `db:"round"`
	Finished  bool      `db:"finished"`
	UpdatedAt time.Time `db:"updated_at"`
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// compress encodes data for storage.
func compress(data []byte) []byte {
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// decompress reverses compress.
func decompress(blob []byte) ([]byte, error) {
	data, err := decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return data, nil
}
