// Package pagination encodes keyset cursors over (created_at, id).
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Cursor is the position after which the next page starts.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

var ErrInvalidCursor = errors.New("invalid cursor format")

// EncodeCursor returns an opaque, URL-safe cursor for the given row. An
// empty ID yields an empty cursor.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := timestamp.UTC().Format(time.RFC3339Nano) + "|" + lastID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor made by EncodeCursor. The empty string
// decodes to a nil cursor, meaning the first page.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	ts, id, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: id, Timestamp: timestamp}, nil
}
