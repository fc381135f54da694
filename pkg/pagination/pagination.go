package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page. Rows are ordered by
// (created_at, id) descending.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Page is one slice of a cursor-ordered listing.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalized limit plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// BuildPage trims the buffered row and derives the next cursor from the last
// row kept.
func BuildPage[T any](rows []T, limit int, cursorOf func(T) Cursor) Page[T] {
	return BuildPageFunc(rows, limit, func(row T) string {
		return EncodeCursor(cursorOf(row))
	})
}

// BuildPageFunc is BuildPage for listings with their own cursor encoding.
func BuildPageFunc[T any](rows []T, limit int, encode func(T) string) Page[T] {
	limit = NormalizeLimit(limit)
	page := Page[T]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.NextCursor = encode(page.Items[limit-1])
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

// EncodeCursor builds an opaque URL-safe cursor string.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID.String())
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components. An empty
// value yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: id}, nil
}

const noDueBack = "-"

// DueCursor points at the last row of a listing ordered by (due_back, id)
// ascending with undated rows last. A nil DueBack is one of those rows.
type DueCursor struct {
	DueBack *time.Time
	ID      uuid.UUID
}

// EncodeDueCursor builds an opaque URL-safe cursor for due-back listings.
func EncodeDueCursor(cursor DueCursor) string {
	due := noDueBack
	if cursor.DueBack != nil {
		due = cursor.DueBack.UTC().Format(time.DateOnly)
	}
	payload := fmt.Sprintf("due|%s|%s", due, cursor.ID.String())
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseDueCursor decodes a due-back cursor. An empty value yields nil.
func ParseDueCursor(value string) (*DueCursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 3)
	if len(parts) != 3 || parts[0] != "due" {
		return nil, fmt.Errorf("invalid cursor format")
	}
	cursor := &DueCursor{}
	if parts[1] != noDueBack {
		d, err := time.Parse(time.DateOnly, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid cursor date: %w", err)
		}
		cursor.DueBack = &d
	}
	if cursor.ID, err = uuid.Parse(parts[2]); err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return cursor, nil
}
