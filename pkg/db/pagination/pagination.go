package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Pagination is bound from the page_token and page_size query parameters.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size" validate:"gte=1,lte=250"`
}

// Cursor is the opaque position carried by a page token.
type Cursor struct {
	ID string `json:"id"`
}

type PageInfo struct {
	NextPageToken string `json:"NextPageToken,omitempty"`
	HasMore       bool   `json:"HasMore"`
}

func EncodeCursor(cursor Cursor) (string, error) {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func DecodeCursor(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	if cursor.ID == "" {
		return nil, fmt.Errorf("decode cursor: missing id")
	}
	return &cursor, nil
}

// BuildCursorPageInfo inspects rows fetched with limit+1 and points the next
// token at the last row of the current page.
func BuildCursorPageInfo[T any](rows []*T, limit int, cursorOf func(*T) string) *PageInfo {
	if limit <= 0 || len(rows) <= limit {
		return &PageInfo{}
	}
	return &PageInfo{
		HasMore:       true,
		NextPageToken: cursorOf(rows[limit-1]),
	}
}
