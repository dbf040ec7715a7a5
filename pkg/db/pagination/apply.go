package pagination

import (
	"errors"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const DefaultPageSize = 50

var ErrInvalidPageToken = errors.New("invalid_page_token")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Normalize fills the default size and validates the bounds.
func (p Pagination) Normalize() (Pagination, error) {
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	p.PageToken = strings.TrimSpace(p.PageToken)
	validateOnce.Do(func() { validate = validator.New() })
	if err := validate.Struct(p); err != nil {
		return p, err
	}
	return p, nil
}

// Apply orders newest first by snowflake id and fetches one extra row so
// BuildCursorPageInfo can tell whether another page exists.
func Apply(stmt *gorm.DB, column string, page Pagination) (*gorm.DB, error) {
	if column == "" {
		column = "id"
	}
	if page.PageToken != "" {
		cursor, err := DecodeCursor(page.PageToken)
		if err != nil {
			return nil, ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil || id == 0 {
			return nil, ErrInvalidPageToken
		}
		stmt = stmt.Where(column+" < ?", id)
	}
	size := page.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return stmt.Order(column + " DESC").Limit(size + 1), nil
}

// IDCursor encodes the cursor for a row with the given id.
func IDCursor(id snowflake.ID) string {
	token, err := EncodeCursor(Cursor{ID: id.String()})
	if err != nil {
		return ""
	}
	return token
}
