package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"iamkernel/apperror"
)

// Order is the sort direction for List operations; spec §6 defaults to desc.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// MaxPageLimit and DefaultPageLimit bound the `limit` query parameter per
// spec §6 (1-100, default 20).
const (
	MaxPageLimit     = 100
	DefaultPageLimit = 20
)

// ListParams carries the cursor-pagination parameters common to every List
// operation in this package.
type ListParams struct {
	Limit  int
	Order  Order
	After  string // opaque cursor: return rows strictly after this one
	Before string // opaque cursor: return rows strictly before this one
}

// NormalizedLimit clamps Limit into [1, MaxPageLimit], defaulting to
// DefaultPageLimit when unset.
func (p ListParams) NormalizedLimit() int {
	if p.Limit <= 0 {
		return DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		return MaxPageLimit
	}
	return p.Limit
}

// cursor is the decoded form of an opaque pagination cursor: the sort
// timestamp and id of the row pagination should continue from.
type cursor struct {
	SortAt time.Time
	ID     uuid.UUID
}

// encodeCursor builds the opaque cursor token for a row.
func encodeCursor(sortAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%d.%s", sortAt.UnixNano(), id.String())
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// EncodeCursor exposes encodeCursor to callers outside this package (the
// handlers package's renderPage needs it to build the "next cursor" from the last row of a
// page it just rendered).
func EncodeCursor(sortAt time.Time, id uuid.UUID) string {
	return encodeCursor(sortAt, id)
}

// decodeCursor parses an opaque cursor token. An invalid token is a
// not-found error per spec §1.5 ("unknown cursor value is a not-found
// error, not an empty page") rather than being silently ignored.
func decodeCursor(token string) (cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cursor{}, apperror.New(apperror.KindNotFound, "invalid pagination cursor")
	}
	parts := strings.SplitN(string(raw), ".", 2)
	if len(parts) != 2 {
		return cursor{}, apperror.New(apperror.KindNotFound, "invalid pagination cursor")
	}
	var nanos int64
	if _, err := fmt.Sscanf(parts[0], "%d", &nanos); err != nil {
		return cursor{}, apperror.New(apperror.KindNotFound, "invalid pagination cursor")
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return cursor{}, apperror.New(apperror.KindNotFound, "invalid pagination cursor")
	}
	return cursor{SortAt: time.Unix(0, nanos), ID: id}, nil
}

// verifyCursorExists confirms that a decoded cursor's id still names a row
// in table. spec.md:78 requires an unknown cursor id to surface as
// not_found rather than silently falling through to whatever the
// comparator query happens to match (or an empty page) - the same
// treatment the original implementation gives a lookup-by-id miss.
func verifyCursorExists(ctx context.Context, pool *pgxpool.Pool, table string, id uuid.UUID) error {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table)
	if err := pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to verify pagination cursor", err)
	}
	if !exists {
		return apperror.New(apperror.KindNotFound, "pagination cursor does not name an existing row")
	}
	return nil
}

// pageQuery resolves a List call's ListParams into the ORDER BY direction
// and WHERE comparator to use, and decodes+validates whichever cursor
// parameter (after or before) was supplied against table.
//
// `before` is answered by querying in the opposite direction from the
// page's declared Order and comparing the opposite way - walking backward
// from the cursor - then the caller reverses the fetched rows before
// returning them, restoring the page's declared display order. reversed
// tells the caller whether that final reverse is needed.
func pageQuery(ctx context.Context, pool *pgxpool.Pool, table string, p ListParams) (orderSQL, cmp string, c *cursor, reversed bool, err error) {
	orderSQL, cmp = "DESC", "<"
	if p.Order == OrderAsc {
		orderSQL, cmp = "ASC", ">"
	}

	token := p.After
	if token == "" {
		token = p.Before
		reversed = p.Before != ""
	}
	if token == "" {
		return orderSQL, cmp, nil, false, nil
	}

	decoded, decodeErr := decodeCursor(token)
	if decodeErr != nil {
		return "", "", nil, false, decodeErr
	}
	if err := verifyCursorExists(ctx, pool, table, decoded.ID); err != nil {
		return "", "", nil, false, err
	}

	if reversed {
		if orderSQL == "DESC" {
			orderSQL, cmp = "ASC", ">"
		} else {
			orderSQL, cmp = "DESC", "<"
		}
	}
	return orderSQL, cmp, &decoded, reversed, nil
}

// reverseSlice reverses s in place, used to restore a `before` page (fetched
// walking backward from the cursor) to its normal display order.
func reverseSlice[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Page is the generic result of a List call, mirroring spec §6's
// {"object":"list",...} envelope (object/HasMore naming is applied by the
// handlers package's renderPage; this type carries only the data).
type Page[T any] struct {
	Data    []T
	HasMore bool
}
