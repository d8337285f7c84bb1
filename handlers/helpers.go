package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"iamkernel/apperror"
	"iamkernel/middleware"
	"iamkernel/principal"
	"iamkernel/response"
	"iamkernel/store"
)

// bindJSON decodes and validates the request body into dst, writing a
// validation error response and returning false on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, http.StatusBadRequest, string(apperror.KindValidation), err.Error())
		return false
	}
	return true
}

// pathUUID parses the named path parameter as a UUID, writing a validation
// error response and returning ok=false on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, http.StatusBadRequest, string(apperror.KindValidation), "invalid "+name)
		return uuid.UUID{}, false
	}
	return id, true
}

// parseUUIDOrError parses an arbitrary string (not a path parameter) as a
// UUID, writing a validation error response and returning ok=false on
// failure.
func parseUUIDOrError(c *gin.Context, s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		response.Error(c, http.StatusBadRequest, string(apperror.KindValidation), "invalid id: "+s)
		return uuid.UUID{}, false
	}
	return id, true
}

// currentPrincipal fetches the principal resolved by auth middleware. It is
// always present on routes mounted behind RequireAuth.
func currentPrincipal(c *gin.Context) (principal.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return principal.Principal{}, false
	}
	return p, true
}

// listParams reads the cursor-pagination query parameters common to every
// list endpoint (spec §1.13: limit, order, after, before).
func listParams(c *gin.Context) store.ListParams {
	p := store.ListParams{
		After:  c.Query("after"),
		Before: c.Query("before"),
	}
	if limit := c.Query("limit"); limit != "" {
		if n, err := parseInt(limit); err == nil {
			p.Limit = n
		}
	}
	if c.Query("order") == "asc" {
		p.Order = store.OrderAsc
	} else {
		p.Order = store.OrderDesc
	}
	return p
}

// renderPage writes the spec §1.13 list envelope for a page of items,
// deriving the opaque next-page cursor from the last row's sort key via
// cursorOf.
func renderPage[T any](c *gin.Context, items []T, hasMore bool, cursorOf func(T) (uuid.UUID, time.Time)) {
	body := gin.H{"object": "list", "data": items, "has_more": hasMore}
	if len(items) > 0 {
		firstID, firstAt := cursorOf(items[0])
		lastID, lastAt := cursorOf(items[len(items)-1])
		body["first_id"] = store.EncodeCursor(firstAt, firstID)
		body["last_id"] = store.EncodeCursor(lastAt, lastID)
	}
	response.OK(c, body)
}

func parseInt(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, apperror.New(apperror.KindValidation, "invalid integer")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
