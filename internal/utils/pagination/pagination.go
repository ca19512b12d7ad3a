package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParseFromRequest reads limit and offset from the query string. A page
// parameter is accepted in place of offset. Bad values fall back to defaults.
func ParseFromRequest(c *fiber.Ctx) Pagination {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 1 && c.Query("offset") == "" {
		offset = (page - 1) * limit
	}
	return Pagination{Limit: limit, Offset: offset}
}

// Response wraps one page of items.
func Response(p Pagination, count int, data interface{}) fiber.Map {
	meta := fiber.Map{
		"limit":  p.Limit,
		"offset": p.Offset,
		"count":  count,
	}
	if count == p.Limit {
		meta["next_offset"] = p.Offset + p.Limit
	}
	return fiber.Map{"data": data, "meta": meta}
}
