package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page window
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads page and limit from the query string with the default page size
func Parse(c *gin.Context) Params {
	return ParseWithLimit(c, DefaultLimit)
}

// ParseWithLimit is Parse with a per-endpoint default page size. Malformed or
// out-of-range values fall back to the defaults; limit is capped at MaxLimit.
func ParseWithLimit(c *gin.Context, defaultLimit int) Params {
	page := queryInt(c, "page", DefaultPage)
	if page < 1 {
		page = DefaultPage
	}

	limit := queryInt(c, "limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	limit = min(limit, MaxLimit)

	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
