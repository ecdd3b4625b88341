package pagination

import (
	"net/http"

	"internship-service/internal/httputil"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type Params struct {
	Page  int
	Limit int
}

// New clamps page and limit into the accepted range.
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

func FromRequest(r *http.Request) Params {
	return New(
		httputil.QueryInt(r, "page", DefaultPage),
		httputil.QueryInt(r, "limit", DefaultLimit),
	)
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages is the number of pages needed for total items, zero when empty.
func Pages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
