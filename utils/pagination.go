package utils

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultPageSize is applied when page_size is absent or invalid.
	DefaultPageSize = 10
	// MaxPageSize caps page_size; larger values clamp silently.
	MaxPageSize = 100
)

// Pagination describes the page window of a list response.
type Pagination struct {
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Page is the data payload shape of every paginated endpoint.
type Page struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

// ParsePageParams reads page and page_size query parameters, applying
// defaults and clamping to [1, MaxPageSize]. Never fails.
func ParsePageParams(ctx *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = DefaultPageSize
	if v := ctx.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := ctx.Query("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset converts a page window into a query offset.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// NewPage assembles the paginated payload. Next and previous are absolute
// URLs derived from the current request, null when the neighbouring page does
// not exist. A page past the end yields an empty list with a nil next link.
func NewPage(ctx *gin.Context, list interface{}, total int64, page, pageSize int) Page {
	info := Pagination{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	if int64(page*pageSize) < total {
		info.Next = pageLink(ctx, page+1)
	}
	if page > 1 && total > 0 {
		info.Previous = pageLink(ctx, page-1)
	}
	return Page{List: list, Pagination: info}
}

func pageLink(ctx *gin.Context, page int) *string {
	req := ctx.Request
	u := url.URL{
		Scheme: "http",
		Host:   req.Host,
		Path:   req.URL.Path,
	}
	if req.TLS != nil {
		u.Scheme = "https"
	}
	// TLS usually terminates at the proxy in front of this service.
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		u.Scheme = proto
	}
	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
