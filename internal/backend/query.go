package backend

import (
	"net/url"
	"strconv"
	"strings"
)

// ListQuery holds the paging, filter and sort parameters shared by the list endpoints.
type ListQuery struct {
	Page       int
	Limit      int
	SearchTerm string
	Categories []string
	Status     string
	Role       string
	MinPrice   string
	MaxPrice   string
	SortBy     string
	SortOrder  string
}

func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	setIf(v, "searchTerm", q.SearchTerm)
	for _, c := range q.Categories {
		if c = strings.TrimSpace(c); c != "" {
			v.Add("category", c)
		}
	}
	setIf(v, "status", q.Status)
	setIf(v, "role", q.Role)
	setIf(v, "minPrice", q.MinPrice)
	setIf(v, "maxPrice", q.MaxPrice)
	setIf(v, "sortBy", q.SortBy)
	if q.SortOrder == "asc" || q.SortOrder == "desc" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v
}

// ParseListQuery reads a ListQuery from an inbound query string. Unparseable
// numbers are ignored rather than rejected.
func ParseListQuery(v url.Values) ListQuery {
	q := ListQuery{
		SearchTerm: strings.TrimSpace(v.Get("searchTerm")),
		Categories: v["category"],
		Status:     v.Get("status"),
		Role:       v.Get("role"),
		MinPrice:   numeric(v.Get("minPrice")),
		MaxPrice:   numeric(v.Get("maxPrice")),
		SortBy:     v.Get("sortBy"),
		SortOrder:  strings.ToLower(v.Get("sortOrder")),
	}
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	if l, err := strconv.Atoi(v.Get("limit")); err == nil && l > 0 {
		q.Limit = l
	}
	return q
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func numeric(s string) string {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return ""
	}
	return s
}
