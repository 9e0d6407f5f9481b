package providers

import "strings"

const defaultPageSize = 10

// Criteria narrows a result list. Zero values disable a filter.
type Criteria struct {
	Query     string  `json:"query"`
	MinRating float64 `json:"minRating"`
	MinPrice  float64 `json:"minPrice"`
	MaxPrice  float64 `json:"maxPrice"`
}

func (c Criteria) hasPrice() bool {
	return c.MinPrice > 0 || c.MaxPrice > 0
}

// Filter returns the providers matching every active criterion, preserving
// order. When a price bound is set, providers without a readable cost are
// dropped.
func Filter(list []Provider, c Criteria) []Provider {
	query := strings.ToLower(strings.TrimSpace(c.Query))
	out := make([]Provider, 0, len(list))

	for _, p := range list {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		if c.MinRating > 0 && p.Rating < c.MinRating {
			continue
		}
		if c.hasPrice() && !priceMatches(p, c) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// priceMatches reports whether the provider's range overlaps [MinPrice, MaxPrice].
func priceMatches(p Provider, c Criteria) bool {
	cost, ok := p.Cost()
	if !ok {
		return false
	}
	if c.MaxPrice > 0 && cost.Min > c.MaxPrice {
		return false
	}
	if c.MinPrice > 0 && cost.Max < c.MinPrice {
		return false
	}
	return true
}

// Page is one slice of a paginated result list.
type Page struct {
	Items      []Provider `json:"items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	Total      int        `json:"total"`
	TotalPages int        `json:"totalPages"`
}

// Paginate returns page (1-based) of list. Pages past the end are empty.
func Paginate(list []Provider, page, size int) Page {
	if size <= 0 {
		size = defaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(list)
	p := Page{
		Items:      []Provider{},
		Page:       page,
		PageSize:   size,
		Total:      total,
	}
	if total > 0 {
		p.TotalPages = (total-1)/size + 1
	}

	if total == 0 || page-1 >= p.TotalPages {
		return p
	}
	if size > total {
		size = total
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	p.Items = list[start:end]
	return p
}
