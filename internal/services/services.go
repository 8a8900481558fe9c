package services

import (
	"context"

	"github.com/desertthunder/flix/internal/models"
)

// Catalog defines the remote movie catalog operations used by the aggregator and views.
type Catalog interface {
	// Search returns one page (1-based) of titles matching term.
	// A term with no matches yields an empty page, not an error.
	Search(ctx context.Context, term string, page int) (*SearchPage, error)

	// Details returns the full record for a catalog identifier.
	Details(ctx context.Context, id string) (*models.Movie, error)

	// Name returns the name of the catalog (e.g., "OMDb")
	Name() string
}

// PageSize is the number of results the catalog returns per search page.
const PageSize = 10

// SearchPage is a single page of search results.
type SearchPage struct {
	Movies []models.Movie
	Total  int
}

// Pages returns how many pages hold Total results, capped by limit results.
func (p *SearchPage) Pages(limit int) int {
	total := p.Total
	if limit > 0 && total > limit {
		total = limit
	}
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}
