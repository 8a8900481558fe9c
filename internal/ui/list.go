package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/flix/internal/models"
)

var _ list.Item = movieItem{}

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie models.Movie
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string       { return i.movie.Title }
func (i movieItem) Description() string {
	parts := []string{i.movie.Year}
	if i.movie.Genre != "" {
		parts = append(parts, i.movie.Genre)
	}
	if i.movie.Rated != "" {
		parts = append(parts, i.movie.Rating().String())
	}
	return fmt.Sprintf("%s • %s", strings.Join(parts, " • "), i.movie.ID)
}

func movieItems(movies []models.Movie) []list.Item {
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m}
	}
	return items
}
