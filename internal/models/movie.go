package models

import (
	"cmp"
	"slices"
	"strings"

	"github.com/desertthunder/flix/internal/shared"
)

// NotAvailable is the catalog's sentinel for a missing value, notably the poster.
const NotAvailable = "N/A"

// Movie is a catalog entry. JSON field names follow the catalog's wire format
// so stored lists and API payloads share one shape.
type Movie struct {
	ID       string `json:"imdbID"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Poster   string `json:"Poster,omitempty"`
	Director string `json:"Director,omitempty"`
	Plot     string `json:"Plot,omitempty"`
	Rated    string `json:"Rated,omitempty"`
	Genre    string `json:"Genre,omitempty"`
}

// Merge copies every non-empty field of newer onto m. The later fetch wins.
func (m *Movie) Merge(newer Movie) {
	if newer.ID != "" {
		m.ID = newer.ID
	}
	if newer.Title != "" {
		m.Title = newer.Title
	}
	if newer.Year != "" {
		m.Year = newer.Year
	}
	if newer.Poster != "" {
		m.Poster = newer.Poster
	}
	if newer.Director != "" {
		m.Director = newer.Director
	}
	if newer.Plot != "" {
		m.Plot = newer.Plot
	}
	if newer.Rated != "" {
		m.Rated = newer.Rated
	}
	if newer.Genre != "" {
		m.Genre = newer.Genre
	}
}

// HasPoster reports whether the movie carries a usable poster reference.
func (m Movie) HasPoster() bool {
	return m.Poster != "" && m.Poster != NotAvailable
}

// Genres splits the comma-separated genre field.
func (m Movie) Genres() []string {
	if m.Genre == "" || m.Genre == NotAvailable {
		return nil
	}
	parts := strings.Split(m.Genre, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}

// HasGenre reports whether the genre field contains genre, ignoring case.
func (m Movie) HasGenre(genre string) bool {
	return shared.ContainsFold(m.Genre, genre)
}

// Rating classifies the movie's age rating.
func (m Movie) Rating() RatingClass {
	return ClassifyRating(m.Rated)
}

// Validate checks that the movie can be stored in a list.
func (m Movie) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return shared.ErrInvalidInput
	}
	return nil
}

// SortMovies orders movies by collated title, breaking ties by identifier.
func SortMovies(movies []Movie) {
	c := shared.NewTitleCollator()
	slices.SortStableFunc(movies, func(a, b Movie) int {
		if n := c.CompareString(a.Title, b.Title); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// IndexOf returns the position of the movie with id, or -1.
func IndexOf(movies []Movie, id string) int {
	return slices.IndexFunc(movies, func(m Movie) bool { return m.ID == id })
}

// MergeByID appends batch onto acc keyed by identifier. Duplicates are merged
// in place so the later record's non-empty fields win and first-seen order is kept.
func MergeByID(acc []Movie, batch []Movie) []Movie {
	index := make(map[string]int, len(acc)+len(batch))
	for i, m := range acc {
		index[m.ID] = i
	}
	for _, m := range batch {
		if m.ID == "" {
			continue
		}
		if i, ok := index[m.ID]; ok {
			acc[i].Merge(m)
			continue
		}
		index[m.ID] = len(acc)
		acc = append(acc, m)
	}
	return acc
}
