package models

import (
	"slices"
	"strings"

	"github.com/desertthunder/flix/internal/shared"
)

// GenreMap maps the localized genre labels offered by the genre selector onto catalog genres.
var GenreMap = map[string]string{
	"Ação":              "Action",
	"Aventura":          "Adventure",
	"Animação":          "Animation",
	"Comédia":           "Comedy",
	"Crime":             "Crime",
	"Documentário":      "Documentary",
	"Drama":             "Drama",
	"Família":           "Family",
	"Fantasia":          "Fantasy",
	"Ficção científica": "Sci-Fi",
	"Guerra":            "War",
	"História":          "History",
	"Horror":            "Horror",
	"Musical":           "Musical",
	"Mistério":          "Mystery",
	"Romance":           "Romance",
	"Suspense":          "Thriller",
	"Terror":            "Horror",
}

// GenreLabels returns the localized labels sorted for display.
func GenreLabels() []string {
	labels := make([]string, 0, len(GenreMap))
	for label := range GenreMap {
		labels = append(labels, label)
	}
	c := shared.NewTitleCollator()
	slices.SortFunc(labels, c.CompareString)
	return labels
}

// ResolveGenre returns the catalog genre for a localized label or an English genre.
// Matching ignores case and accents. Unknown input is returned trimmed.
func ResolveGenre(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	key := shared.FoldString(shared.StripAccents(label))
	for l, genre := range GenreMap {
		if shared.FoldString(shared.StripAccents(l)) == key {
			return genre
		}
	}
	for _, genre := range GenreMap {
		if shared.FoldString(genre) == key {
			return genre
		}
	}
	return label
}
