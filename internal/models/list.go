package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/flix/internal/shared"
)

// List names a personal list.
type List string

const (
	Favorites  List = "favorites"
	WatchLater List = "watch-later"
)

// Lists returns every personal list in display order.
func Lists() []List {
	return []List{Favorites, WatchLater}
}

// StorageKey returns the key the list is persisted under.
func (l List) StorageKey() string {
	switch l {
	case Favorites:
		return "favoriteMovies"
	case WatchLater:
		return "watch_later_v1"
	default:
		return ""
	}
}

// Valid reports whether l is a known list.
func (l List) Valid() bool {
	return l.StorageKey() != ""
}

func (l List) String() string {
	return string(l)
}

// ParseList accepts a list name and a few common spellings.
func ParseList(s string) (List, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "favorites", "favourites", "favs", "fav":
		return Favorites, nil
	case "watch-later", "watchlater", "watch_later", "later":
		return WatchLater, nil
	}
	return "", fmt.Errorf("%w: %q", shared.ErrUnknownList, s)
}
