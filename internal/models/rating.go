package models

import (
	"strconv"
	"strings"
)

// Rating is a coarse age classification.
type Rating int

const (
	RatingUnrated Rating = iota
	RatingGeneral
	RatingChildren
	RatingParental
	RatingTeen
	RatingRestricted
	RatingAdult
)

var ratingNames = map[Rating]string{
	RatingUnrated:    "unrated",
	RatingGeneral:    "general",
	RatingChildren:   "children",
	RatingParental:   "parental guidance",
	RatingTeen:       "teen",
	RatingRestricted: "restricted",
	RatingAdult:      "adult",
}

func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return "unknown"
}

// RatingClass is the result of classifying a rating string.
type RatingClass struct {
	Class  Rating
	MinAge int
}

// ClassifyRating maps the catalog's Rated field to a classification.
// Unknown strings are treated as unrated.
func ClassifyRating(rated string) RatingClass {
	switch strings.ToUpper(strings.TrimSpace(rated)) {
	case "G", "TV-G", "TV-Y", "APPROVED", "PASSED":
		return RatingClass{Class: RatingGeneral}
	case "TV-Y7", "TV-Y7-FV":
		return RatingClass{Class: RatingChildren, MinAge: 7}
	case "PG", "TV-PG", "M/PG", "GP":
		return RatingClass{Class: RatingParental, MinAge: 10}
	case "PG-13":
		return RatingClass{Class: RatingTeen, MinAge: 13}
	case "TV-14":
		return RatingClass{Class: RatingTeen, MinAge: 14}
	case "R", "M":
		return RatingClass{Class: RatingRestricted, MinAge: 17}
	case "NC-17", "TV-MA", "X":
		return RatingClass{Class: RatingAdult, MinAge: 18}
	default:
		return RatingClass{Class: RatingUnrated}
	}
}

func (c RatingClass) String() string {
	if c.MinAge == 0 {
		return c.Class.String()
	}
	return c.Class.String() + " (" + strconv.Itoa(c.MinAge) + "+)"
}
