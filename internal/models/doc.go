// Package models defines the domain entities for the flix movie search and list service.
//
// The package contains:
//
//   - [Movie] : a catalog entry as returned by the remote movie catalog, merged across fetches
//   - [List] : the names of the personal lists kept in local storage
//   - [Profile] : the single local session profile
//   - [RatingClass] : the age classification derived from a movie's rating string
//   - [GenreMap] : localized genre labels mapped onto catalog genres
//
// Everything here is pure. Persistence lives in the repositories package.
package models
