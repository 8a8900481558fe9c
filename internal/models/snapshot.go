package models

// SearchSnapshot is the last search the user ran. Its movies are the in-memory pool
// the letter filter scans before going to the catalog.
type SearchSnapshot struct {
	Query  string  `json:"query"`
	Genre  string  `json:"genre"`
	Movies []Movie `json:"movies"`
}
