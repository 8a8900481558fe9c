// Package tasks implements the search orchestration over the remote catalog.
//
// # Core Operations
//
//  1. [Aggregator.FetchAll] : wildcard and free-text searches
//     - Wildcard fans out one search per common term and merges by identifier
//     - Free text fetches further pages in parallel up to a result cap
//     - An optional genre fetches every item's details and keeps matching items
//
//  2. [Aggregator.ByLetter] : exhaustive listing of titles starting with a letter
//     - Filters the last search first, then the letter cache
//     - Otherwise issues 37 prefix queries in batches, persisting partial progress after each
//     - On a fatal failure returns the saved partial result if there is one
//
//  3. [RankSuggestions] and [Suggester] : autocomplete
//     - Ranks title prefix and word prefix matches before substring matches
//     - Debounces keystrokes and drops results superseded by a newer query
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select with default
// so a slow reader never stalls a fan-out.
//
// # Failure Policy
//
// A single failed request in a fan-out counts as an empty contribution. Credential and quota
// errors and context cancellation abort the whole operation, since every following request
// would fail the same way.
package tasks
