// Package services defines the [Catalog] interface for the remote movie catalog and implements it for OMDb.
//
// # Catalog Interface
//
// The aggregator and the views talk to the catalog only through [Catalog], so tests swap in
// doubles from internal/testing and the client can be replaced without touching callers.
//
// # OMDb Implementation
//
// [OMDbClient] issues GET requests with the apikey, type=movie and either s (search, paged)
// or i (detail) query parameters. Requests pass through a client-side [rate.Limiter].
//
// # Error Handling
//
// OMDb reports most failures inside a 200 response with Response "False". The client maps them:
//   - "Movie not found!" / "Too many results." on search : empty page, nil error
//   - Response "False" on detail : [shared.ErrMovieNotFound]
//   - "Invalid API key!" / "No API key provided." : [shared.ErrInvalidCredentials]
//   - "Request limit reached!" : [shared.ErrRateLimited]
//   - non-2xx without a recognised envelope : [*HTTPStatusError]
//   - transport failures : [shared.ErrAPIRequest]
package services
