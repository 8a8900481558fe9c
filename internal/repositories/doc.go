// Package repositories implements SQLite persistence for the local state of flix.
//
// All state lives in a single key/value table holding JSON values, so every record has the
// same shape as the browser storage the app was first written against. Every write bumps a
// revision counter that [events.Watcher] polls to notice changes made by other processes.
//
// Key Implementations:
//   - [KVStore] : JSON key/value access with the revision counter
//   - [ListStore] : favorites and watch-later lists, the watch-later age gate, change notification
//   - [LetterCache] : per-letter aggregation results and their partial progress
//   - [SnapshotRepository] : the last search snapshot
//   - [SessionRepository] : the single local profile and the recorded birth year
package repositories
