package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	SearchTerms Phase = iota
	FetchPages
	FetchDetails
	FilterPool
	ReadCache
	LetterBatch
	SaveResult
)

func (p Phase) String() string {
	switch p {
	case SearchTerms:
		return "search_terms"
	case FetchPages:
		return "fetch_pages"
	case FetchDetails:
		return "fetch_details"
	case FilterPool:
		return "filter_pool"
	case ReadCache:
		return "read_cache"
	case LetterBatch:
		return "letter_batch"
	case SaveResult:
		return "save_result"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func searchTermsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTerms,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Searching %d common terms...", total),
	}
}

func fetchPagesUpdate(query string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    1,
		Total:   total,
		Message: fmt.Sprintf("Fetching %d pages for %q...", total, query),
	}
}

func fetchDetailsUpdate(genre string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Fetching details of %d movies to filter by %s...", total, genre),
	}
}

func filterPoolUpdate(letter string, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FilterPool,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d titles starting with %s in the last search", found, letter),
	}
}

func readCacheUpdate(letter string, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadCache,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d cached titles for %s", found, letter),
	}
}

func letterBatchUpdate(step, total int, prefixes []string, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LetterBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %v (%d titles so far)", step, total, prefixes, found),
		Data:    prefixes,
	}
}

func saveResultUpdate(letter string, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveResult,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Cached %d titles for %s", found, letter),
	}
}
