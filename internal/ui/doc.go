// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a small movie browser:
//  1. [SearchView] : Type a query; ranked suggestions appear after a short pause
//  2. [ResultsView] : Browse the aggregated results of a search or letter listing
//  3. [DetailView] : Show the full record of one movie
//  4. [BirthYearView] : Ask for a birth year before the first watch-later add
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Suggestion requests carry a sequence number so a late response never replaces newer
// suggestions. The header shows live list counts fed by a merged [events.ListChanged] stream.
//
// Keys: enter, esc, f (favorite), w (watch later), / (search) and ctrl+c, with contextual help displayed via charmbracelet/bubbles/help.
package ui
