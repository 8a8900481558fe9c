package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/flix/internal/events"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDebounce MsgKind = iota
	MsgSuggestions
	MsgProgressUpdate
	MsgSearchComplete
	MsgDetailsFetched
	MsgListAdded
	MsgListChanged
	MsgCountsLoaded
)

type debounceData struct {
	seq   uint64
	query string
}

type suggestionsData struct {
	seq    uint64
	query  string
	movies []models.Movie
	err    error
}

type searchData struct {
	query  string
	result *tasks.Result
	err    error
}

type detailsData struct {
	movie *models.Movie
	err   error
}

type addedData struct {
	list  models.List
	movie models.Movie
	added bool
	err   error
}

// debounceMsg is the constructor for [MsgDebounce]
func debounceMsg(seq uint64, query string) Msg {
	return Msg{kind: MsgDebounce, data: debounceData{seq, query}}
}

// suggestionsMsg is the constructor for [MsgSuggestions]
func suggestionsMsg(seq uint64, query string, movies []models.Movie, err error) Msg {
	return Msg{kind: MsgSuggestions, data: suggestionsData{seq, query, movies, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// searchCompleteMsg is the constructor for [MsgSearchComplete]
func searchCompleteMsg(query string, result *tasks.Result, err error) Msg {
	return Msg{kind: MsgSearchComplete, data: searchData{query, result, err}}
}

// detailsFetchedMsg is the constructor for [MsgDetailsFetched]
func detailsFetchedMsg(movie *models.Movie, err error) Msg {
	return Msg{kind: MsgDetailsFetched, data: detailsData{movie, err}}
}

// listAddedMsg is the constructor for [MsgListAdded]
func listAddedMsg(list models.List, movie models.Movie, added bool, err error) Msg {
	return Msg{kind: MsgListAdded, data: addedData{list, movie, added, err}}
}

// listChangedMsg is the constructor for [MsgListChanged]
func listChangedMsg(event events.ListChanged) Msg {
	return Msg{kind: MsgListChanged, data: event}
}

// countsLoadedMsg is the constructor for [MsgCountsLoaded]
func countsLoadedMsg(counts map[models.List]int) Msg {
	return Msg{kind: MsgCountsLoaded, data: counts}
}
