package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/flix/internal/events"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/desertthunder/flix/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ResultsView
	DetailView
	BirthYearView
)

// Searcher runs a search selection.
type Searcher interface {
	FetchAll(ctx context.Context, sel tasks.Selector, progress chan<- tasks.ProgressUpdate) (*tasks.Result, error)
}

// Suggester produces sequence-tagged suggestions.
type Suggester interface {
	Next() uint64
	Accept(seq uint64) bool
	Debounce() time.Duration
	Suggest(ctx context.Context, query string) ([]models.Movie, error)
}

// DetailFetcher fetches a full movie record.
type DetailFetcher interface {
	Details(ctx context.Context, id string) (*models.Movie, error)
}

// ListService mutates and counts the personal lists.
type ListService interface {
	Add(ctx context.Context, list models.List, item models.Movie) (bool, error)
	AddWatchLater(ctx context.Context, item models.Movie, birthYear int) (bool, error)
	Count(list models.List) (int, error)
	MinimumAge() int
}

// SnapshotSaver records the last search so later letter listings can reuse it.
type SnapshotSaver interface {
	Save(snapshot models.SearchSnapshot) error
}

// Deps holds the collaborators of a [Model]. Snapshots and Changes may be nil.
type Deps struct {
	Searcher  Searcher
	Suggester Suggester
	Details   DetailFetcher
	Lists     ListService
	Snapshots SnapshotSaver
	Changes   <-chan events.ListChanged
	Profile   string
	Logger    *log.Logger
}

type searchJob struct {
	progress chan tasks.ProgressUpdate
	done     chan Msg
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	logger *log.Logger
	view   ViewState
	width  int
	height int

	input       textinput.Model
	suggestions []models.Movie
	cursor      int

	results   list.Model
	lastQuery string
	job       *searchJob
	progress  tasks.ProgressUpdate

	detail   *models.Movie
	returnTo ViewState

	yearInput textinput.Model
	pending   *models.Movie

	counts map[models.List]int
	status string
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	input := textinput.New()
	input.Placeholder = "Search movies (* for popular, one letter to list by initial)"
	input.CharLimit = 120
	input.Focus()

	year := textinput.New()
	year.Placeholder = "e.g. 1990"
	year.CharLimit = 4

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Results"
	results.SetFilteringEnabled(false)

	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if deps.Profile == "" {
		deps.Profile = models.DefaultProfileName
	}

	return &Model{
		ctx:       ctx,
		deps:      deps,
		logger:    logger,
		view:      SearchView,
		input:     input,
		cursor:    -1,
		results:   results,
		yearInput: year,
		counts:    map[models.List]int{},
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the cursor blink, loads the list counts and listens for list changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCounts(), m.waitForChange())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case BirthYearView:
			return m.handleBirthYearKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgDebounce:
		d := msg.data.(debounceData)
		if !m.deps.Suggester.Accept(d.seq) {
			return m, nil
		}
		if strings.TrimSpace(d.query) == "" {
			m.suggestions = nil
			m.cursor = -1
			return m, nil
		}
		return m, m.fetchSuggestions(d.seq, d.query)

	case MsgSuggestions:
		d := msg.data.(suggestionsData)
		if !m.deps.Suggester.Accept(d.seq) {
			m.logger.Debug("dropping superseded suggestions", "query", d.query)
			return m, nil
		}
		if d.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Suggestions unavailable: %v", d.err))
			return m, nil
		}
		m.suggestions = d.movies
		m.cursor = -1
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForSearch()

	case MsgSearchComplete:
		d := msg.data.(searchData)
		m.job = nil
		m.progress = tasks.ProgressUpdate{}
		if d.err != nil {
			m.err = d.err
			m.status = styles.err.Render(fmt.Sprintf("Search failed: %v", d.err))
			return m, nil
		}
		m.err = nil
		m.lastQuery = d.query
		m.results.Title = fmt.Sprintf("Results for '%s'", d.query)
		cmd := m.results.SetItems(movieItems(d.result.Movies))
		m.results.Select(0)
		m.status = fmt.Sprintf("%d movies (%s)", len(d.result.Movies), d.result.Source)
		if d.result.Partial {
			m.status = styles.warn.Render(m.status + ": listing interrupted, showing partial results")
		}
		m.view = ResultsView
		m.input.Blur()
		return m, cmd

	case MsgDetailsFetched:
		d := msg.data.(detailsData)
		if d.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Details unavailable: %v", d.err))
			return m, nil
		}
		if m.detail != nil && m.detail.ID == d.movie.ID {
			m.detail.Merge(*d.movie)
		}
		return m, nil

	case MsgListAdded:
		return m.handleAdded(msg.data.(addedData))

	case MsgListChanged:
		e := msg.data.(events.ListChanged)
		m.counts[e.List] = e.Count
		return m, m.waitForChange()

	case MsgCountsLoaded:
		for l, n := range msg.data.(map[models.List]int) {
			m.counts[l] = n
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		if m.cursor >= 0 && m.cursor < len(m.suggestions) {
			return m, m.openDetail(m.suggestions[m.cursor], SearchView)
		}
		query := strings.TrimSpace(m.input.Value())
		if query == "" || m.job != nil {
			return m, nil
		}
		m.deps.Suggester.Next()
		m.suggestions = nil
		m.cursor = -1
		return m, m.startSearch(query)
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.suggestions)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.up):
		if m.cursor >= 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		if len(m.results.Items()) > 0 {
			m.view = ResultsView
			m.input.Blur()
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.cursor = -1
		seq := m.deps.Suggester.Next()
		return m, tea.Batch(cmd, m.debounce(seq, value))
	}
	return m, cmd
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.search):
		m.view = SearchView
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.enter):
		if movie, ok := m.selected(); ok {
			return m, m.openDetail(movie, ResultsView)
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if movie, ok := m.selected(); ok {
			return m, m.addToList(models.Favorites, movie, 0)
		}
		return m, nil
	case key.Matches(msg, m.keys.watchLater):
		if movie, ok := m.selected(); ok {
			return m, m.addToList(models.WatchLater, movie, 0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = m.returnTo
		if m.view == SearchView {
			return m, m.input.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		return m, m.addToList(models.Favorites, *m.detail, 0)
	case key.Matches(msg, m.keys.watchLater):
		return m, m.addToList(models.WatchLater, *m.detail, 0)
	}
	return m, nil
}

func (m *Model) handleBirthYearKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.pending = nil
		m.yearInput.Blur()
		m.view = m.returnTo
		m.status = "Watch later cancelled"
		return m, nil
	case key.Matches(msg, m.keys.enter):
		year, err := strconv.Atoi(strings.TrimSpace(m.yearInput.Value()))
		if err != nil || year <= 0 {
			m.status = styles.err.Render("Enter your birth year as four digits")
			return m, nil
		}
		movie := *m.pending
		m.pending = nil
		m.yearInput.Blur()
		m.view = m.returnTo
		return m, m.addToList(models.WatchLater, movie, year)
	}

	var cmd tea.Cmd
	m.yearInput, cmd = m.yearInput.Update(msg)
	return m, cmd
}

func (m *Model) handleAdded(d addedData) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(d.err, shared.ErrBirthYearRequired):
		movie := d.movie
		m.pending = &movie
		if m.view != BirthYearView {
			m.returnTo = m.view
		}
		m.view = BirthYearView
		m.yearInput.SetValue("")
		m.status = ""
		return m, m.yearInput.Focus()
	case errors.Is(d.err, shared.ErrUnderage):
		m.status = styles.err.Render(fmt.Sprintf("Watch later requires age %d or older", m.deps.Lists.MinimumAge()))
	case errors.Is(d.err, shared.ErrInvalidBirthYear):
		m.status = styles.err.Render(fmt.Sprintf("Invalid birth year: %v", d.err))
	case d.err != nil:
		m.status = styles.err.Render(fmt.Sprintf("Could not add to %s: %v", d.list, d.err))
	case d.added:
		m.status = styles.ok.Render(fmt.Sprintf("✓ Added '%s' to %s", d.movie.Title, d.list))
	default:
		m.status = fmt.Sprintf("'%s' is already in %s", d.movie.Title, d.list)
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.input, cmd = m.input.Update(msg)
	case ResultsView:
		m.results, cmd = m.results.Update(msg)
	case BirthYearView:
		m.yearInput, cmd = m.yearInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) selected() (models.Movie, bool) {
	item, ok := m.results.SelectedItem().(movieItem)
	if !ok {
		return models.Movie{}, false
	}
	return item.movie, true
}

func (m *Model) openDetail(movie models.Movie, from ViewState) tea.Cmd {
	m.detail = &movie
	m.returnTo = from
	m.view = DetailView
	m.input.Blur()
	return m.fetchDetails(movie.ID)
}

func (m *Model) debounce(seq uint64, query string) tea.Cmd {
	return tea.Tick(m.deps.Suggester.Debounce(), func(time.Time) tea.Msg {
		return debounceMsg(seq, query)
	})
}

func (m *Model) fetchSuggestions(seq uint64, query string) tea.Cmd {
	return func() tea.Msg {
		movies, err := m.deps.Suggester.Suggest(m.ctx, query)
		return suggestionsMsg(seq, query, movies, err)
	}
}

// startSearch runs the selection in the background. Progress and the final result come
// back through the job channels.
func (m *Model) startSearch(query string) tea.Cmd {
	job := &searchJob{
		progress: make(chan tasks.ProgressUpdate, 50),
		done:     make(chan Msg, 1),
	}
	m.job = job
	m.err = nil
	m.status = fmt.Sprintf("Searching for '%s'...", query)

	sel := selectorFor(query)
	searcher := m.deps.Searcher
	snapshots := m.deps.Snapshots
	logger := m.logger

	go func() {
		result, err := searcher.FetchAll(m.ctx, sel, job.progress)
		if err == nil && snapshots != nil && sel.Mode() != tasks.ModeLetter {
			snap := models.SearchSnapshot{Query: query, Genre: sel.Genre, Movies: result.Movies}
			if err := snapshots.Save(snap); err != nil {
				logger.Warn("failed to save last search", "error", err)
			}
		}
		job.done <- searchCompleteMsg(query, result, err)
	}()

	return m.waitForSearch()
}

func (m *Model) waitForSearch() tea.Cmd {
	job := m.job
	if job == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case msg := <-job.done:
			return msg
		case update := <-job.progress:
			return progressUpdateMsg(update)
		}
	}
}

func (m *Model) fetchDetails(id string) tea.Cmd {
	if m.deps.Details == nil {
		return nil
	}
	return func() tea.Msg {
		movie, err := m.deps.Details.Details(m.ctx, id)
		return detailsFetchedMsg(movie, err)
	}
}

func (m *Model) addToList(l models.List, movie models.Movie, birthYear int) tea.Cmd {
	return func() tea.Msg {
		var (
			added bool
			err   error
		)
		if l == models.WatchLater {
			added, err = m.deps.Lists.AddWatchLater(m.ctx, movie, birthYear)
		} else {
			added, err = m.deps.Lists.Add(m.ctx, l, movie)
		}
		return listAddedMsg(l, movie, added, err)
	}
}

func (m *Model) loadCounts() tea.Cmd {
	return func() tea.Msg {
		counts := make(map[models.List]int)
		for _, l := range models.Lists() {
			n, err := m.deps.Lists.Count(l)
			if err != nil {
				m.logger.Warn("failed to count list", "list", l, "error", err)
				continue
			}
			counts[l] = n
		}
		return countsLoadedMsg(counts)
	}
}

func (m *Model) waitForChange() tea.Cmd {
	changes := m.deps.Changes
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-changes
		if !ok {
			return nil
		}
		return listChangedMsg(e)
	}
}

// selectorFor maps the search box to a selection: a lone letter or digit lists titles by
// initial, anything else is a query (wildcards included).
func selectorFor(query string) tasks.Selector {
	if letter, err := tasks.NormalizeLetter(query); err == nil {
		return tasks.Selector{Letter: letter}
	}
	return tasks.Selector{Query: query}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case ResultsView:
		body = m.renderResults()
	case DetailView:
		body = m.renderDetail()
	case BirthYearView:
		body = m.renderBirthYear()
	}

	parts := []string{m.renderHeader(), body}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderHeader() string {
	return styles.header.Render(fmt.Sprintf("flix · %s · favorites: %d · watch later: %d",
		m.deps.Profile, m.counts[models.Favorites], m.counts[models.WatchLater]))
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Search"))
	b.WriteString("\n")
	b.WriteString(m.input.View())

	if m.job != nil {
		fmt.Fprintf(&b, "\n\n%s", m.renderProgress())
	}

	for i, s := range m.suggestions {
		line := fmt.Sprintf("%s (%s)", s.Title, s.Year)
		if i == m.cursor {
			line = styles.selected.Render("› " + line)
		} else {
			line = "  " + line
		}
		if i == 0 {
			b.WriteString("\n")
		}
		b.WriteString("\n" + line)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.down, m.keys.back}
	fmt.Fprintf(&b, "\n\n%s", m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderProgress() string {
	p := m.progress
	switch p.Phase {
	case tasks.SearchTerms:
		return fmt.Sprintf("Searching common terms (%d/%d)", p.Step, p.Total)
	case tasks.FetchPages:
		return fmt.Sprintf("Fetching pages (%d/%d)", p.Step, p.Total)
	case tasks.FetchDetails:
		return fmt.Sprintf("Fetching details (%d/%d)", p.Step, p.Total)
	case tasks.LetterBatch:
		return fmt.Sprintf("Listing by letter: batch %d/%d", p.Step, p.Total)
	default:
		if p.Message != "" {
			return p.Message
		}
		return "Searching..."
	}
}

func (m *Model) renderResults() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.favorite, m.keys.watchLater, m.keys.search, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.results.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	d := m.detail
	if d == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("%s (%s)", d.Title, d.Year)))
	fields := []struct{ label, value string }{
		{"Director", d.Director},
		{"Genre", d.Genre},
		{"Rated", d.Rated},
		{"Plot", d.Plot},
		{"IMDb", d.ID},
	}
	for _, f := range fields {
		if f.value == "" || f.value == models.NotAvailable {
			continue
		}
		if f.label == "Rated" {
			f.value = fmt.Sprintf("%s (%s)", f.value, d.Rating())
		}
		fmt.Fprintf(&b, "\n%s: %s", f.label, f.value)
	}
	if d.HasPoster() {
		fmt.Fprintf(&b, "\nPoster: %s", d.Poster)
	}

	helpKeys := []key.Binding{m.keys.favorite, m.keys.watchLater, m.keys.back, m.keys.quit}
	fmt.Fprintf(&b, "\n\n%s", m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderBirthYear() string {
	title := "your pick"
	if m.pending != nil {
		title = m.pending.Title
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s",
		styles.title.Render("Birth year"),
		fmt.Sprintf("Watch later requires age %d or older. Enter your birth year to add '%s'.", m.deps.Lists.MinimumAge(), title),
		m.yearInput.View(),
		m.help.ShortHelpView(helpKeys),
	)
}
