// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
)

// MockCatalog is a test double for [services.Catalog].
//
// Search answers from Pages (keyed by term, then page) unless SearchFunc is set;
// Details answers from Movies unless DetailsFunc is set. Every call is recorded.
type MockCatalog struct {
	Pages       map[string][]*services.SearchPage
	Movies      map[string]models.Movie
	SearchFunc  func(ctx context.Context, term string, page int) (*services.SearchPage, error)
	DetailsFunc func(ctx context.Context, id string) (*models.Movie, error)

	mu       sync.Mutex
	searches []string
	details  []string
}

// NewMockCatalog creates a [MockCatalog] whose single-page results come from results.
func NewMockCatalog(results map[string][]models.Movie) *MockCatalog {
	pages := make(map[string][]*services.SearchPage, len(results))
	for term, movies := range results {
		pages[term] = []*services.SearchPage{{Movies: movies, Total: len(movies)}}
	}
	return &MockCatalog{Pages: pages, Movies: map[string]models.Movie{}}
}

func (m *MockCatalog) Search(ctx context.Context, term string, page int) (*services.SearchPage, error) {
	m.mu.Lock()
	m.searches = append(m.searches, fmt.Sprintf("%s#%d", term, page))
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, term, page)
	}

	pages := m.Pages[term]
	if page < 1 || page > len(pages) {
		return &services.SearchPage{}, nil
	}
	return pages[page-1], nil
}

func (m *MockCatalog) Details(ctx context.Context, id string) (*models.Movie, error) {
	m.mu.Lock()
	m.details = append(m.details, id)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.DetailsFunc != nil {
		return m.DetailsFunc(ctx, id)
	}

	movie, ok := m.Movies[id]
	if !ok {
		return nil, fmt.Errorf("mock: no details for %s", id)
	}
	return &movie, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// Searches returns the recorded search calls as "term#page", sorted.
func (m *MockCatalog) Searches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.searches)
	slices.Sort(out)
	return out
}

// SearchTerms returns the distinct searched terms in call order.
func (m *MockCatalog) SearchTerms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var terms []string
	for _, s := range m.searches {
		term := s[:strings.LastIndex(s, "#")]
		if !slices.Contains(terms, term) {
			terms = append(terms, term)
		}
	}
	return terms
}

// DetailCalls returns how many detail lookups were made.
func (m *MockCatalog) DetailCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.details)
}

// MemoryLetterStore is an in-memory letter cache that can be told to fail.
type MemoryLetterStore struct {
	mu            sync.Mutex
	Final         map[string][]models.Movie
	Partials      map[string][]models.Movie
	PartialWrites int
	FailPartialAt int // fail the nth SavePartial call (1-based); 0 never fails
}

// NewMemoryLetterStore creates an empty [MemoryLetterStore].
func NewMemoryLetterStore() *MemoryLetterStore {
	return &MemoryLetterStore{Final: map[string][]models.Movie{}, Partials: map[string][]models.Movie{}}
}

func (s *MemoryLetterStore) Get(letter string) ([]models.Movie, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	movies, ok := s.Final[letter]
	return slices.Clone(movies), ok, nil
}

func (s *MemoryLetterStore) Save(letter string, movies []models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Final[letter] = slices.Clone(movies)
	return nil
}

func (s *MemoryLetterStore) Partial(letter string) ([]models.Movie, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	movies, ok := s.Partials[letter]
	return slices.Clone(movies), ok, nil
}

func (s *MemoryLetterStore) SavePartial(letter string, movies []models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PartialWrites++
	if s.FailPartialAt > 0 && s.PartialWrites == s.FailPartialAt {
		return errors.New("mock: disk full")
	}
	s.Partials[letter] = slices.Clone(movies)
	return nil
}

func (s *MemoryLetterStore) ClearPartial(letter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Partials, letter)
	return nil
}

// StaticPool is a fixed last-search pool.
type StaticPool []models.Movie

func (p StaticPool) Pool() ([]models.Movie, error) {
	return slices.Clone(p), nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
