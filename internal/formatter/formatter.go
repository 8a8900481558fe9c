// package formatter renders personal movie lists as CSV, Markdown, plain text, JSON and terminal tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// ListExport is a personal list together with the profile that owns it.
type ListExport struct {
	List       models.List    `json:"list"`
	Owner      models.Profile `json:"owner"`
	ExportedAt time.Time      `json:"exported_at"`
	Movies     []models.Movie `json:"movies"`
}

// ListMetadata is the export summary written next to CSV files.
type ListMetadata struct {
	List       models.List `json:"list"`
	Owner      string      `json:"owner"`
	Count      int         `json:"count"`
	ExportedAt time.Time   `json:"exported_at"`
}

func (e *ListExport) baseName() string {
	return strings.ReplaceAll(e.List.String(), "-", "_")
}

func (e *ListExport) heading() string {
	switch e.List {
	case models.Favorites:
		return "Favorites"
	case models.WatchLater:
		return "Watch Later"
	default:
		return e.List.String()
	}
}

// ExportToCSV converts a ListExport to CSV format with columns: ID, Title, Year, Director, Rated, Genre
func ExportToCSV(export *ListExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Year", "Director", "Rated", "Genre"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, movie := range export.Movies {
		record := []string{movie.ID, movie.Title, movie.Year, movie.Director, movie.Rated, movie.Genre}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ListExport to Markdown format with an optional poster image
func ExportToMarkdown(export *ListExport, posterFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.heading())

	if posterFilename != "" {
		fmt.Fprintf(&buf, "![Poster](%s)\n\n", posterFilename)
	}

	if export.Owner.Name != "" {
		fmt.Fprintf(&buf, "**Owner**: %s\n", export.Owner.Name)
	}
	fmt.Fprintf(&buf, "**Movies**: %d\n\n", len(export.Movies))

	buf.WriteString("## Movies\n\n")
	for i, movie := range export.Movies {
		fmt.Fprintf(&buf, "%d. %s", i+1, movie.Title)
		if movie.Year != "" {
			fmt.Fprintf(&buf, " (%s)", movie.Year)
		}
		if movie.Director != "" && movie.Director != models.NotAvailable {
			fmt.Fprintf(&buf, " - %s", movie.Director)
		}
		fmt.Fprintf(&buf, " [%s]\n", movie.ID)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ListExport to plain text format
func ExportToText(export *ListExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "List: %s\n", export.heading())
	if export.Owner.Name != "" {
		fmt.Fprintf(&buf, "Owner: %s\n", export.Owner.Name)
	}
	fmt.Fprintf(&buf, "Movies: %d\n\n", len(export.Movies))

	for i, movie := range export.Movies {
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, movie.Title, movie.Year)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the whole export, movies included.
func ExportToJSON(export *ListExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ToMetadataJSON generates a JSON summary of the export (without movies)
func ToMetadataJSON(export *ListExport) ([]byte, error) {
	return shared.MarshalJSON(ListMetadata{
		List:       export.List,
		Owner:      export.Owner.Name,
		Count:      len(export.Movies),
		ExportedAt: export.ExportedAt,
	}, true)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes.
//
// A nil client uses one with a 30 second timeout.
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" || url == models.NotAvailable {
		return nil, fmt.Errorf("empty URL provided")
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	MoviesFile   string
	MetadataFile string
}

// WriteCSVExport exports a list to CSV format with accompanying metadata JSON file.
//
// Defaults to the list name as the base filename & creates {base}_movies.csv and {base}_metadata.json
func WriteCSVExport(export *ListExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.baseName()
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	moviesFile := baseFilepath + "_movies.csv"
	if err := os.WriteFile(moviesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{MoviesFile: moviesFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Poster    string
}

// WriteMarkdownExport exports a list to Markdown format in a dedicated directory.
//
// Directory name defaults to the list name. When client is non-nil the poster of the first
// movie that has one is downloaded to {dir}/poster.jpg; failures only log a warning.
func WriteMarkdownExport(export *ListExport, outputDir string, client *http.Client) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.baseName()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var posterFilename string
	if i := slices.IndexFunc(export.Movies, models.Movie.HasPoster); client != nil && i >= 0 {
		imageData, err := DownloadImage(client, export.Movies[i].Poster)
		if err != nil {
			log.Warn("failed to download poster", "id", export.Movies[i].ID, "error", err)
		} else {
			posterFilename = "poster.jpg"
			posterPath := filepath.Join(outputDir, posterFilename)
			if err := os.WriteFile(posterPath, imageData, 0644); err != nil {
				log.Warn("failed to save poster", "path", posterPath, "error", err)
				posterFilename = ""
			} else {
				result.Poster = posterPath
				result.Files = append(result.Files, posterPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, posterFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a list to plain text format.
//
// Defaults to {list}_movies.txt as the filename.
func WriteTextExport(export *ListExport, path string) (string, error) {
	if path == "" {
		path = export.baseName() + "_movies.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// WriteJSONExport writes the full export as JSON.
//
// Defaults to {list}.json as the filename.
func WriteJSONExport(export *ListExport, path string) (string, error) {
	if path == "" {
		path = export.baseName() + ".json"
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return path, nil
}

// RenderTable draws movies as a rounded terminal table.
func RenderTable(movies []models.Movie) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "ID", "Title", "Year", "Rated", "Genre"})

	for i, m := range movies {
		tw.AppendRow(table.Row{i + 1, m.ID, m.Title, m.Year, m.Rating().String(), m.Genre})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: 48},
		{Number: 6, WidthMax: 32},
	})
	return tw.Render()
}

// FilterMovies fuzzy-matches pattern against titles, best matches first.
// An empty pattern returns movies unchanged.
func FilterMovies(movies []models.Movie, pattern string) []models.Movie {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return movies
	}

	normalize := func(s string) string { return shared.FoldString(shared.StripAccents(s)) }

	targets := make([]string, len(movies))
	for i, m := range movies {
		targets[i] = normalize(m.Title)
	}

	// Distances are case sensitive, so both sides are folded first.
	ranks := fuzzy.RankFind(normalize(pattern), targets)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		if a.Distance != b.Distance {
			return a.Distance - b.Distance
		}
		return a.OriginalIndex - b.OriginalIndex
	})

	filtered := make([]models.Movie, 0, len(ranks))
	for _, r := range ranks {
		filtered = append(filtered, movies[r.OriginalIndex])
	}
	return filtered
}
