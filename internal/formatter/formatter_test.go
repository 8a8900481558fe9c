package formatter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/flix/internal/models"
	th "github.com/desertthunder/flix/internal/testing"
)

func sampleExport() *ListExport {
	return &ListExport{
		List:       models.WatchLater,
		Owner:      models.Profile{Name: "Ana", Email: "ana@example.com"},
		ExportedAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Movies: []models.Movie{
			{
				ID:       "tt0137523",
				Title:    "Fight Club",
				Year:     "1999",
				Director: "David Fincher",
				Rated:    "R",
				Genre:    "Drama",
				Poster:   models.NotAvailable,
			},
			{
				ID:    "tt0114709",
				Title: "Toy Story",
				Year:  "1995",
				Rated: "G",
				Genre: "Animation, Adventure, Comedy",
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Title,Year,Director,Rated,Genre\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "tt0137523,Fight Club,1999,David Fincher,R,Drama") {
			t.Errorf("CSV missing first movie, got: %s", output)
		}
		if !strings.Contains(output, `"Animation, Adventure, Comedy"`) {
			t.Errorf("CSV should quote fields containing commas, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without poster", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Watch Later",
				"**Owner**: Ana",
				"**Movies**: 2",
				"## Movies",
				"1. Fight Club (1999) - David Fincher [tt0137523]",
				"2. Toy Story (1995) [tt0114709]",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got: %s", want, output)
				}
			}
			if strings.Contains(output, "![Poster]") {
				t.Error("Markdown should not reference a poster")
			}
		})

		t.Run("with poster", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), "poster.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Poster](poster.jpg)") {
				t.Errorf("Markdown missing poster reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		export := sampleExport()
		export.List = models.Favorites

		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{"List: Favorites", "Owner: Ana", "Movies: 2", "1. Fight Club (1999)", "2. Toy Story (1995)"} {
			if !strings.Contains(output, want) {
				t.Errorf("Text missing %q", want)
			}
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(sampleExport())
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{`"list": "watch-later"`, `"owner": "Ana"`, `"count": 2`} {
			if !strings.Contains(output, want) {
				t.Errorf("JSON missing %s, got: %s", want, output)
			}
		}
		if strings.Contains(output, "Fight Club") {
			t.Error("metadata should not include movies")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{`"imdbID": "tt0137523"`, `"Title": "Toy Story"`, `"email": "ana@example.com"`} {
			if !strings.Contains(output, want) {
				t.Errorf("JSON missing %s", want)
			}
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(nil, ""); err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
		if _, err := DownloadImage(nil, models.NotAvailable); err == nil {
			t.Error("DownloadImage with N/A should return error")
		}
	})

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer srv.Close()

		data, err := DownloadImage(srv.Client(), srv.URL+"/poster.jpg")
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("unexpected body %q", data)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadImage(srv.Client(), srv.URL); err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("TransportError", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("connection failed"))}
		if _, err := DownloadImage(client, "http://posters.invalid/a.jpg"); err == nil {
			t.Error("expected transport error")
		}
	})

	t.Run("ReadError", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &th.FCloser{},
		}, nil)}
		if _, err := DownloadImage(client, "http://posters.invalid/a.jpg"); err == nil || !strings.Contains(err.Error(), "failed to read image data") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(sampleExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.MoviesFile != "watch_later_movies.csv" || result.MetadataFile != "watch_later_metadata.json" {
				t.Errorf("unexpected default file names %+v", result)
			}

			th.AssertFileExists(t, result.MoviesFile)
			th.AssertFileExists(t, result.MetadataFile)

			if !strings.Contains(th.MustReadFile(t, result.MoviesFile), "Fight Club") {
				t.Error("CSV file missing movie")
			}
			if !strings.Contains(th.MustReadFile(t, result.MetadataFile), `"count": 2`) {
				t.Error("metadata file missing count")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "mine")

			result, err := WriteCSVExport(sampleExport(), base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			th.AssertFileExists(t, base+"_movies.csv")
			th.AssertFileExists(t, result.MetadataFile)
		})

		t.Run("UnwritableDirectory", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "missing", "mine")
			if _, err := WriteCSVExport(sampleExport(), base); err == nil {
				t.Error("expected error for missing directory")
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(sampleExport(), "", nil)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			th.AssertDirExists(t, result.Directory)
			readme := filepath.Join(result.Directory, "README.md")
			th.AssertFileExists(t, readme)
			if !strings.Contains(th.MustReadFile(t, readme), "# Watch Later") {
				t.Error("README missing heading")
			}
			if result.Poster != "" {
				t.Error("no poster expected without a client")
			}
		})

		t.Run("WithPoster", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("jpeg-bytes"))
			}))
			defer srv.Close()

			export := sampleExport()
			export.Movies[1].Poster = srv.URL + "/toy.jpg"
			dir := filepath.Join(t.TempDir(), "export")

			result, err := WriteMarkdownExport(export, dir, srv.Client())
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			th.AssertFileExists(t, result.Poster)
			if len(result.Files) != 2 {
				t.Errorf("expected poster and README, got %v", result.Files)
			}
			if !strings.Contains(th.MustReadFile(t, filepath.Join(dir, "README.md")), "![Poster](poster.jpg)") {
				t.Error("README missing poster reference")
			}
		})

		t.Run("PosterFailureIsNotFatal", func(t *testing.T) {
			client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("connection failed"))}
			export := sampleExport()
			export.Movies[0].Poster = "http://posters.invalid/fight.jpg"

			result, err := WriteMarkdownExport(export, filepath.Join(t.TempDir(), "export"), client)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.Poster != "" || len(result.Files) != 1 {
				t.Errorf("expected README only, got %+v", result)
			}
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		path, err := WriteTextExport(sampleExport(), "")
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if path != "watch_later_movies.txt" {
			t.Errorf("unexpected default path %s", path)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "List: Watch Later") {
			t.Error("text file missing heading")
		}
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "list.json")

		got, err := WriteJSONExport(sampleExport(), path)
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}
		th.AssertFileExists(t, got)
		if !strings.Contains(th.MustReadFile(t, got), `"tt0114709"`) {
			t.Error("JSON file missing movie")
		}
	})
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(sampleExport().Movies)

	for _, want := range []string{"TITLE", "Fight Club", "tt0114709", "restricted (17+)", "general"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "╭") {
		t.Errorf("expected rounded table style, got:\n%s", out)
	}
}

func TestFilterMovies(t *testing.T) {
	movies := []models.Movie{
		{ID: "tt1", Title: "The Dark Knight"},
		{ID: "tt2", Title: "Batman Begins"},
		{ID: "tt3", Title: "Knight and Day"},
		{ID: "tt4", Title: "Amélie"},
	}

	t.Run("best matches first", func(t *testing.T) {
		got := FilterMovies(movies, "knight")
		ids := make([]string, len(got))
		for i, m := range got {
			ids[i] = m.ID
		}
		if !slices.Equal(ids, []string{"tt3", "tt1"}) {
			t.Errorf("expected [tt3 tt1], got %v", ids)
		}
	})

	t.Run("case differences do not change the ranking", func(t *testing.T) {
		lower := FilterMovies(movies, "knight")
		upper := FilterMovies(movies, "KNIGHT")
		if len(lower) != 2 || len(upper) != 2 {
			t.Fatalf("expected two matches each, got %d and %d", len(lower), len(upper))
		}
		for i := range lower {
			if lower[i].ID != upper[i].ID {
				t.Errorf("rank %d differs: %s vs %s", i, lower[i].ID, upper[i].ID)
			}
		}
	})

	t.Run("ignores case and accents", func(t *testing.T) {
		got := FilterMovies(movies, "AMELIE")
		if len(got) != 1 || got[0].ID != "tt4" {
			t.Errorf("expected Amélie, got %v", got)
		}
	})

	t.Run("empty pattern keeps everything", func(t *testing.T) {
		if got := FilterMovies(movies, " "); len(got) != len(movies) {
			t.Errorf("expected all movies, got %d", len(got))
		}
	})

	t.Run("no match", func(t *testing.T) {
		if got := FilterMovies(movies, "zzz"); len(got) != 0 {
			t.Errorf("expected no matches, got %v", got)
		}
	})
}
