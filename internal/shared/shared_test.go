package shared

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestFoldHelpers(t *testing.T) {
	tc := []struct {
		name   string
		s      string
		substr string
		want   bool
	}{
		{name: "lower substring", s: "Batman Begins", substr: "bat", want: true},
		{name: "mixed case", s: "Batman Begins", substr: "BEGINS", want: true},
		{name: "missing", s: "Batman Begins", substr: "joker", want: false},
		{name: "empty substring", s: "Batman", substr: "", want: true},
	}

	for _, tt := range tc {
		t.Run("ContainsFold "+tt.name, func(t *testing.T) {
			if got := ContainsFold(tt.s, tt.substr); got != tt.want {
				t.Errorf("ContainsFold(%q, %q) = %v, want %v", tt.s, tt.substr, got, tt.want)
			}
		})
	}

	t.Run("HasPrefixFold", func(t *testing.T) {
		if !HasPrefixFold("zodiac", "Z") {
			t.Error("expected zodiac to have prefix Z")
		}
		if HasPrefixFold("The Zone", "z") {
			t.Error("The Zone should not have prefix z")
		}
	})
}

func TestStripAccents(t *testing.T) {
	tc := map[string]string{
		"Ação":              "Acao",
		"Ficção científica": "Ficcao cientifica",
		"Drama":             "Drama",
		"Família":           "Familia",
	}
	for in, want := range tc {
		t.Run(in, func(t *testing.T) {
			if got := StripAccents(in); got != want {
				t.Errorf("StripAccents(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestCompareTitles(t *testing.T) {
	t.Run("orders alphabetically", func(t *testing.T) {
		if CompareTitles("Alien", "Batman") >= 0 {
			t.Error("expected Alien before Batman")
		}
		if CompareTitles("Zodiac", "Batman") <= 0 {
			t.Error("expected Zodiac after Batman")
		}
	})

	t.Run("ignores case", func(t *testing.T) {
		if CompareTitles("alien", "Batman") >= 0 {
			t.Error("expected lowercase alien before Batman")
		}
	})

	t.Run("equal titles", func(t *testing.T) {
		if CompareTitles("Heat", "Heat") != 0 {
			t.Error("expected equal titles to compare as 0")
		}
	})
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to buffer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")

		out := buf.String()
		if !strings.Contains(out, "hello") || !strings.Contains(out, "component=test") {
			t.Errorf("unexpected log output: %s", out)
		}
	})

	t.Run("SetLogLevel filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("quiet")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %s", buf.String())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flix.log")
		logger, f, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		defer f.Close()

		logger.Info("to file")
	})

	t.Run("GenerateID is unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct ids")
		}
	})
}
