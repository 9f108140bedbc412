package corpus

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "two records",
			raw:  "**SOF**ls -la**EOF****SOF**git status**EOF**",
			want: []string{"ls -la", "git status"},
		},
		{
			name: "newlines collapsed to spaces",
			raw:  "**SOF**git commit\n-m msg**EOF**",
			want: []string{"git commit -m msg"},
		},
		{
			name: "lowercased and trimmed",
			raw:  "**SOF**  Sudo REBOOT  **EOF**",
			want: []string{"sudo reboot"},
		},
		{
			name: "empty records dropped",
			raw:  "**SOF****EOF****SOF**   **EOF****SOF**pwd**EOF**",
			want: []string{"pwd"},
		},
		{
			name: "trailing garbage without end marker kept",
			raw:  "**SOF**ls**EOF****SOF**cd /tmp",
			want: []string{"ls", "cd /tmp"},
		},
		{
			name: "empty input",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFetch(t *testing.T) {
	const payload = "**SOF**echo hello**EOF**"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	raw, err := Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if raw != payload {
		t.Errorf("got %q, want %q", raw, payload)
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.sqlite3")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	lines := []string{"ls -la", "git push", "make clean"}
	if err := store.SaveLines("http://example/corpus.txt", lines); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadLines("http://example/corpus.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(lines) {
		t.Fatalf("got %d lines, want %d", len(got), len(lines))
	}
	for i := range lines {
		if got[i] != lines[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], lines[i])
		}
	}

	// Unknown source has no cache.
	missing, err := store.LoadLines("http://example/other.txt")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("expected nil for uncached source, got %v", missing)
	}
}

func TestStoreSaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.sqlite3")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.SaveLines("src", []string{"old one", "old two"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveLines("src", []string{"new"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.LoadLines("src")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "new" {
		t.Errorf("expected replacement to win, got %v", got)
	}
}

func TestStats(t *testing.T) {
	s := Stats([]string{"ab", "abcd", "abcdef"})

	if s.Lines != 3 {
		t.Errorf("expected 3 lines, got %d", s.Lines)
	}
	if s.Chars != 12 {
		t.Errorf("expected 12 chars, got %d", s.Chars)
	}
	if s.DistinctChars != 6 {
		t.Errorf("expected 6 distinct chars, got %d", s.DistinctChars)
	}
	if math.Abs(s.MeanLen-4.0) > 1e-12 {
		t.Errorf("expected mean 4, got %v", s.MeanLen)
	}
	if s.MaxLen != 6 {
		t.Errorf("expected max 6, got %d", s.MaxLen)
	}
}

func TestStatsEmpty(t *testing.T) {
	s := Stats(nil)
	if s.Lines != 0 || s.Chars != 0 || s.DistinctChars != 0 {
		t.Errorf("empty corpus should yield zero summary, got %+v", s)
	}
}
