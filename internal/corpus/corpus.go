package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// Record markers used by the history dump format.
	beginMarker = "**SOF**"
	endMarker   = "**EOF**"
)

// Fetch retrieves the raw corpus text from a URL. One attempt, no retry; a
// failed fetch fails the run.
func Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("corpus: build request: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("corpus: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("corpus: fetch %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("corpus: read body: %w", err)
	}
	return string(body), nil
}

// ReadFile loads the raw corpus from a local path.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("corpus: read %s: %w", path, err)
	}
	return string(data), nil
}

// Parse splits raw history text into discrete command lines. Newlines inside
// a record are collapsed to spaces first, records are delimited by the end
// marker, the begin marker is stripped, and the result is lowercased and
// trimmed. Empty records are dropped.
func Parse(raw string) []string {
	collapsed := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(raw)

	var lines []string
	for _, rec := range strings.Split(collapsed, endMarker) {
		rec = strings.ReplaceAll(rec, beginMarker, "")
		rec = strings.TrimSpace(strings.ToLower(rec))
		if rec == "" {
			continue
		}
		lines = append(lines, rec)
	}
	return lines
}
