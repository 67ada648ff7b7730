package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	Path      = "/health"
	UserAgent = "shopfront-cli"
)

// Status is the backend's answer on /health
type Status struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Fetch queries the health endpoint of the backend at baseURL
func Fetch(ctx context.Context, httpClient *http.Client, baseURL string) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &status, nil
}

// VersionMismatch returns true if both sides report a release version and
// they differ
func VersionMismatch(cliVersion, backendVersion string) bool {
	cliVersion = strings.TrimPrefix(cliVersion, "v")
	backendVersion = strings.TrimPrefix(backendVersion, "v")

	// Development builds match anything
	if cliVersion == "dev" || backendVersion == "dev" || backendVersion == "" {
		return false
	}

	return cliVersion != backendVersion
}

// PrintMismatchNotice writes a warning to w if the versions differ
func PrintMismatchNotice(w io.Writer, cliVersion string, status *Status) {
	if status == nil || !VersionMismatch(cliVersion, status.Version) {
		return
	}
	fmt.Fprintf(w, "Warning: CLI version %s differs from backend version %s\n", cliVersion, status.Version)
}
