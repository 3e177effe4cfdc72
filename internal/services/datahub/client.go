package datahub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// getJSON issues a GET with query params and decodes the JSON body into out.
// Every fetcher shares this; the per-source deadline comes in on ctx.
func getJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, out interface{}) error {
	requestURL := endpoint
	if len(params) > 0 {
		requestURL = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// parseYear extracts a four digit year from loosely formatted date fields
// ("2024", "2024-03-01", "01/05/2023"). Returns zero when none is found.
func parseYear(raw string) int {
	match := yearPattern.FindString(strings.TrimSpace(raw))
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}
