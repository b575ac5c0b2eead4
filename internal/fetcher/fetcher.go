package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultAPIURL = "https://remoteok.com/api"

// RemoteOK returns 403 without a real-looking User-Agent.
const userAgent = "Mozilla/5.0 (compatible; LeadGenRelayBot/1.0)"

// RawJob is one entry from the RemoteOK API, untouched except for JSON
// decoding. The first element of the feed is a legal notice without an id.
type RawJob struct {
	ID          any      `json:"id"`
	Position    string   `json:"position"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	CompanyLogo string   `json:"company_logo"`
	URL         string   `json:"url"`
	ApplyURL    string   `json:"apply_url"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"`
	Epoch       any      `json:"epoch"`
}

// ExternalID renders the source id as a string regardless of its JSON type.
func (j RawJob) ExternalID() string {
	switch v := j.ID.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// JobFetcher fetches raw job postings from an external job board
type JobFetcher interface {
	FetchJobs(ctx context.Context, tags []string, limit int) ([]RawJob, error)
}

// RemoteOKFetcher implements JobFetcher against the public RemoteOK API
type RemoteOKFetcher struct {
	apiURL string
	client *http.Client
}

// NewRemoteOKFetcher creates a new RemoteOK fetcher
func NewRemoteOKFetcher() *RemoteOKFetcher {
	return &RemoteOKFetcher{
		apiURL: defaultAPIURL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewRemoteOKFetcherWithURL creates a fetcher against a custom endpoint
func NewRemoteOKFetcherWithURL(apiURL string) *RemoteOKFetcher {
	f := NewRemoteOKFetcher()
	f.apiURL = apiURL
	return f
}

// FetchJobs fetches job postings with optional tag filters, retrying
// transient failures up to 3 times with exponential backoff.
func (f *RemoteOKFetcher) FetchJobs(ctx context.Context, tags []string, limit int) ([]RawJob, error) {
	endpoint := f.apiURL
	if len(tags) > 0 {
		params := url.Values{}
		params.Set("tags", strings.Join(tags, ","))
		endpoint = endpoint + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		jobs, err := f.fetchOnce(ctx, endpoint)
		if err == nil {
			if limit > 0 && len(jobs) > limit {
				jobs = jobs[:limit]
			}
			logrus.Infof("Fetched %d job postings from RemoteOK", len(jobs))
			return jobs, nil
		}

		lastErr = err
		logrus.Warnf("Failed to fetch jobs (attempt %d/%d): %v", attempt, 3, err)

		if attempt < 3 {
			waitTime := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return nil, fmt.Errorf("failed to fetch jobs after 3 attempts: %w", lastErr)
}

// fetchOnce performs a single API call and drops entries without an id
// (the feed's leading legal notice).
func (f *RemoteOKFetcher) fetchOnce(ctx context.Context, endpoint string) ([]RawJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var entries []RawJob
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	jobs := make([]RawJob, 0, len(entries))
	for _, entry := range entries {
		if entry.ExternalID() == "" {
			continue
		}
		jobs = append(jobs, entry)
	}

	return jobs, nil
}
