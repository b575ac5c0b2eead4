package normalizer

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"leadgen-relay-go/internal/fetcher"
)

const maxDescriptionChars = 4000

// NormalizedJob is a clean, typed job posting ready for filtering and storage.
type NormalizedJob struct {
	Source        string     `json:"source"`
	ExternalID    string     `json:"external_id"`
	Title         string     `json:"title"`
	CompanyName   string     `json:"company_name"`
	CompanyDomain string     `json:"company_domain"`
	CompanyURL    string     `json:"company_url"`
	JobURL        string     `json:"job_url"`
	Location      string     `json:"location"`
	Description   string     `json:"description"`
	Tags          []string   `json:"tags"`
	PostedAt      *time.Time `json:"posted_at"`
}

// Normalize converts a raw API entry into a NormalizedJob. The second return
// value is false when the entry is unusable (missing title or company).
func Normalize(raw fetcher.RawJob) (*NormalizedJob, bool) {
	title := raw.Position
	if title == "" {
		title = raw.Title
	}
	title = titleCase(title)
	companyName := strings.TrimSpace(raw.Company)

	if title == "" || companyName == "" {
		logrus.Debugf("Skipping job %s: missing title or company", raw.ExternalID())
		return nil, false
	}

	companyURL := raw.CompanyLogo
	if companyURL == "" {
		companyURL = raw.URL
	}
	jobURL := raw.ApplyURL
	if jobURL == "" {
		jobURL = raw.URL
	}

	description := stripHTML(raw.Description)
	if description == "" {
		description = fmt.Sprintf("Role: %s at %s. Tags: %s", title, companyName, strings.Join(raw.Tags, ", "))
	}
	if len(description) > maxDescriptionChars {
		cut := maxDescriptionChars
		for cut > 0 && !utf8.RuneStart(description[cut]) {
			cut--
		}
		description = description[:cut]
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, t := range raw.Tags {
		tags = append(tags, strings.ToLower(t))
	}

	location := raw.Location
	if location == "" {
		location = "Remote"
	}

	return &NormalizedJob{
		Source:        "remoteok",
		ExternalID:    raw.ExternalID(),
		Title:         title,
		CompanyName:   companyName,
		CompanyDomain: extractDomain(raw.CompanyLogo),
		CompanyURL:    companyURL,
		JobURL:        jobURL,
		Location:      location,
		Description:   description,
		Tags:          tags,
		PostedAt:      parseDate(raw.Date, raw.Epoch),
	}, true
}

// NormalizeAll normalizes a batch, skipping invalid entries.
func NormalizeAll(raws []fetcher.RawJob) []NormalizedJob {
	results := make([]NormalizedJob, 0, len(raws))
	for _, raw := range raws {
		if job, ok := Normalize(raw); ok {
			results = append(results, *job)
		}
	}
	logrus.Infof("Normalized %d / %d jobs", len(results), len(raws))
	return results
}

var tagRe = regexp.MustCompile(`<[^>]*>`)
var spaceRe = regexp.MustCompile(`\s+`)

// stripHTML removes tags and decodes the common HTML entities, collapsing
// the remaining whitespace.
func stripHTML(raw string) string {
	if raw == "" {
		return ""
	}

	replacements := []struct {
		from string
		to   string
	}{
		{"<br>", " "},
		{"<br/>", " "},
		{"<br />", " "},
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", "\""},
		{"&#39;", "'"},
	}

	text := raw
	for _, replacement := range replacements {
		text = strings.ReplaceAll(text, replacement.from, replacement.to)
	}

	text = tagRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extractDomain pulls the bare host out of a URL, e.g.
// "https://www.acme.com/about" -> "acme.com". Returns "" when unusable.
func extractDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	domain := strings.ToLower(parsed.Host)
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}

// parseDate converts the feed's date string or epoch number into a time.
// Unparsable values yield nil rather than an error.
func parseDate(date string, epoch any) *time.Time {
	if date != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, date); err == nil {
				return &t
			}
		}
	}

	switch v := epoch.(type) {
	case float64:
		if v > 0 {
			t := time.Unix(int64(v), 0).UTC()
			return &t
		}
	case int64:
		if v > 0 {
			t := time.Unix(v, 0).UTC()
			return &t
		}
	}

	return nil
}

// titleCase lowercases the string then capitalizes the first letter of each
// word, so "CTO of engineering" becomes "Cto Of Engineering".
func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, word := range words {
		lower := strings.ToLower(word)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}
