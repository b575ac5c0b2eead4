package filter

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"leadgen-relay-go/internal/normalizer"
)

// DefaultBuyerRoles is the fallback keyword list of broad buyer-signal roles,
// used whenever AI keyword generation is disabled or fails.
var DefaultBuyerRoles = []string{
	"cto", "vp engineering", "head of engineering", "engineering manager",
	"director of engineering", "chief technology officer",
	"founder", "co-founder", "ceo",
	"vp product", "head of product", "product manager", "product lead",
	"vp operations", "head of operations", "operations manager",
	"devops", "platform engineer", "staff engineer", "principal engineer",
	"data engineer", "ml engineer", "machine learning",
}

// KeywordGenerator produces role keywords tailored to a product description.
type KeywordGenerator interface {
	GenerateKeywords(ctx context.Context, productDescription string) ([]string, error)
}

// Filter keeps job postings whose searchable text mentions at least one
// buyer-signal keyword. The AI-generated keyword list is computed at most
// once per Filter and cached, including when generation fails and the
// defaults are substituted.
type Filter struct {
	generator KeywordGenerator
	product   string

	mu       sync.Mutex
	keywords []string
}

// New creates a Filter. The generator may be nil, in which case only the
// default keyword list is ever used.
func New(generator KeywordGenerator, productDescription string) *Filter {
	return &Filter{
		generator: generator,
		product:   productDescription,
	}
}

// Keywords returns the active keyword list, invoking the generator lazily on
// first use. Generation failures fall back to DefaultBuyerRoles, and the
// fallback is cached so the generator is never retried.
func (f *Filter) Keywords(ctx context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.keywords != nil {
		return f.keywords
	}

	if f.generator == nil {
		f.keywords = DefaultBuyerRoles
		return f.keywords
	}

	keywords, err := f.generator.GenerateKeywords(ctx, f.product)
	if err != nil || len(keywords) == 0 {
		logrus.Warnf("AI keyword generation failed, using defaults: %v", err)
		f.keywords = DefaultBuyerRoles
		return f.keywords
	}

	logrus.Infof("AI-generated %d filter keywords", len(keywords))
	f.keywords = keywords
	return f.keywords
}

// Apply filters jobs using the default keyword list only.
func (f *Filter) Apply(jobs []normalizer.NormalizedJob) []normalizer.NormalizedJob {
	return keywordFilter(jobs, DefaultBuyerRoles)
}

// ApplyDynamic filters jobs using the (lazily generated) AI keyword list.
func (f *Filter) ApplyDynamic(ctx context.Context, jobs []normalizer.NormalizedJob) []normalizer.NormalizedJob {
	return keywordFilter(jobs, f.Keywords(ctx))
}

// keywordFilter keeps jobs whose text contains at least one keyword.
func keywordFilter(jobs []normalizer.NormalizedJob, keywords []string) []normalizer.NormalizedJob {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		lowered = append(lowered, strings.ToLower(k))
	}

	passed := make([]normalizer.NormalizedJob, 0, len(jobs))
	for _, job := range jobs {
		text := jobText(job)
		for _, kw := range lowered {
			if strings.Contains(text, kw) {
				passed = append(passed, job)
				break
			}
		}
	}

	logrus.Infof("Keyword filter: %d / %d jobs passed", len(passed), len(jobs))
	return passed
}

// jobText combines the searchable fields into one lowercase string. Only the
// first 500 chars of the description are scanned for speed.
func jobText(job normalizer.NormalizedJob) string {
	desc := job.Description
	if len(desc) > 500 {
		desc = desc[:500]
	}
	parts := []string{job.Title, job.CompanyName, strings.Join(job.Tags, " "), desc}
	return strings.ToLower(strings.Join(parts, " "))
}
