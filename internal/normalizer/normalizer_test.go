package normalizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-relay-go/internal/fetcher"
)

func TestNormalizeBasic(t *testing.T) {
	raw := fetcher.RawJob{
		ID:          "1",
		Position:    "cto",
		Company:     "Acme",
		CompanyLogo: "https://www.acme.com/logo.png",
		URL:         "https://remoteok.com/jobs/1",
		Description: "<p>Hiring a CTO to lead &amp; grow the team</p>",
		Tags:        []string{"Leadership", "GOLANG"},
		Epoch:       float64(1700000000),
	}

	job, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "Cto", job.Title)
	assert.Equal(t, "Acme", job.CompanyName)
	assert.Equal(t, "acme.com", job.CompanyDomain)
	assert.Equal(t, "https://remoteok.com/jobs/1", job.JobURL)
	assert.Equal(t, "Hiring a CTO to lead & grow the team", job.Description)
	assert.Equal(t, []string{"leadership", "golang"}, job.Tags)
	assert.Equal(t, "Remote", job.Location)
	require.NotNil(t, job.PostedAt)
	assert.Equal(t, int64(1700000000), job.PostedAt.Unix())
}

func TestNormalizeMissingTitleOrCompany(t *testing.T) {
	_, ok := Normalize(fetcher.RawJob{ID: "1", Company: "Acme"})
	assert.False(t, ok)

	_, ok = Normalize(fetcher.RawJob{ID: "2", Position: "Engineer", Company: "   "})
	assert.False(t, ok)
}

func TestNormalizeTitleCapitalization(t *testing.T) {
	job, ok := Normalize(fetcher.RawJob{ID: "1", Position: "VP OF ENGINEERING", Company: "Acme"})
	require.True(t, ok)
	assert.Equal(t, "Vp Of Engineering", job.Title)
}

func TestNormalizeFallsBackToTitleField(t *testing.T) {
	job, ok := Normalize(fetcher.RawJob{ID: "1", Title: "staff engineer", Company: "Acme"})
	require.True(t, ok)
	assert.Equal(t, "Staff Engineer", job.Title)
}

func TestNormalizeEmptyDescriptionSynthesized(t *testing.T) {
	job, ok := Normalize(fetcher.RawJob{
		ID:       "1",
		Position: "cto",
		Company:  "Acme",
		Tags:     []string{"leadership", "saas"},
	})
	require.True(t, ok)
	assert.Equal(t, "Role: Cto at Acme. Tags: leadership, saas", job.Description)
}

func TestNormalizeDescriptionCap(t *testing.T) {
	job, ok := Normalize(fetcher.RawJob{
		ID:          "1",
		Position:    "cto",
		Company:     "Acme",
		Description: strings.Repeat("a", 6000),
	})
	require.True(t, ok)
	assert.Len(t, job.Description, 4000)
}

func TestNormalizeDescriptionCapKeepsValidUTF8(t *testing.T) {
	job, ok := Normalize(fetcher.RawJob{
		ID:          "1",
		Position:    "cto",
		Company:     "Acme",
		Description: strings.Repeat("a", 3999) + "éé",
	})
	require.True(t, ok)
	assert.True(t, utf8.ValidString(job.Description))
	assert.Len(t, job.Description, 3999)
}

func TestNormalizeBadDates(t *testing.T) {
	job, ok := Normalize(fetcher.RawJob{
		ID:       "1",
		Position: "cto",
		Company:  "Acme",
		Date:     "not-a-date",
	})
	require.True(t, ok)
	assert.Nil(t, job.PostedAt)
}

func TestNormalizeISODate(t *testing.T) {
	job, ok := Normalize(fetcher.RawJob{
		ID:       "1",
		Position: "cto",
		Company:  "Acme",
		Date:     "2024-01-15T10:30:00",
	})
	require.True(t, ok)
	require.NotNil(t, job.PostedAt)
	assert.Equal(t, 2024, job.PostedAt.Year())
}

func TestNormalizeAllSkipsInvalid(t *testing.T) {
	raws := []fetcher.RawJob{
		{ID: "1", Position: "cto", Company: "Acme"},
		{ID: "2", Company: "NoTitle Inc"},
		{ID: "3", Position: "founder", Company: "Beta"},
	}

	jobs := NormalizeAll(raws)
	assert.Len(t, jobs, 2)
	assert.Equal(t, "Acme", jobs[0].CompanyName)
	assert.Equal(t, "Beta", jobs[1].CompanyName)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello World", stripHTML("<div>Hello</div>   <b>World</b>"))
	assert.Equal(t, "a > b", stripHTML("a &gt; b"))
	assert.Equal(t, "", stripHTML(""))
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "acme.com", extractDomain("https://www.acme.com/about"))
	assert.Equal(t, "acme.io", extractDomain("http://acme.io"))
	assert.Equal(t, "", extractDomain(""))
	assert.Equal(t, "", extractDomain("not a url"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Cto", titleCase("CTO"))
	assert.Equal(t, "Head Of Product", titleCase("head of product"))
	assert.Equal(t, "", titleCase("   "))
}
