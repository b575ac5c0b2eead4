package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedBody = `[
	{"legal": "API terms apply"},
	{"id": 1, "position": "CTO", "company": "Acme", "url": "https://remoteok.com/jobs/1", "tags": ["exec"]},
	{"id": "2", "position": "Founder", "company": "Beta", "url": "https://remoteok.com/jobs/2"},
	{"id": 3, "position": "Engineer", "company": "Gamma", "url": "https://remoteok.com/jobs/3"}
]`

func TestFetchJobsSkipsLegalNotice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(feedBody))
	}))
	defer server.Close()

	f := NewRemoteOKFetcherWithURL(server.URL)
	jobs, err := f.FetchJobs(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "1", jobs[0].ExternalID())
	assert.Equal(t, "2", jobs[1].ExternalID())
	assert.Equal(t, "CTO", jobs[0].Position)
}

func TestFetchJobsAppliesLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedBody))
	}))
	defer server.Close()

	f := NewRemoteOKFetcherWithURL(server.URL)
	jobs, err := f.FetchJobs(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestFetchJobsTagsQuery(t *testing.T) {
	var gotTags string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTags = r.URL.Query().Get("tags")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	f := NewRemoteOKFetcherWithURL(server.URL)
	_, err := f.FetchJobs(context.Background(), []string{"golang", "cto"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "golang,cto", gotTags)
}

func TestFetchJobsRetriesOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(feedBody))
	}))
	defer server.Close()

	f := NewRemoteOKFetcherWithURL(server.URL)
	jobs, err := f.FetchJobs(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, jobs, 3)
}

func TestFetchJobsExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewRemoteOKFetcherWithURL(server.URL)
	_, err := f.FetchJobs(context.Background(), nil, 0)
	assert.Error(t, err)
}

func TestExternalID(t *testing.T) {
	assert.Equal(t, "42", RawJob{ID: float64(42)}.ExternalID())
	assert.Equal(t, "abc", RawJob{ID: "abc"}.ExternalID())
	assert.Equal(t, "", RawJob{}.ExternalID())
}
