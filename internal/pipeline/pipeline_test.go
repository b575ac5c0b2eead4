package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leadgen-relay-go/internal/ai"
	"leadgen-relay-go/internal/config"
	"leadgen-relay-go/internal/fetcher"
	"leadgen-relay-go/internal/filter"
	"leadgen-relay-go/internal/metrics"
	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/outreach"
	"leadgen-relay-go/internal/repository"
)

type fakeFetcher struct {
	jobs []fetcher.RawJob
	err  error
}

func (f *fakeFetcher) FetchJobs(ctx context.Context, tags []string, limit int) ([]fetcher.RawJob, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.jobs) > limit {
		return f.jobs[:limit], nil
	}
	return f.jobs, nil
}

type fakeEngine struct {
	qualifyResult *ai.QualificationResult
	qualifyErr    error
	draft         *ai.EmailDraft
	draftErr      error
}

func (f *fakeEngine) QualifyLead(ctx context.Context, in ai.QualifyInput) (*ai.QualificationResult, error) {
	if f.qualifyErr != nil {
		return nil, f.qualifyErr
	}
	return f.qualifyResult, nil
}

func (f *fakeEngine) DraftEmail(ctx context.Context, in ai.DraftInput) (*ai.EmailDraft, error) {
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	if f.draft != nil {
		return f.draft, nil
	}
	return &ai.EmailDraft{Subject: "Hello " + in.CompanyName, Body: "Hi,\nWorth a quick call?"}, nil
}

type testEnv struct {
	service *Service
	repo    *repository.Repository
	db      *gorm.DB
	engine  *fakeEngine
	fetcher *fakeFetcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Company{}, &model.JobPosting{}, &model.Lead{}, &model.OutreachEmail{}))

	repo := repository.New(db)
	jf := &fakeFetcher{}
	engine := &fakeEngine{}
	mailer := outreach.NewMailer(repo, nil, "me@example.com", nil)
	m := metrics.New(prometheus.NewRegistry())
	cfg := config.PipelineConfig{
		MinRelevanceScore: 60,
		MaxJobsPerRun:     50,
		DryRun:            true,
		UseAIKeywords:     false,
		QualifyBatchSize:  20,
		OutreachBatchSize: 20,
	}

	service := NewService(repo, jf, filter.New(nil, "dev tooling"), engine, mailer, m, cfg, "Alex", "me@example.com", nil)

	return &testEnv{service: service, repo: repo, db: db, engine: engine, fetcher: jf}
}

func rawCTOJob() fetcher.RawJob {
	return fetcher.RawJob{
		ID:          "1",
		Position:    "cto",
		Company:     "Acme",
		CompanyLogo: "https://www.acme.com/logo.png",
		URL:         "https://remoteok.com/jobs/1",
		Tags:        []string{"leadership"},
		Description: "<p>Hi</p>",
	}
}

func TestRunIngestion(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{
		rawCTOJob(),
		{ID: "2", Position: "gardener", Company: "Greens", URL: "https://remoteok.com/jobs/2"},
	}

	summary, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.Normalized)
	assert.Equal(t, 1, summary.PassedFilter)
	assert.Equal(t, 1, summary.Saved)
	assert.Equal(t, 0, summary.SkippedDuplicates)
}

func TestRunIngestionDedupIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{rawCTOJob()}

	_, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)

	summary, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Saved)
	assert.Equal(t, 1, summary.SkippedDuplicates)

	var count int64
	env.db.Model(&model.JobPosting{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRunIngestionFetchFailureYieldsEmptySummary(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.err = fmt.Errorf("remoteok unreachable")

	summary, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, summary.Fetched)
	assert.Zero(t, summary.Saved)
	assert.NotEmpty(t, summary.Message)
}

func TestRunQualificationCreatesLead(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{rawCTOJob()}
	_, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)

	env.engine.qualifyResult = &ai.QualificationResult{
		IsQualified:       true,
		RelevanceScore:    85,
		Reason:            "strong signal",
		TargetContactRole: "CTO",
		PainPoints:        []string{"scaling"},
		RawResponse:       `{"is_qualified": true}`,
	}

	summary, err := env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Qualified)
	assert.Equal(t, 0, summary.Rejected)

	leads, err := env.repo.LeadsByStatus(model.LeadStatusQualified, 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 85.0, leads[0].RelevanceScore)
	assert.Equal(t, "CTO", leads[0].ContactRole)
	assert.JSONEq(t, `["scaling"]`, leads[0].PainPoints)

	// Posting processed exactly once; a second run finds nothing.
	summary, err = env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)
}

func TestRunQualificationRejectedStillProcessed(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{rawCTOJob()}
	_, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)

	env.engine.qualifyResult = &ai.QualificationResult{IsQualified: true, RelevanceScore: 40}

	summary, err := env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Rejected)

	count, err := env.repo.CountUnprocessed()
	require.NoError(t, err)
	assert.Zero(t, count)

	leads, err := env.repo.LeadsByStatus(model.LeadStatusQualified, 10)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestRunQualificationTransportErrorIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{rawCTOJob()}
	_, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)

	env.engine.qualifyErr = fmt.Errorf("llm timeout")

	summary, err := env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)
	assert.Equal(t, 1, summary.Rejected)

	// Posting stays unprocessed for the next run.
	count, err := env.repo.CountUnprocessed()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	env.engine.qualifyErr = nil
	env.engine.qualifyResult = &ai.QualificationResult{IsQualified: true, RelevanceScore: 90}

	summary, err = env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Qualified)
}

func TestRunOutreachDryRun(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{rawCTOJob()}
	_, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)
	env.engine.qualifyResult = &ai.QualificationResult{IsQualified: true, RelevanceScore: 85}
	_, err = env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)

	summary, err := env.service.RunOutreach(context.Background(), 0, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Sent)
	assert.Zero(t, summary.Failed)

	// Lead advanced to emailed; audit row recorded as sent to the self address.
	leads, err := env.repo.ListLeads(model.LeadStatusEmailed, 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	history, err := env.repo.OutreachHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.DeliveryStatusSent, history[0].DeliveryStatus)
	require.NotNil(t, history[0].ToAddress)
	assert.Equal(t, "me@example.com", *history[0].ToAddress)
}

func TestRunOutreachDraftFailureLeavesLeadQualified(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{rawCTOJob()}
	_, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)
	env.engine.qualifyResult = &ai.QualificationResult{IsQualified: true, RelevanceScore: 85}
	_, err = env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)

	env.engine.draftErr = fmt.Errorf("llm down")

	summary, err := env.service.RunOutreach(context.Background(), 0, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Sent)

	// Failed attempt leaves the lead qualified and eligible for retry.
	leads, err := env.repo.LeadsByStatus(model.LeadStatusQualified, 10)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestRunOutreachSendFailureLeavesLeadQualified(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{rawCTOJob()}
	_, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)
	env.engine.qualifyResult = &ai.QualificationResult{IsQualified: true, RelevanceScore: 85}
	_, err = env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)

	// Break the audit table so the send fails mid-attempt.
	require.NoError(t, env.db.Migrator().DropTable(&model.OutreachEmail{}))

	summary, err := env.service.RunOutreach(context.Background(), 0, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Sent)

	leads, err := env.repo.LeadsByStatus(model.LeadStatusQualified, 10)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestRunOutreachRealModeWithoutRecipientSkips(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{rawCTOJob()}
	_, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)
	env.engine.qualifyResult = &ai.QualificationResult{IsQualified: true, RelevanceScore: 85}
	_, err = env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)

	summary, err := env.service.RunOutreach(context.Background(), 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Sent)

	// Lead stays qualified, no audit row was created.
	leads, err := env.repo.LeadsByStatus(model.LeadStatusQualified, 10)
	require.NoError(t, err)
	assert.Len(t, leads, 1)

	history, err := env.repo.OutreachHistory(10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRunOutreachForLead(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.jobs = []fetcher.RawJob{rawCTOJob()}
	_, err := env.service.RunIngestion(context.Background(), 0)
	require.NoError(t, err)
	env.engine.qualifyResult = &ai.QualificationResult{IsQualified: true, RelevanceScore: 85}
	_, err = env.service.RunQualification(context.Background(), 0)
	require.NoError(t, err)

	leads, err := env.repo.LeadsByStatus(model.LeadStatusQualified, 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	summary, err := env.service.RunOutreachForLead(context.Background(), leads[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)

	// Now emailed, a second targeted run is rejected.
	_, err = env.service.RunOutreachForLead(context.Background(), leads[0].ID, true)
	assert.ErrorIs(t, err, ErrLeadNotQualified)
}

func TestRunOutreachForLeadNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.RunOutreachForLead(context.Background(), 12345, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
