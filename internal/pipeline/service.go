package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"leadgen-relay-go/internal/ai"
	"leadgen-relay-go/internal/config"
	"leadgen-relay-go/internal/fetcher"
	"leadgen-relay-go/internal/filter"
	"leadgen-relay-go/internal/metrics"
	"leadgen-relay-go/internal/outreach"
	"leadgen-relay-go/internal/repository"
)

var (
	// ErrBusy is returned when a pipeline stage is already running.
	ErrBusy = errors.New("a pipeline run is already in progress")
	// ErrLeadNotQualified is returned when outreach targets a lead outside
	// the qualified status.
	ErrLeadNotQualified = errors.New("lead is not in qualified status")
)

// Engine is the slice of the AI processor the pipeline needs.
type Engine interface {
	QualifyLead(ctx context.Context, in ai.QualifyInput) (*ai.QualificationResult, error)
	DraftEmail(ctx context.Context, in ai.DraftInput) (*ai.EmailDraft, error)
}

// ReplyChecker polls the inbox for replies to sent outreach.
type ReplyChecker interface {
	CheckReplies(ctx context.Context) (int, error)
}

// IngestionSummary reports the outcome of one ingestion run.
type IngestionSummary struct {
	Fetched           int    `json:"fetched"`
	Normalized        int    `json:"normalized"`
	PassedFilter      int    `json:"passed_filter"`
	Saved             int    `json:"saved"`
	SkippedDuplicates int    `json:"skipped_duplicates"`
	Message           string `json:"message,omitempty"`
}

// QualificationSummary reports the outcome of one qualification run.
type QualificationSummary struct {
	Processed int    `json:"processed"`
	Qualified int    `json:"qualified"`
	Rejected  int    `json:"rejected"`
	Message   string `json:"message,omitempty"`
}

// OutreachSummary reports the outcome of one outreach run.
type OutreachSummary struct {
	Attempted int    `json:"attempted"`
	Sent      int    `json:"sent"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Message   string `json:"message,omitempty"`
}

// Service orchestrates the ingestion, qualification, and outreach stages.
// A shared non-blocking lock keeps the stages single-writer: a second
// concurrent invocation fails fast with ErrBusy instead of racing on the
// unprocessed queue.
type Service struct {
	repo        *repository.Repository
	fetcher     fetcher.JobFetcher
	filter      *filter.Filter
	engine      Engine
	mailer      *outreach.Mailer
	metrics     *metrics.Metrics
	cfg         config.PipelineConfig
	senderName  string
	selfAddress string
	replies     ReplyChecker

	runMu sync.Mutex
}

// NewService creates the pipeline service. The reply checker may be nil when
// IMAP is not configured.
func NewService(
	repo *repository.Repository,
	jobFetcher fetcher.JobFetcher,
	jobFilter *filter.Filter,
	engine Engine,
	mailer *outreach.Mailer,
	m *metrics.Metrics,
	cfg config.PipelineConfig,
	senderName string,
	selfAddress string,
	replies ReplyChecker,
) *Service {
	return &Service{
		repo:        repo,
		fetcher:     jobFetcher,
		filter:      jobFilter,
		engine:      engine,
		mailer:      mailer,
		metrics:     m,
		cfg:         cfg,
		senderName:  senderName,
		selfAddress: selfAddress,
		replies:     replies,
	}
}

// acquire takes the single-writer lock without blocking.
func (s *Service) acquire() error {
	if !s.runMu.TryLock() {
		return ErrBusy
	}
	return nil
}

// RunCycle runs the full pipeline end to end: ingest, qualify, outreach,
// then reply check. Used by the scheduler; each stage takes the run lock
// itself, so a manual trigger racing the cycle loses cleanly.
func (s *Service) RunCycle(ctx context.Context) {
	if _, err := s.RunIngestion(ctx, s.cfg.MaxJobsPerRun); err != nil {
		logrus.Errorf("Scheduled ingestion failed: %v", err)
		return
	}
	if _, err := s.RunQualification(ctx, s.cfg.QualifyBatchSize); err != nil {
		logrus.Errorf("Scheduled qualification failed: %v", err)
		return
	}
	if _, err := s.RunOutreach(ctx, s.cfg.OutreachBatchSize, s.cfg.DryRun); err != nil {
		logrus.Errorf("Scheduled outreach failed: %v", err)
		return
	}
	if s.replies != nil {
		if _, err := s.CheckReplies(ctx); err != nil {
			logrus.Errorf("Scheduled reply check failed: %v", err)
		}
	}
}

// CheckReplies polls the inbox and marks replied leads.
func (s *Service) CheckReplies(ctx context.Context) (int, error) {
	if s.replies == nil {
		return 0, errors.New("reply checking is not configured")
	}
	if err := s.acquire(); err != nil {
		return 0, err
	}
	defer s.runMu.Unlock()

	return s.replies.CheckReplies(ctx)
}
