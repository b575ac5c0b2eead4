package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"leadgen-relay-go/internal/ai"
	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/repository"
)

// postingOutcome is the per-posting result of a qualification pass.
type postingOutcome int

const (
	outcomeQualified postingOutcome = iota
	outcomeRejected
	outcomeRetryable
)

// RunQualification processes a bounded batch of unprocessed postings, oldest
// first, strictly sequentially. Each posting ends in exactly one of three
// outcomes: qualified (lead created), rejected, or retryable failure. Only a
// retryable failure leaves the processed flag unset so the posting is picked
// up again next run.
func (s *Service) RunQualification(ctx context.Context, limit int) (*QualificationSummary, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.runMu.Unlock()

	if limit <= 0 {
		limit = s.cfg.QualifyBatchSize
	}

	start := time.Now()
	summary := &QualificationSummary{}

	postings, err := s.repo.UnprocessedPostings(limit)
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		logrus.Info("No unprocessed job postings found")
		summary.Message = "no unprocessed postings"
		return summary, nil
	}

	logrus.Infof("Processing %d job postings through AI qualification", len(postings))

	for _, posting := range postings {
		outcome := s.qualifyPosting(ctx, posting)
		switch outcome {
		case outcomeQualified:
			summary.Processed++
			summary.Qualified++
			s.metrics.LeadsQualified.Inc()
		case outcomeRejected:
			summary.Processed++
			summary.Rejected++
			s.metrics.LeadsRejected.Inc()
		case outcomeRetryable:
			// Posting stays unprocessed and will be retried next run.
			summary.Rejected++
			s.metrics.LeadsRejected.Inc()
		}
	}

	s.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	logrus.Infof("Qualification done: processed=%d qualified=%d rejected=%d",
		summary.Processed, summary.Qualified, summary.Rejected)
	return summary, nil
}

// qualifyPosting runs one posting through the LLM and persists the result.
// The processed-flag update and lead creation share one transaction, so a
// storage failure rolls both back and the posting remains retryable.
func (s *Service) qualifyPosting(ctx context.Context, posting model.JobPosting) postingOutcome {
	companyName := ""
	location := ""
	if posting.Company != nil {
		companyName = posting.Company.Name
		location = posting.Company.Location
	}

	result, err := s.engine.QualifyLead(ctx, ai.QualifyInput{
		CompanyName:    companyName,
		JobTitle:       posting.Title,
		JobDescription: posting.Description,
		Location:       location,
	})
	if err != nil {
		logrus.Errorf("Error qualifying posting %d (%s): %v", posting.ID, posting.Title, err)
		return outcomeRetryable
	}

	accepted := Accept(result, s.cfg.MinRelevanceScore)

	err = s.repo.Transaction(func(tx *repository.Repository) error {
		if err := tx.MarkPostingProcessed(posting.ID); err != nil {
			return err
		}
		if !accepted {
			return nil
		}

		painPoints, err := json.Marshal(result.PainPoints)
		if err != nil {
			return err
		}
		_, err = tx.CreateLead(repository.LeadInput{
			CompanyID:      posting.CompanyID,
			JobPostingID:   posting.ID,
			RelevanceScore: result.RelevanceScore,
			Reason:         result.Reason,
			AIAnalysis:     result.RawResponse,
			ContactRole:    result.TargetContactRole,
			PainPoints:     string(painPoints),
		})
		if errors.Is(err, repository.ErrDuplicateLead) {
			logrus.Warnf("Lead already exists for posting %d, keeping the existing one", posting.ID)
			accepted = false
			return nil
		}
		return err
	})
	if err != nil {
		logrus.Errorf("Error persisting qualification for posting %d: %v", posting.ID, err)
		return outcomeRetryable
	}

	if accepted {
		logrus.Infof("Qualified: %s @ %s (score=%.1f)", posting.Title, companyName, result.RelevanceScore)
		return outcomeQualified
	}
	logrus.Infof("Rejected: %s @ %s (score=%.1f)", posting.Title, companyName, result.RelevanceScore)
	return outcomeRejected
}
