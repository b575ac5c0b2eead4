package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"leadgen-relay-go/internal/normalizer"
	"leadgen-relay-go/internal/repository"
)

// RunIngestion fetches, normalizes, filters, and stores job postings. A
// duplicate URL counts as a skip, never an error. Fetch failures after
// retries produce an empty summary with an advisory message rather than an
// error, so callers always get counts.
func (s *Service) RunIngestion(ctx context.Context, limit int) (*IngestionSummary, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.runMu.Unlock()

	if limit <= 0 {
		limit = s.cfg.MaxJobsPerRun
	}

	start := time.Now()
	summary := &IngestionSummary{}

	raws, err := s.fetcher.FetchJobs(ctx, nil, limit)
	if err != nil {
		logrus.Errorf("Job fetch failed after retries: %v", err)
		summary.Message = "job board unavailable, try again later"
		return summary, nil
	}
	summary.Fetched = len(raws)
	s.metrics.JobsFetched.Add(float64(len(raws)))

	jobs := normalizer.NormalizeAll(raws)
	summary.Normalized = len(jobs)

	if s.cfg.UseAIKeywords {
		jobs = s.filter.ApplyDynamic(ctx, jobs)
	} else {
		jobs = s.filter.Apply(jobs)
	}
	summary.PassedFilter = len(jobs)

	err = s.repo.Transaction(func(tx *repository.Repository) error {
		for _, job := range jobs {
			exists, err := tx.JobPostingExists(job.JobURL)
			if err != nil {
				return err
			}
			if exists {
				summary.SkippedDuplicates++
				continue
			}

			company, err := tx.GetOrCreateCompany(job)
			if err != nil {
				return err
			}
			if _, err := tx.SaveJobPosting(company.ID, job); err != nil {
				return err
			}
			summary.Saved++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PostingsSaved.Add(float64(summary.Saved))
	s.metrics.PostingsSkipped.Add(float64(summary.SkippedDuplicates))
	s.metrics.ProcessingTime.Observe(time.Since(start).Seconds())

	logrus.Infof("Ingestion done: fetched=%d normalized=%d passed=%d saved=%d skipped=%d",
		summary.Fetched, summary.Normalized, summary.PassedFilter, summary.Saved, summary.SkippedDuplicates)
	return summary, nil
}
