package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"leadgen-relay-go/internal/ai"
	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/outreach"
)

// RunOutreach drafts and delivers emails for qualified leads, sequentially,
// committing per record. A delivery failure counts and moves on; the lead
// stays qualified and eligible for retry. In dry-run mode the recipient is
// the configured self-address and no transport is touched.
func (s *Service) RunOutreach(ctx context.Context, limit int, dryRun bool) (*OutreachSummary, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.runMu.Unlock()

	if limit <= 0 {
		limit = s.cfg.OutreachBatchSize
	}

	start := time.Now()
	summary := &OutreachSummary{}

	leads, err := s.repo.LeadsByStatus(model.LeadStatusQualified, limit)
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		summary.Message = "no qualified leads awaiting outreach"
		return summary, nil
	}

	logrus.Infof("Running outreach for %d qualified leads (dry_run=%t)", len(leads), dryRun)

	for _, lead := range leads {
		summary.Attempted++
		switch s.reachOut(ctx, lead, dryRun) {
		case outreachSent:
			summary.Sent++
			s.metrics.EmailsSent.Inc()
		case outreachFailed:
			summary.Failed++
			s.metrics.EmailsFailed.Inc()
		case outreachSkipped:
			summary.Skipped++
			s.metrics.EmailsSkipped.Inc()
		}
	}

	s.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	logrus.Infof("Outreach done: attempted=%d sent=%d failed=%d skipped=%d",
		summary.Attempted, summary.Sent, summary.Failed, summary.Skipped)
	return summary, nil
}

// RunOutreachForLead targets one lead by id. The lead must exist
// (repository.ErrNotFound otherwise) and be qualified (ErrLeadNotQualified).
func (s *Service) RunOutreachForLead(ctx context.Context, leadID uint, dryRun bool) (*OutreachSummary, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.runMu.Unlock()

	lead, err := s.repo.LeadByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status != model.LeadStatusQualified {
		return nil, ErrLeadNotQualified
	}

	summary := &OutreachSummary{Attempted: 1}
	switch s.reachOut(ctx, *lead, dryRun) {
	case outreachSent:
		summary.Sent = 1
		s.metrics.EmailsSent.Inc()
	case outreachFailed:
		summary.Failed = 1
		s.metrics.EmailsFailed.Inc()
	case outreachSkipped:
		summary.Skipped = 1
		s.metrics.EmailsSkipped.Inc()
	}
	return summary, nil
}

type outreachResult int

const (
	outreachSent outreachResult = iota
	outreachFailed
	outreachSkipped
)

// reachOut drafts, renders, resolves the recipient, and delivers one email.
// Only a successful delivery advances the lead to emailed.
func (s *Service) reachOut(ctx context.Context, lead model.Lead, dryRun bool) outreachResult {
	companyName := ""
	if lead.Company != nil {
		companyName = lead.Company.Name
	}
	jobTitle := ""
	if lead.JobPosting != nil {
		jobTitle = lead.JobPosting.Title
	}

	var painPoints []string
	if lead.PainPoints != "" {
		if err := json.Unmarshal([]byte(lead.PainPoints), &painPoints); err != nil {
			logrus.Warnf("Ignoring malformed pain points for lead %d: %v", lead.ID, err)
		}
	}

	draft, err := s.engine.DraftEmail(ctx, ai.DraftInput{
		CompanyName: companyName,
		JobTitle:    jobTitle,
		ContactRole: lead.ContactRole,
		Reason:      lead.Reason,
		PainPoints:  painPoints,
	})
	if err != nil {
		logrus.Errorf("Failed to draft email for lead %d: %v", lead.ID, err)
		return outreachFailed
	}

	rendered := outreach.Render(draft.Subject, draft.Body, s.senderName)

	toAddress := s.resolveRecipient(lead, dryRun)
	if toAddress == "" {
		logrus.Warnf("No recipient address for lead %d (%s), skipping", lead.ID, companyName)
		return outreachSkipped
	}

	if err := s.mailer.Send(lead.ID, toAddress, rendered, dryRun); err != nil {
		return outreachFailed
	}

	if err := s.repo.UpdateLeadStatus(lead.ID, model.LeadStatusEmailed); err != nil {
		logrus.Errorf("Failed to mark lead %d as emailed: %v", lead.ID, err)
	}
	return outreachSent
}

// resolveRecipient picks the address to send to. Dry-run always routes to
// the configured self-address. Real sends have no contact discovery yet, so
// a lead without an address is skipped rather than guessed at.
func (s *Service) resolveRecipient(lead model.Lead, dryRun bool) string {
	if dryRun {
		return s.selfAddress
	}
	// TODO: wire a contact enrichment source for real recipient discovery.
	return ""
}
