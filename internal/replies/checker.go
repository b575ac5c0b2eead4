package replies

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"github.com/sirupsen/logrus"

	"leadgen-relay-go/internal/config"
	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/repository"
)

// Checker polls the sender's inbox over IMAP and marks leads whose outreach
// received a reply.
type Checker struct {
	cfg       *config.IMAPConfig
	repo      *repository.Repository
	lastCheck time.Time
}

// NewChecker creates a reply checker. The first check scans the last 7 days.
func NewChecker(cfg *config.IMAPConfig, repo *repository.Repository) *Checker {
	return &Checker{
		cfg:       cfg,
		repo:      repo,
		lastCheck: time.Now().Add(-7 * 24 * time.Hour),
	}
}

// CheckReplies connects to the inbox, scans messages since the last check,
// and marks leads replied when an inbox subject matches a sent outreach
// subject. Returns the number of leads newly marked replied.
func (c *Checker) CheckReplies(ctx context.Context) (int, error) {
	sentSubjects, err := c.repo.EmailedLeadsWithSubjects()
	if err != nil {
		return 0, err
	}
	if len(sentSubjects) == 0 {
		logrus.Info("No emailed leads to check for replies")
		c.lastCheck = time.Now()
		return 0, nil
	}

	subjects, err := c.fetchInboxSubjects()
	if err != nil {
		return 0, err
	}

	marked := 0
	for leadID, outreachSubjects := range sentSubjects {
		for _, inboxSubject := range subjects {
			if !MatchesOutreach(inboxSubject, outreachSubjects) {
				continue
			}
			if err := c.repo.UpdateLeadStatus(leadID, model.LeadStatusReplied); err != nil {
				logrus.Errorf("Failed to mark lead %d as replied: %v", leadID, err)
				continue
			}
			logrus.Infof("Lead %d replied (subject: %s)", leadID, inboxSubject)
			marked++
			break
		}
	}

	c.lastCheck = time.Now()
	return marked, nil
}

// fetchInboxSubjects returns the subjects of inbox messages received since
// the last check.
func (c *Checker) fetchInboxSubjects() ([]string, error) {
	imapClient, err := client.DialTLS(fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer imapClient.Logout()

	if err := imapClient.Login(c.cfg.User, c.cfg.Password); err != nil {
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	if _, err := imapClient.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = c.lastCheck

	uids, err := imapClient.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)

	go func() {
		done <- imapClient.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchBody}, messages)
	}()

	var subjects []string
	for msg := range messages {
		if msg.Envelope == nil {
			continue
		}
		subjects = append(subjects, msg.Envelope.Subject)

		if body := extractTextBody(msg); body != "" {
			logrus.Debugf("Reply snippet for %q: %.120s", msg.Envelope.Subject, body)
		}
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return subjects, nil
}

// extractTextBody pulls the text/plain part out of a fetched message, best
// effort only.
func extractTextBody(msg *imap.Message) string {
	section := &imap.BodySectionName{}
	r := msg.GetBody(section)
	if r == nil {
		return ""
	}

	entity, err := message.Read(r)
	if err != nil {
		return ""
	}

	if mr := entity.MultipartReader(); mr != nil {
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return ""
			}
			if strings.Contains(p.Header.Get("Content-Type"), "text/plain") {
				content, err := io.ReadAll(p.Body)
				if err != nil {
					return ""
				}
				return string(content)
			}
		}
		return ""
	}

	if strings.Contains(entity.Header.Get("Content-Type"), "text/plain") {
		content, err := io.ReadAll(entity.Body)
		if err != nil {
			return ""
		}
		return string(content)
	}
	return ""
}

// MatchesOutreach reports whether an inbox subject is a reply to any of the
// sent outreach subjects. Reply and forward prefixes are stripped before the
// case-insensitive comparison.
func MatchesOutreach(inboxSubject string, sentSubjects []string) bool {
	normalized := NormalizeSubject(inboxSubject)
	if normalized == "" {
		return false
	}
	for _, sent := range sentSubjects {
		if strings.EqualFold(normalized, NormalizeSubject(sent)) {
			return true
		}
	}
	return false
}

// NormalizeSubject strips any leading Re:/Fw:/Fwd: prefixes and surrounding
// whitespace.
func NormalizeSubject(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		lower := strings.ToLower(s)
		trimmed := s
		for _, prefix := range []string{"re:", "fw:", "fwd:"} {
			if strings.HasPrefix(lower, prefix) {
				trimmed = strings.TrimSpace(s[len(prefix):])
				break
			}
		}
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}
