package outreach

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/repository"
)

// SMTPSender is the slice of the gomail dialer the mailer needs.
type SMTPSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer delivers (or simulates delivering) outreach emails and records an
// audit row per attempt.
type Mailer struct {
	repo   *repository.Repository
	sender SMTPSender
	from   string
	sink   io.Writer // dry-run output
}

// NewMailer creates a Mailer. The sender may be nil when the service runs
// exclusively in dry-run mode.
func NewMailer(repo *repository.Repository, sender SMTPSender, from string, sink io.Writer) *Mailer {
	return &Mailer{
		repo:   repo,
		sender: sender,
		from:   from,
		sink:   sink,
	}
}

// NewDialer builds the gomail SMTP dialer from connection settings.
func NewDialer(host string, port int, username, password string) *gomail.Dialer {
	d := gomail.NewDialer(host, port, username, password)
	d.SSL = port == 465
	return d
}

// Send logs a pending attempt, delivers or simulates, then finalizes the
// same audit row. In dry-run mode the transport is never touched and the
// attempt is recorded as sent. A real transport failure is recorded verbatim
// on the row and returned; the caller decides what happens to the lead.
func (m *Mailer) Send(leadID uint, toAddress string, email RenderedEmail, dryRun bool) error {
	record, err := m.repo.LogOutreachEmail(leadID, &toAddress, email.Subject, email.PlainBody, model.DeliveryStatusPending)
	if err != nil {
		return fmt.Errorf("failed to log outreach attempt: %w", err)
	}

	if dryRun {
		m.printDryRun(toAddress, email)
		if err := m.repo.UpdateEmailDelivery(record.ID, model.DeliveryStatusSent, ""); err != nil {
			return err
		}
		logrus.Infof("DRY RUN: email to %s logged (not sent)", toAddress)
		return nil
	}

	if err := m.deliver(toAddress, email); err != nil {
		if updateErr := m.repo.UpdateEmailDelivery(record.ID, model.DeliveryStatusFailed, err.Error()); updateErr != nil {
			logrus.Errorf("Failed to record delivery failure: %v", updateErr)
		}
		logrus.Errorf("Failed to send email to %s: %v", toAddress, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	if err := m.repo.UpdateEmailDelivery(record.ID, model.DeliveryStatusSent, ""); err != nil {
		return err
	}
	logrus.Infof("Email sent to %s (lead_id=%d)", toAddress, leadID)
	return nil
}

// deliver transmits the message over SMTP. Plain text is attached first,
// HTML second; clients prefer the last alternative.
func (m *Mailer) deliver(toAddress string, email RenderedEmail) error {
	if m.sender == nil {
		return fmt.Errorf("no SMTP sender configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toAddress)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.PlainBody)
	msg.AddAlternative("text/html", email.HTMLBody)

	return m.sender.DialAndSend(msg)
}

func (m *Mailer) printDryRun(toAddress string, email RenderedEmail) {
	if m.sink == nil {
		return
	}
	separator := strings.Repeat("-", 60)
	fmt.Fprintf(m.sink, "\n%s\n", separator)
	fmt.Fprintf(m.sink, "  DRY RUN: email not sent\n")
	fmt.Fprintf(m.sink, "%s\n", separator)
	fmt.Fprintf(m.sink, "  To      : %s\n", toAddress)
	fmt.Fprintf(m.sink, "  Subject : %s\n", email.Subject)
	fmt.Fprintf(m.sink, "%s\n", separator)
	fmt.Fprintf(m.sink, "%s\n%s\n\n", email.PlainBody, separator)
}
