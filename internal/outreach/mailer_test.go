package outreach

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/repository"
)

type fakeSender struct {
	err   error
	calls int
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.calls++
	return f.err
}

func setupMailerTest(t *testing.T) (*repository.Repository, uint) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Company{}, &model.JobPosting{}, &model.Lead{}, &model.OutreachEmail{}))

	company := model.Company{Name: "Acme"}
	require.NoError(t, db.Create(&company).Error)
	lead := model.Lead{CompanyID: company.ID, Status: model.LeadStatusQualified, RelevanceScore: 80}
	require.NoError(t, db.Create(&lead).Error)

	return repository.New(db), lead.ID
}

func TestSendDryRunNeverTouchesTransport(t *testing.T) {
	repo, leadID := setupMailerTest(t)

	sender := &fakeSender{}
	var sink bytes.Buffer
	mailer := NewMailer(repo, sender, "me@example.com", &sink)

	email := Render("Subject", "Body", "Alex")
	err := mailer.Send(leadID, "me@example.com", email, true)
	require.NoError(t, err)

	assert.Zero(t, sender.calls)
	assert.Contains(t, sink.String(), "DRY RUN")
	assert.Contains(t, sink.String(), "Subject")

	history, err := repo.OutreachHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.DeliveryStatusSent, history[0].DeliveryStatus)
	assert.Empty(t, history[0].ErrorMessage)
}

func TestSendDryRunWorksWithoutSender(t *testing.T) {
	repo, leadID := setupMailerTest(t)

	mailer := NewMailer(repo, nil, "me@example.com", nil)
	err := mailer.Send(leadID, "me@example.com", Render("S", "B", "Alex"), true)
	assert.NoError(t, err)
}

func TestSendSuccess(t *testing.T) {
	repo, leadID := setupMailerTest(t)

	sender := &fakeSender{}
	mailer := NewMailer(repo, sender, "me@example.com", nil)

	err := mailer.Send(leadID, "cto@acme.com", Render("Subject", "Body", "Alex"), false)
	require.NoError(t, err)
	assert.Equal(t, 1, sender.calls)

	history, err := repo.OutreachHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.DeliveryStatusSent, history[0].DeliveryStatus)
	assert.NotNil(t, history[0].SentAt)
}

func TestSendFailureRecordsVerbatimError(t *testing.T) {
	repo, leadID := setupMailerTest(t)

	sender := &fakeSender{err: fmt.Errorf("smtp: connection reset")}
	mailer := NewMailer(repo, sender, "me@example.com", nil)

	err := mailer.Send(leadID, "cto@acme.com", Render("Subject", "Body", "Alex"), false)
	require.Error(t, err)

	history, err := repo.OutreachHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.DeliveryStatusFailed, history[0].DeliveryStatus)
	assert.Equal(t, "smtp: connection reset", history[0].ErrorMessage)
	assert.Nil(t, history[0].SentAt)

	// The lead row is untouched by a transport failure.
	lead, err := repo.LeadByID(leadID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusQualified, lead.Status)
}
