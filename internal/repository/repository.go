package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"leadgen-relay-go/internal/model"
	"leadgen-relay-go/internal/normalizer"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateLead is returned when a lead already references the posting.
	ErrDuplicateLead = errors.New("lead already exists for this job posting")
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Transaction runs fn inside a database transaction with a transaction-scoped
// repository.
func (r *Repository) Transaction(fn func(tx *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// GetOrCreateCompany resolves the company for a normalized job. A posting
// with a domain matches on that domain only; a miss creates a new row
// carrying it, so the same display name on two domains stays two companies.
// The name lookup applies only to postings without a domain.
func (r *Repository) GetOrCreateCompany(job normalizer.NormalizedJob) (*model.Company, error) {
	var company model.Company

	if job.CompanyDomain != "" {
		result := r.db.Where("domain = ?", job.CompanyDomain).First(&company)
		if result.Error == nil {
			return &company, nil
		}
		if result.Error != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("database error looking up company by domain: %w", result.Error)
		}
	} else {
		result := r.db.Where("name = ?", job.CompanyName).First(&company)
		if result.Error == nil {
			return &company, nil
		}
		if result.Error != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("database error looking up company by name: %w", result.Error)
		}
	}

	company = model.Company{
		Name:     job.CompanyName,
		Location: job.Location,
		Website:  job.CompanyURL,
	}
	if job.CompanyDomain != "" {
		domain := job.CompanyDomain
		company.Domain = &domain
	}

	if err := r.db.Create(&company).Error; err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return &company, nil
}

// JobPostingExists reports whether a posting with this URL is already stored.
func (r *Repository) JobPostingExists(url string) (bool, error) {
	var posting model.JobPosting
	result := r.db.Where("url = ?", url).First(&posting)
	if result.Error == nil {
		return true, nil
	}
	if result.Error == gorm.ErrRecordNotFound {
		return false, nil
	}
	return false, fmt.Errorf("database error checking job posting: %w", result.Error)
}

// SaveJobPosting stores a normalized job under the given company.
func (r *Repository) SaveJobPosting(companyID uint, job normalizer.NormalizedJob) (*model.JobPosting, error) {
	posting := model.JobPosting{
		CompanyID:   companyID,
		Title:       job.Title,
		Description: job.Description,
		URL:         job.JobURL,
		Source:      job.Source,
		PostedAt:    job.PostedAt,
	}
	if err := r.db.Create(&posting).Error; err != nil {
		return nil, fmt.Errorf("failed to save job posting: %w", err)
	}
	return &posting, nil
}

// UnprocessedPostings returns up to limit unprocessed postings, oldest first,
// with the company preloaded.
func (r *Repository) UnprocessedPostings(limit int) ([]model.JobPosting, error) {
	var postings []model.JobPosting
	result := r.db.Preload("Company").
		Where("is_processed = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&postings)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get unprocessed postings: %w", result.Error)
	}
	return postings, nil
}

// CountUnprocessed returns how many postings still await qualification.
func (r *Repository) CountUnprocessed() (int64, error) {
	var count int64
	result := r.db.Model(&model.JobPosting{}).Where("is_processed = ?", false).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count unprocessed postings: %w", result.Error)
	}
	return count, nil
}

// MarkPostingProcessed flips the posting's processed flag. The flag never
// goes back to false.
func (r *Repository) MarkPostingProcessed(postingID uint) error {
	result := r.db.Model(&model.JobPosting{}).Where("id = ?", postingID).Update("is_processed", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark posting as processed: %w", result.Error)
	}
	return nil
}

// LeadInput carries the qualification data for a new lead.
type LeadInput struct {
	CompanyID      uint
	JobPostingID   uint
	RelevanceScore float64
	Reason         string
	AIAnalysis     string
	ContactRole    string
	PainPoints     string // JSON array of strings
}

// CreateLead stores a qualified lead. At most one lead may reference a given
// job posting; a second create for the same posting returns ErrDuplicateLead.
func (r *Repository) CreateLead(in LeadInput) (*model.Lead, error) {
	var existing model.Lead
	result := r.db.Where("job_posting_id = ?", in.JobPostingID).First(&existing)
	if result.Error == nil {
		return nil, ErrDuplicateLead
	}
	if result.Error != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("database error checking existing lead: %w", result.Error)
	}

	postingID := in.JobPostingID
	lead := model.Lead{
		CompanyID:      in.CompanyID,
		JobPostingID:   &postingID,
		Status:         model.LeadStatusQualified,
		RelevanceScore: in.RelevanceScore,
		Reason:         in.Reason,
		AIAnalysis:     in.AIAnalysis,
		ContactRole:    in.ContactRole,
		PainPoints:     in.PainPoints,
	}
	if err := r.db.Create(&lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return &lead, nil
}

// LeadByID fetches one lead with its company and posting.
func (r *Repository) LeadByID(id uint) (*model.Lead, error) {
	var lead model.Lead
	result := r.db.Preload("Company").Preload("JobPosting").First(&lead, id)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get lead: %w", result.Error)
	}
	return &lead, nil
}

// LeadsByStatus returns up to limit leads in the given status, oldest first.
func (r *Repository) LeadsByStatus(status model.LeadStatus, limit int) ([]model.Lead, error) {
	var leads []model.Lead
	result := r.db.Preload("Company").Preload("JobPosting").
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&leads)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get leads by status: %w", result.Error)
	}
	return leads, nil
}

// ListLeads returns leads newest first, optionally filtered by status.
func (r *Repository) ListLeads(status model.LeadStatus, limit int) ([]model.Lead, error) {
	query := r.db.Preload("Company").Preload("JobPosting").Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var leads []model.Lead
	if err := query.Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// UpdateLeadStatus overwrites the lead's status. Any value may replace any
// other; this backs the manual override endpoint as well as the pipeline.
func (r *Repository) UpdateLeadStatus(leadID uint, status model.LeadStatus) error {
	result := r.db.Model(&model.Lead{}).Where("id = ?", leadID).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update lead status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LeadStats returns lead counts grouped by status.
func (r *Repository) LeadStats() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	result := r.db.Model(&model.Lead{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get lead stats: %w", result.Error)
	}

	stats := make(map[string]int64, len(rows))
	for _, r := range rows {
		stats[r.Status] = r.Count
	}
	return stats, nil
}

// LogOutreachEmail records a delivery attempt in the given status.
func (r *Repository) LogOutreachEmail(leadID uint, toAddress *string, subject, body string, status model.DeliveryStatus) (*model.OutreachEmail, error) {
	email := model.OutreachEmail{
		LeadID:         leadID,
		ToAddress:      toAddress,
		Subject:        subject,
		Body:           body,
		DeliveryStatus: status,
	}
	if err := r.db.Create(&email).Error; err != nil {
		return nil, fmt.Errorf("failed to log outreach email: %w", err)
	}
	return &email, nil
}

// UpdateEmailDelivery moves an outreach email row to its final delivery
// status, stamping SentAt on success and keeping the transport error verbatim
// on failure.
func (r *Repository) UpdateEmailDelivery(emailID uint, status model.DeliveryStatus, errorMessage string) error {
	updates := map[string]any{
		"delivery_status": status,
		"error_message":   errorMessage,
	}
	if status == model.DeliveryStatusSent {
		now := time.Now()
		updates["sent_at"] = &now
	}
	result := r.db.Model(&model.OutreachEmail{}).Where("id = ?", emailID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update email delivery status: %w", result.Error)
	}
	return nil
}

// OutreachHistory returns recent delivery attempts, newest first.
func (r *Repository) OutreachHistory(limit int) ([]model.OutreachEmail, error) {
	var emails []model.OutreachEmail
	result := r.db.Preload("Lead").Preload("Lead.Company").
		Order("created_at DESC").
		Limit(limit).
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get outreach history: %w", result.Error)
	}
	return emails, nil
}

// EmailedLeadsWithSubjects returns, per emailed lead, the subjects of its
// sent outreach emails. Used by reply detection to match inbox subjects.
func (r *Repository) EmailedLeadsWithSubjects() (map[uint][]string, error) {
	var emails []model.OutreachEmail
	result := r.db.
		Joins("JOIN leads ON leads.id = outreach_emails.lead_id").
		Where("leads.status = ? AND outreach_emails.delivery_status = ?",
			model.LeadStatusEmailed, model.DeliveryStatusSent).
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get emailed leads: %w", result.Error)
	}

	subjects := make(map[uint][]string)
	for _, email := range emails {
		subjects[email.LeadID] = append(subjects[email.LeadID], email.Subject)
	}
	return subjects, nil
}
