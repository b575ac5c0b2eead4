package model

import (
	"time"
)

// LeadStatus tracks a lead through the outreach lifecycle.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusEmailed   LeadStatus = "emailed"
	LeadStatusReplied   LeadStatus = "replied"
	LeadStatusRejected  LeadStatus = "rejected"
)

// Valid reports whether the value is one of the known lead statuses.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusQualified, LeadStatusEmailed, LeadStatusReplied, LeadStatusRejected:
		return true
	}
	return false
}

// DeliveryStatus tracks the outcome of a single email delivery attempt.
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// Company represents a hiring company discovered through job postings
type Company struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;index"`
	Domain    *string   `json:"domain" gorm:"type:varchar(255);uniqueIndex"`
	Location  string    `json:"location" gorm:"type:varchar(255)"`
	Website   string    `json:"website" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	JobPostings []JobPosting `json:"job_postings,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	Leads       []Lead       `json:"leads,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Company
func (Company) TableName() string {
	return "companies"
}

// JobPosting represents one job ad fetched from a job board. The URL is the
// sole dedup key: a posting seen twice is stored once.
type JobPosting struct {
	ID          uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID   uint       `json:"company_id" gorm:"not null;index"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	Description string     `json:"description" gorm:"type:text"`
	URL         string     `json:"url" gorm:"type:varchar(512);not null;uniqueIndex"`
	Source      string     `json:"source" gorm:"type:varchar(50);default:remoteok"`
	PostedAt    *time.Time `json:"posted_at"`
	IsProcessed bool       `json:"is_processed" gorm:"default:false;index"`
	CreatedAt   time.Time  `json:"created_at"`

	// Relationship
	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

// TableName specifies the table name for JobPosting
func (JobPosting) TableName() string {
	return "job_postings"
}

// Lead represents a qualified (or formerly qualified) sales lead derived
// from a job posting.
type Lead struct {
	ID             uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	CompanyID      uint       `json:"company_id" gorm:"not null;index"`
	JobPostingID   *uint      `json:"job_posting_id" gorm:"index"`
	Status         LeadStatus `json:"status" gorm:"type:varchar(20);not null;default:new;index"`
	RelevanceScore float64    `json:"relevance_score"`
	Reason         string     `json:"reason" gorm:"type:text"`
	AIAnalysis     string     `json:"ai_analysis" gorm:"type:text"`
	ContactRole    string     `json:"contact_role" gorm:"type:varchar(255)"`
	PainPoints     string     `json:"pain_points" gorm:"type:text"` // JSON array of strings
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relationships
	Company    *Company    `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	JobPosting *JobPosting `json:"job_posting,omitempty" gorm:"foreignKey:JobPostingID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

// OutreachEmail is an immutable audit row for one delivery attempt. Retrying
// a lead produces a new row; rows are never deleted.
type OutreachEmail struct {
	ID             uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	LeadID         uint           `json:"lead_id" gorm:"not null;index"`
	ToAddress      *string        `json:"to_address" gorm:"type:varchar(255)"`
	Subject        string         `json:"subject" gorm:"type:varchar(512)"`
	Body           string         `json:"body" gorm:"type:text"`
	DeliveryStatus DeliveryStatus `json:"delivery_status" gorm:"type:varchar(20);not null;default:pending;index"`
	ErrorMessage   string         `json:"error_message" gorm:"type:text"`
	SentAt         *time.Time     `json:"sent_at"`
	CreatedAt      time.Time      `json:"created_at"`

	// Relationship
	Lead *Lead `json:"lead,omitempty" gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for OutreachEmail
func (OutreachEmail) TableName() string {
	return "outreach_emails"
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Metrics   map[string]string `json:"metrics,omitempty"`
}
