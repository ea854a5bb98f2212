package models

import "time"

// Notification types produced by the scan rules plus manually raised kinds.
const (
	NotifyApprovalPending = "APPROVAL_PENDING"
	NotifyApprovalOverdue = "APPROVAL_OVERDUE"
	NotifyWorkComplete    = "WORK_COMPLETE"
	NotifyPoMissing       = "PO_MISSING"
	NotifyIncompleteData  = "INCOMPLETE_DATA"
	NotifyPaymentPending  = "PAYMENT_PENDING"
	NotifyGeneral         = "GENERAL"
)

// Notification priorities
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// Notification is a system-generated advisory attached to a Job. The
// generator keeps at most one unread notification of a given type per job;
// the table itself does not enforce that.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	JobID       uint      `json:"job_id" gorm:"index"`
	QuoteNo     string    `json:"quote_no"`
	Type        string    `json:"type" gorm:"not null;index"`
	Priority    string    `json:"priority" gorm:"not null;default:LOW"`
	Message     string    `json:"message"`
	DaysElapsed int       `json:"days_elapsed"`
	IsRead      bool      `json:"is_read" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NotificationCounts reports how many advisories each scan rule created.
type NotificationCounts struct {
	ApprovalDelays int `json:"approval_delays"`
	WorkflowGaps   int `json:"workflow_gaps"`
	IncompleteData int `json:"incomplete_data"`
	Total          int `json:"total"`
}
