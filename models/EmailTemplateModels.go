package models

import "time"

// Email template types used by the notification digest sender.
const (
	EmailTemplateDigest   = "notification_digest"
	EmailTemplateApproval = "approval_reminder"
)

// EmailTemplate is a stored HTML email body with {{variable}} placeholders.
// One template per type can be marked as the default.
type EmailTemplate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Type      string    `json:"type" gorm:"not null;index"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	BodyHTML  string    `json:"body_html"`
	IsDefault bool      `json:"is_default" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailData carries the substitution variables for a templated email.
type EmailData struct {
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Variables map[string]string `json:"variables"`
}
