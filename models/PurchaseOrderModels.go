package models

import "time"

// Invoice statuses tracked on the finance record
const (
	InvoiceNotSubmitted = "NOT_SUBMITTED"
	InvoiceSubmitted    = "SUBMITTED"
	InvoicePaid         = "PAID"
	InvoicePartial      = "PARTIAL"
	InvoiceUnpaid       = "UNPAID"
	InvoicePending      = "PENDING"
	InvoiceCancelled    = "CANCELLED"
	InvoiceEW           = "EW"
)

// PurchaseOrder belongs to a Job. The schema allows many per job but the
// application treats it as one; the job service upserts a single row.
type PurchaseOrder struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	JobID     uint       `json:"job_id" gorm:"not null;index"`
	PoNo      string     `json:"po_no" gorm:"uniqueIndex"`
	PoAmount  float64    `json:"po_amount"`
	VatAmount float64    `json:"vat_amount"`
	ETA       *time.Time `json:"eta"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Finance *Finance `json:"finance" gorm:"foreignKey:PoNo;references:PoNo"`
}

// Finance tracks money actually received against a purchase order, keyed by
// po_no one-to-one. Distinct from the Job's grand_total, which is money owed.
type Finance struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	PoNo           string     `json:"po_no" gorm:"uniqueIndex;not null"`
	InvoiceStatus  string     `json:"invoice_status" gorm:"not null;default:NOT_SUBMITTED"`
	ReceivedAmount float64    `json:"received_amount"`
	AdvanceAmount  float64    `json:"advance_amount"`
	PaymentDate    *time.Time `json:"payment_date"`
	PaymentRef     string     `json:"payment_ref"`
	Remarks        string     `json:"remarks"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
