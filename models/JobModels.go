package models

import (
	"time"

	"gorm.io/gorm"
)

// Quote lifecycle statuses (business approval flow)
const (
	QuoteStatusIntake    = "INTAKE"
	QuoteStatusPreview   = "PREVIEW"
	QuoteStatusDraft     = "DRAFT"
	QuoteStatusSent      = "SENT"
	QuoteStatusRevised   = "REVISED"
	QuoteStatusApproved  = "APPROVED"
	QuoteStatusRejected  = "REJECTED"
	QuoteStatusCompleted = "COMPLETED"
)

// Work execution statuses, independent of quote status
const (
	WorkStatusNotStarted = "NOT_STARTED"
	WorkStatusInProgress = "IN_PROGRESS"
	WorkStatusDone       = "DONE"
	WorkStatusCancelled  = "CANCELLED"
)

// Image tagging
const (
	ImageTypeBefore = "BEFORE"
	ImageTypeAfter  = "AFTER"

	MediaKindImage    = "image"
	MediaKindVideo    = "video"
	MediaKindDocument = "document"
)

// Job is the quotation entity. A quote number can have many revisions; the
// pair (quote_no, revision_no) is unique and exactly one row per quote number
// carries is_latest = true. Store fields are snapshotted at creation so old
// quotes keep their original site context.
type Job struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuoteNo    string `json:"quote_no" gorm:"not null;uniqueIndex:idx_quote_no_revision,priority:1"`
	RevisionNo int    `json:"revision_no" gorm:"not null;default:0;uniqueIndex:idx_quote_no_revision,priority:2"`
	IsLatest   bool   `json:"is_latest" gorm:"not null;default:true"`

	QuoteStatus string `json:"quote_status" gorm:"not null;default:INTAKE;index"`
	WorkStatus  string `json:"work_status" gorm:"not null;default:NOT_STARTED;index"`

	// Soft reference to the Store by CCID. The store row may be renamed or
	// removed later; the snapshot fields below keep the original values.
	OracleCCID string `json:"oracle_ccid" gorm:"column:oracle_ccid;index"`
	BrandName  string `json:"brand_name"`
	Location   string `json:"location"`
	City       string `json:"city"`
	Region     string `json:"region"`

	MrNo            string `json:"mr_no" gorm:"index"`
	WorkDescription string `json:"work_description"`

	// Derived financial fields. Written only by the quotation service totals
	// pass; client-supplied values are ignored.
	Subtotal   float64 `json:"subtotal"`
	Discount   float64 `json:"discount"`
	VatAmount  float64 `json:"vat_amount"`
	GrandTotal float64 `json:"grand_total"`

	SentAt    *time.Time     `json:"sent_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"` // non-null = in bin

	Items          []JobItem       `json:"items" gorm:"foreignKey:JobID"`
	Images         []JobImage      `json:"images" gorm:"foreignKey:JobID"`
	PurchaseOrders []PurchaseOrder `json:"purchase_orders" gorm:"foreignKey:JobID"`
}

// JobItem is a quotation line. ItemCode is a soft reference into the price
// catalog; a dangling code is tolerated and prices fall back to zero.
type JobItem struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	JobID         uint    `json:"job_id" gorm:"not null;index"`
	ItemCode      string  `json:"item_code"`
	Description   string  `json:"description"`
	Unit          string  `json:"unit"`
	Quantity      float64 `json:"quantity"`
	MaterialPrice float64 `json:"material_price"`
	LaborPrice    float64 `json:"labor_price"`
	// Cached material + labor; kept in sync by the quotation service.
	UnitPrice float64   `json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobImage stores exactly one of Data (inline encoded payload) or FilePath
// (reference into upload storage).
type JobImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	JobID     uint      `json:"job_id" gorm:"not null;index"`
	ImageType string    `json:"image_type" gorm:"default:BEFORE"`
	MediaKind string    `json:"media_kind" gorm:"default:image"`
	Data      string    `json:"data,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

// JobItemPayload is the line-item shape accepted on create/update. Price
// resolution precedence: explicit unit price, then material+labor pair, then
// catalog lookup by item code.
type JobItemPayload struct {
	ItemCode      string   `json:"item_code"`
	Description   string   `json:"description"`
	Unit          string   `json:"unit"`
	Quantity      float64  `json:"quantity"`
	MaterialPrice *float64 `json:"material_price"`
	LaborPrice    *float64 `json:"labor_price"`
	UnitPrice     *float64 `json:"unit_price"`
}

// JobImagePayload carries either a raw inline payload or an upload path in
// Payload; the service decides which column it lands in.
type JobImagePayload struct {
	Payload   string `json:"payload"`
	ImageType string `json:"image_type"`
	MediaKind string `json:"media_kind"`
	Caption   string `json:"caption"`
}

// CreateJobRequest is the body for creating a quotation.
type CreateJobRequest struct {
	QuoteNo         string            `json:"quote_no"`
	OracleCCID      string            `json:"oracle_ccid"`
	QuoteStatus     string            `json:"quote_status"`
	WorkStatus      string            `json:"work_status"`
	MrNo            string            `json:"mr_no"`
	WorkDescription string            `json:"work_description"`
	BrandName       string            `json:"brand_name"`
	Location        string            `json:"location"`
	City            string            `json:"city"`
	Region          string            `json:"region"`
	Discount        float64           `json:"discount"`
	Items           []JobItemPayload  `json:"items"`
	Images          []JobImagePayload `json:"images"`
}

// FinancePayload is the nested finance shape under a purchase order patch.
type FinancePayload struct {
	InvoiceStatus  string     `json:"invoice_status"`
	ReceivedAmount *float64   `json:"received_amount"`
	AdvanceAmount  *float64   `json:"advance_amount"`
	PaymentDate    *time.Time `json:"payment_date"`
	PaymentRef     string     `json:"payment_ref"`
	Remarks        string     `json:"remarks"`
}

// PurchaseOrderPayload is the nested purchase-order shape in a job patch.
type PurchaseOrderPayload struct {
	PoNo      string          `json:"po_no"`
	PoAmount  *float64        `json:"po_amount"`
	VatAmount *float64        `json:"vat_amount"`
	ETA       *time.Time      `json:"eta"`
	Finance   *FinancePayload `json:"finance"`
}

// UpdateJobRequest is a partial patch. Nil pointers mean "leave unchanged";
// nested collections are replaced or upserted by the service, never merged
// field by field.
type UpdateJobRequest struct {
	QuoteStatus     *string    `json:"quote_status"`
	WorkStatus      *string    `json:"work_status"`
	OracleCCID      *string    `json:"oracle_ccid"`
	MrNo            *string    `json:"mr_no"`
	WorkDescription *string    `json:"work_description"`
	BrandName       *string    `json:"brand_name"`
	Location        *string    `json:"location"`
	City            *string    `json:"city"`
	Region          *string    `json:"region"`
	Discount        *float64   `json:"discount"`
	SentAt          *time.Time `json:"sent_at"`

	Items         *[]JobItemPayload     `json:"items"`
	Images        *[]JobImagePayload    `json:"images"`
	PurchaseOrder *PurchaseOrderPayload `json:"purchase_order"`
}

// JobSearchFilter holds the supported quotation search parameters. Quote and
// MR numbers match partially and case-insensitively; the rest are exact.
type JobSearchFilter struct {
	QuoteNo     string     `form:"quote_no"`
	MrNo        string     `form:"mr_no"`
	OracleCCID  string     `form:"oracle_ccid"`
	QuoteStatus string     `form:"quote_status"`
	WorkStatus  string     `form:"work_status"`
	City        string     `form:"city"`
	Region      string     `form:"region"`
	DateFrom    *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo      *time.Time `form:"date_to" time_format:"2006-01-02"`
}
