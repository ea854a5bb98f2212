package services

import (
	"fmt"
	"log"
	"time"

	"backend/models"

	"gorm.io/gorm"
)

// NotificationService scans jobs, purchase orders and finance rows and
// synthesizes advisory notifications. Each rule is idempotent: an unread
// notification of the same type for the same job suppresses a duplicate.
type NotificationService struct {
	db   *gorm.DB
	push *PushService // optional; HIGH-priority advisories fan out here
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// SetPushService wires the optional FCM fan-out.
func (n *NotificationService) SetPushService(push *PushService) {
	n.push = push
}

// GenerateNotifications runs all scan rules sequentially. A failing rule is
// logged and contributes zero; it never aborts the remaining rules.
func (n *NotificationService) GenerateNotifications() models.NotificationCounts {
	counts := models.NotificationCounts{
		ApprovalDelays: n.scanApprovalDelays(),
		WorkflowGaps:   n.scanWorkflowGaps(),
		IncompleteData: n.scanIncompleteData(),
	}
	counts.Total = counts.ApprovalDelays + counts.WorkflowGaps + counts.IncompleteData
	return counts
}

// scanApprovalDelays flags latest SENT quotations awaiting a client decision:
// after 24 hours APPROVAL_PENDING (medium), after 72 hours APPROVAL_OVERDUE
// (high).
func (n *NotificationService) scanApprovalDelays() int {
	now := time.Now()
	cutoff := now.Add(-24 * time.Hour)

	var jobs []models.Job
	err := n.db.Where("quote_status = ? AND is_latest = ? AND sent_at IS NOT NULL AND sent_at < ?",
		models.QuoteStatusSent, true, cutoff).Find(&jobs).Error
	if err != nil {
		log.Printf("approval delay scan failed: %v", err)
		return 0
	}

	created := 0
	for _, job := range jobs {
		days := int(now.Sub(*job.SentAt).Hours() / 24)
		notifType := models.NotifyApprovalPending
		priority := models.PriorityMedium
		if now.Sub(*job.SentAt) >= 72*time.Hour {
			notifType = models.NotifyApprovalOverdue
			priority = models.PriorityHigh
		}

		if n.create(models.Notification{
			JobID:       job.ID,
			QuoteNo:     job.QuoteNo,
			Type:        notifType,
			Priority:    priority,
			DaysElapsed: days,
			Message:     fmt.Sprintf("Quotation %s sent %d day(s) ago with no client decision", job.QuoteNo, days),
		}) {
			created++
		}
	}
	return created
}

// scanWorkflowGaps flags (a) work finished but the quote never closed out and
// (b) approved quotes with no purchase order attached.
func (n *NotificationService) scanWorkflowGaps() int {
	created := 0

	var doneJobs []models.Job
	err := n.db.Where("work_status = ? AND quote_status NOT IN ?",
		models.WorkStatusDone,
		[]string{models.QuoteStatusCompleted, models.QuoteStatusRejected}).
		Find(&doneJobs).Error
	if err != nil {
		log.Printf("workflow gap scan (work complete) failed: %v", err)
	} else {
		for _, job := range doneJobs {
			if n.create(models.Notification{
				JobID:    job.ID,
				QuoteNo:  job.QuoteNo,
				Type:     models.NotifyWorkComplete,
				Priority: models.PriorityHigh,
				Message:  fmt.Sprintf("Work on quotation %s is done but the quote is still %s", job.QuoteNo, job.QuoteStatus),
			}) {
				created++
			}
		}
	}

	var approved []models.Job
	err = n.db.Where("quote_status = ?", models.QuoteStatusApproved).Find(&approved).Error
	if err != nil {
		log.Printf("workflow gap scan (missing PO) failed: %v", err)
		return created
	}
	for _, job := range approved {
		var poCount int64
		if err := n.db.Model(&models.PurchaseOrder{}).
			Where("job_id = ?", job.ID).Count(&poCount).Error; err != nil {
			log.Printf("PO count for job %d failed: %v", job.ID, err)
			continue
		}
		if poCount > 0 {
			continue
		}
		if n.create(models.Notification{
			JobID:    job.ID,
			QuoteNo:  job.QuoteNo,
			Type:     models.NotifyPoMissing,
			Priority: models.PriorityMedium,
			Message:  fmt.Sprintf("Quotation %s is approved but has no purchase order", job.QuoteNo),
		}) {
			created++
		}
	}
	return created
}

// scanIncompleteData flags latest draft/intake rows missing the description
// or brand needed before the quote can go out.
func (n *NotificationService) scanIncompleteData() int {
	var jobs []models.Job
	err := n.db.Where("quote_status IN ? AND is_latest = ?",
		[]string{models.QuoteStatusDraft, models.QuoteStatusIntake}, true).
		Where("work_description IS NULL OR work_description = '' OR brand_name IS NULL OR brand_name = ''").
		Find(&jobs).Error
	if err != nil {
		log.Printf("incomplete data scan failed: %v", err)
		return 0
	}

	created := 0
	for _, job := range jobs {
		if n.create(models.Notification{
			JobID:    job.ID,
			QuoteNo:  job.QuoteNo,
			Type:     models.NotifyIncompleteData,
			Priority: models.PriorityLow,
			Message:  fmt.Sprintf("Quotation %s is missing a work description or brand", job.QuoteNo),
		}) {
			created++
		}
	}
	return created
}

// create inserts a notification unless an unread one of the same type already
// exists for the job. Returns whether a row was created.
func (n *NotificationService) create(notif models.Notification) bool {
	var existing int64
	err := n.db.Model(&models.Notification{}).
		Where("job_id = ? AND type = ? AND is_read = ?", notif.JobID, notif.Type, false).
		Count(&existing).Error
	if err != nil {
		log.Printf("duplicate check for job %d type %s failed: %v", notif.JobID, notif.Type, err)
		return false
	}
	if existing > 0 {
		return false
	}
	if err := n.db.Create(&notif).Error; err != nil {
		log.Printf("creating %s notification for job %d failed: %v", notif.Type, notif.JobID, err)
		return false
	}

	if n.push != nil && notif.Priority == models.PriorityHigh {
		go n.push.BroadcastNotification(notif)
	}
	return true
}

// List returns notifications, optionally only unread, newest first.
func (n *NotificationService) List(unreadOnly bool) ([]models.Notification, error) {
	notifs := []models.Notification{}
	q := n.db.Order("created_at DESC")
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Find(&notifs).Error
	return notifs, err
}

// MarkRead marks one notification as read.
func (n *NotificationService) MarkRead(id uint) error {
	res := n.db.Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification as read, returning the count.
func (n *NotificationService) MarkAllRead() (int64, error) {
	res := n.db.Model(&models.Notification{}).
		Where("is_read = ?", false).Update("is_read", true)
	return res.RowsAffected, res.Error
}

// Delete removes a notification.
func (n *NotificationService) Delete(id uint) error {
	res := n.db.Delete(&models.Notification{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
