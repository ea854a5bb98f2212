package services

import (
	"testing"
	"time"

	"backend/models"
)

func seedSentJob(t *testing.T, svc *QuotationService, quoteNo string, sentAgo time.Duration) *models.Job {
	t.Helper()
	job, err := svc.Create(models.CreateJobRequest{
		QuoteNo:         quoteNo,
		OracleCCID:      "CC-1",
		BrandName:       "Acme",
		WorkDescription: "fix things",
	})
	if err != nil {
		t.Fatalf("create %s: %v", quoteNo, err)
	}
	sent := models.QuoteStatusSent
	stamp := time.Now().Add(-sentAgo)
	if _, err := svc.Update(job.ID, models.UpdateJobRequest{QuoteStatus: &sent, SentAt: &stamp}); err != nil {
		t.Fatalf("send %s: %v", quoteNo, err)
	}
	return job
}

func TestApprovalDelayScan(t *testing.T) {
	db := setupTestDB(t, t.Name())
	quotes := NewQuotationService(db)
	svc := NewNotificationService(db)

	seedSentJob(t, quotes, "Q-OLD", 4*24*time.Hour)  // 4 days: overdue
	seedSentJob(t, quotes, "Q-WARM", 30*time.Hour)   // >24h: pending
	seedSentJob(t, quotes, "Q-FRESH", 2*time.Hour)   // too recent to flag

	counts := svc.GenerateNotifications()
	if counts.ApprovalDelays != 2 {
		t.Fatalf("want 2 approval delay notifications got %d", counts.ApprovalDelays)
	}

	var overdue models.Notification
	if err := db.Where("type = ?", models.NotifyApprovalOverdue).First(&overdue).Error; err != nil {
		t.Fatalf("overdue notification missing: %v", err)
	}
	if overdue.QuoteNo != "Q-OLD" || overdue.Priority != models.PriorityHigh || overdue.DaysElapsed != 4 {
		t.Fatalf("overdue fields wrong: %+v", overdue)
	}

	var pending models.Notification
	if err := db.Where("type = ?", models.NotifyApprovalPending).First(&pending).Error; err != nil {
		t.Fatalf("pending notification missing: %v", err)
	}
	if pending.QuoteNo != "Q-WARM" || pending.Priority != models.PriorityMedium {
		t.Fatalf("pending fields wrong: %+v", pending)
	}
}

func TestApprovalDelayScanIsIdempotent(t *testing.T) {
	db := setupTestDB(t, t.Name())
	quotes := NewQuotationService(db)
	svc := NewNotificationService(db)

	seedSentJob(t, quotes, "Q-OLD", 4*24*time.Hour)

	first := svc.GenerateNotifications()
	if first.ApprovalDelays != 1 {
		t.Fatalf("first run: want 1 got %d", first.ApprovalDelays)
	}
	second := svc.GenerateNotifications()
	if second.Total != 0 {
		t.Fatalf("second run should create nothing, got %d", second.Total)
	}

	// Marking the notification read re-arms the rule.
	var notif models.Notification
	if err := db.First(&notif).Error; err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := svc.MarkRead(notif.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	third := svc.GenerateNotifications()
	if third.ApprovalDelays != 1 {
		t.Fatalf("after read: want 1 got %d", third.ApprovalDelays)
	}
}

func TestWorkflowGapScan(t *testing.T) {
	db := setupTestDB(t, t.Name())
	quotes := NewQuotationService(db)
	svc := NewNotificationService(db)

	// Work finished but quote still SENT.
	done := seedSentJob(t, quotes, "Q-DONE", time.Hour)
	ws := models.WorkStatusDone
	if _, err := quotes.Update(done.ID, models.UpdateJobRequest{WorkStatus: &ws}); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	// Approved with no PO.
	appr, err := quotes.Create(models.CreateJobRequest{
		QuoteNo: "Q-APPR", OracleCCID: "CC-1", BrandName: "Acme", WorkDescription: "w",
		QuoteStatus: models.QuoteStatusApproved,
	})
	if err != nil {
		t.Fatalf("create approved: %v", err)
	}

	// Approved with a PO must not be flagged.
	withPo, err := quotes.Create(models.CreateJobRequest{
		QuoteNo: "Q-HASPO", OracleCCID: "CC-1", BrandName: "Acme", WorkDescription: "w",
		QuoteStatus: models.QuoteStatusApproved,
	})
	if err != nil {
		t.Fatalf("create with po: %v", err)
	}
	if _, err := quotes.Update(withPo.ID, models.UpdateJobRequest{
		PurchaseOrder: &models.PurchaseOrderPayload{PoNo: "PO-1"},
	}); err != nil {
		t.Fatalf("attach po: %v", err)
	}

	counts := svc.GenerateNotifications()
	if counts.WorkflowGaps != 2 {
		t.Fatalf("want 2 workflow gap notifications got %d", counts.WorkflowGaps)
	}

	var wc int64
	db.Model(&models.Notification{}).Where("type = ? AND job_id = ?", models.NotifyWorkComplete, done.ID).Count(&wc)
	if wc != 1 {
		t.Fatalf("WORK_COMPLETE: want 1 got %d", wc)
	}
	var pm int64
	db.Model(&models.Notification{}).Where("type = ? AND job_id = ?", models.NotifyPoMissing, appr.ID).Count(&pm)
	if pm != 1 {
		t.Fatalf("PO_MISSING for Q-APPR: want 1 got %d", pm)
	}
	var pmWith int64
	db.Model(&models.Notification{}).Where("type = ? AND job_id = ?", models.NotifyPoMissing, withPo.ID).Count(&pmWith)
	if pmWith != 0 {
		t.Fatalf("PO_MISSING must skip jobs with a PO, got %d", pmWith)
	}
}

func TestIncompleteDataScan(t *testing.T) {
	db := setupTestDB(t, t.Name())
	quotes := NewQuotationService(db)
	svc := NewNotificationService(db)

	bare, err := quotes.Create(models.CreateJobRequest{QuoteNo: "Q-BARE", OracleCCID: "CC-1"})
	if err != nil {
		t.Fatalf("create bare: %v", err)
	}
	if _, err := quotes.Create(models.CreateJobRequest{
		QuoteNo: "Q-FULL", OracleCCID: "CC-1", BrandName: "Acme", WorkDescription: "replace filters",
	}); err != nil {
		t.Fatalf("create full: %v", err)
	}

	counts := svc.GenerateNotifications()
	if counts.IncompleteData != 1 {
		t.Fatalf("want 1 incomplete-data notification got %d", counts.IncompleteData)
	}
	var notif models.Notification
	if err := db.Where("type = ?", models.NotifyIncompleteData).First(&notif).Error; err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if notif.JobID != bare.ID || notif.Priority != models.PriorityLow {
		t.Fatalf("fields wrong: %+v", notif)
	}
}

func TestNotificationListAndReadAll(t *testing.T) {
	db := setupTestDB(t, t.Name())
	quotes := NewQuotationService(db)
	svc := NewNotificationService(db)

	seedSentJob(t, quotes, "Q-A", 4*24*time.Hour)
	if _, err := quotes.Create(models.CreateJobRequest{QuoteNo: "Q-B", OracleCCID: "CC-1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc.GenerateNotifications()

	all, err := svc.List(false)
	if err != nil || len(all) < 2 {
		t.Fatalf("list all: err=%v len=%d", err, len(all))
	}

	affected, err := svc.MarkAllRead()
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if affected != int64(len(all)) {
		t.Fatalf("affected rows: want %d got %d", len(all), affected)
	}
	unread, err := svc.List(true)
	if err != nil || len(unread) != 0 {
		t.Fatalf("unread after mark all: err=%v len=%d", err, len(unread))
	}
}
