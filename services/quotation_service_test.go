package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Job{}, &models.JobItem{}, &models.JobImage{},
		&models.PurchaseOrder{}, &models.Finance{},
		&models.Store{}, &models.CustomStore{},
		&models.PriceList{}, &models.CustomPriceList{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func floatEq(a, b float64) bool {
	d := a - b
	return d > -0.0001 && d < 0.0001
}

func TestComputeTotals(t *testing.T) {
	items := []models.JobItem{
		{Quantity: 2, MaterialPrice: 100, LaborPrice: 50},
	}
	sub, vat, grand := ComputeTotals(items, 20)
	if !floatEq(sub, 250) {
		t.Fatalf("subtotal: want 250 got %v", sub)
	}
	if !floatEq(vat, 37.5) {
		t.Fatalf("vat: want 37.5 got %v", vat)
	}
	if !floatEq(grand, 267.5) {
		t.Fatalf("grand total: want 267.5 got %v", grand)
	}
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	sub, vat, grand := ComputeTotals(nil, 0)
	if sub != 0 || vat != 0 || grand != 0 {
		t.Fatalf("want zeros got %v/%v/%v", sub, vat, grand)
	}
}

func TestCreateQuotationDefaultsAndTotals(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	mat := 100.0
	lab := 50.0
	job, err := svc.Create(models.CreateJobRequest{
		QuoteNo:    "Q-100",
		OracleCCID: "CC-1",
		Discount:   20,
		Items: []models.JobItemPayload{
			{Description: "AC repair", Quantity: 2, MaterialPrice: &mat, LaborPrice: &lab},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.QuoteStatus != models.QuoteStatusDraft {
		t.Fatalf("want DRAFT got %s", job.QuoteStatus)
	}
	if job.RevisionNo != 0 || !job.IsLatest {
		t.Fatalf("want revision 0 latest, got rev=%d latest=%v", job.RevisionNo, job.IsLatest)
	}
	if !floatEq(job.Subtotal, 250) || !floatEq(job.VatAmount, 37.5) || !floatEq(job.GrandTotal, 267.5) {
		t.Fatalf("totals: got %v/%v/%v", job.Subtotal, job.VatAmount, job.GrandTotal)
	}
}

func TestCreateQuotationRequiredFields(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	if _, err := svc.Create(models.CreateJobRequest{OracleCCID: "CC-1"}); !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("missing quote_no: want ErrMissingRequiredField got %v", err)
	}
	if _, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-1"}); !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("missing oracle_ccid: want ErrMissingRequiredField got %v", err)
	}
}

func TestCreateQuotationDuplicateQuoteNo(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	if _, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-1", OracleCCID: "CC-1"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-1", OracleCCID: "CC-2"}); !errors.Is(err, ErrDuplicateQuoteNo) {
		t.Fatalf("want ErrDuplicateQuoteNo got %v", err)
	}

	// Binned rows still reserve the number.
	var job models.Job
	if err := db.Where("quote_no = ?", "Q-1").First(&job).Error; err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := svc.SoftDelete(job.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-1", OracleCCID: "CC-3"}); !errors.Is(err, ErrDuplicateQuoteNo) {
		t.Fatalf("binned row should block reuse, got %v", err)
	}
}

func TestCreateQuotationSnapshotsStore(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	db.Create(&models.Store{OracleCCID: "CC-9", BrandName: "Acme Mart", City: "Riyadh", Region: "Central"})

	job, err := svc.Create(models.CreateJobRequest{
		QuoteNo:    "Q-9",
		OracleCCID: "CC-9",
		Location:   "Back entrance", // store has no location, caller value survives
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.BrandName != "Acme Mart" || job.City != "Riyadh" || job.Region != "Central" {
		t.Fatalf("snapshot not applied: %+v", job)
	}
	if job.Location != "Back entrance" {
		t.Fatalf("caller location lost: %q", job.Location)
	}

	// Editing the store afterwards must not change the job.
	db.Model(&models.Store{}).Where("oracle_ccid = ?", "CC-9").Update("brand_name", "Renamed")
	fetched, err := svc.Get(job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.BrandName != "Acme Mart" {
		t.Fatalf("snapshot should be immutable, got %q", fetched.BrandName)
	}
}

func TestItemPricePrecedence(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	db.Create(&models.PriceList{ItemCode: "EL-01", Description: "Socket", MaterialPrice: 30, LaborPrice: 15})

	unit := 999.0
	mat := 40.0
	job, err := svc.Create(models.CreateJobRequest{
		QuoteNo:    "Q-P",
		OracleCCID: "CC-1",
		Items: []models.JobItemPayload{
			{ItemCode: "EL-01", Quantity: 1, UnitPrice: &unit},     // explicit unit price wins
			{ItemCode: "EL-01", Quantity: 1, MaterialPrice: &mat},  // explicit material wins over catalog
			{ItemCode: "EL-01", Quantity: 1},                       // catalog lookup
			{Description: "ad-hoc", Quantity: 1},                   // nothing known, zero prices
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	items := job.Items
	if len(items) != 4 {
		t.Fatalf("want 4 items got %d", len(items))
	}
	if !floatEq(items[0].UnitPrice, 999) {
		t.Fatalf("explicit unit price: got %v", items[0].UnitPrice)
	}
	if !floatEq(items[1].MaterialPrice, 40) || !floatEq(items[1].LaborPrice, 0) {
		t.Fatalf("explicit material: got %v/%v", items[1].MaterialPrice, items[1].LaborPrice)
	}
	if !floatEq(items[2].MaterialPrice, 30) || !floatEq(items[2].LaborPrice, 15) {
		t.Fatalf("catalog lookup: got %v/%v", items[2].MaterialPrice, items[2].LaborPrice)
	}
	if !floatEq(items[3].UnitPrice, 0) {
		t.Fatalf("unknown item should be zero priced: got %v", items[3].UnitPrice)
	}
}

func TestUpdateReplacesItemsAndRecomputes(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	mat := 100.0
	lab := 50.0
	job, err := svc.Create(models.CreateJobRequest{
		QuoteNo:    "Q-U",
		OracleCCID: "CC-1",
		Items: []models.JobItemPayload{
			{Quantity: 2, MaterialPrice: &mat, LaborPrice: &lab},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newMat := 10.0
	newItems := []models.JobItemPayload{
		{Quantity: 3, MaterialPrice: &newMat},
	}
	discount := 5.0
	updated, err := svc.Update(job.ID, models.UpdateJobRequest{
		Items:    &newItems,
		Discount: &discount,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Items) != 1 {
		t.Fatalf("items not replaced: %d", len(updated.Items))
	}
	// 3*10+0 = 30, vat 4.5, grand 30-5+4.5
	if !floatEq(updated.Subtotal, 30) || !floatEq(updated.VatAmount, 4.5) || !floatEq(updated.GrandTotal, 29.5) {
		t.Fatalf("totals: got %v/%v/%v", updated.Subtotal, updated.VatAmount, updated.GrandTotal)
	}
}

func TestUpdateSentStampsTimestamp(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	job, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-S", OracleCCID: "CC-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sent := models.QuoteStatusSent
	updated, err := svc.Update(job.ID, models.UpdateJobRequest{QuoteStatus: &sent})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.SentAt == nil {
		t.Fatal("SentAt not stamped on SENT")
	}

	// A second SENT update keeps the original stamp.
	first := *updated.SentAt
	time.Sleep(10 * time.Millisecond)
	again, err := svc.Update(job.ID, models.UpdateJobRequest{QuoteStatus: &sent})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if again.SentAt == nil || !again.SentAt.Equal(first) {
		t.Fatalf("SentAt changed: %v vs %v", again.SentAt, first)
	}
}

func TestUpdateUpsertsPurchaseOrderAndFinance(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	job, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-PO", OracleCCID: "CC-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := 500.0
	updated, err := svc.Update(job.ID, models.UpdateJobRequest{
		PurchaseOrder: &models.PurchaseOrderPayload{
			PoNo:     "PO-77",
			PoAmount: &amount,
			Finance:  &models.FinancePayload{},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.PurchaseOrders) != 1 {
		t.Fatalf("want 1 purchase order got %d", len(updated.PurchaseOrders))
	}
	po := updated.PurchaseOrders[0]
	if po.PoNo != "PO-77" || !floatEq(po.PoAmount, 500) {
		t.Fatalf("po not saved: %+v", po)
	}
	if po.Finance == nil || po.Finance.InvoiceStatus != models.InvoiceNotSubmitted {
		t.Fatalf("finance should default to NOT_SUBMITTED: %+v", po.Finance)
	}

	// Second patch updates the same row instead of adding one.
	newAmount := 600.0
	paid := models.InvoicePaid
	updated, err = svc.Update(job.ID, models.UpdateJobRequest{
		PurchaseOrder: &models.PurchaseOrderPayload{
			PoNo:     "PO-77",
			PoAmount: &newAmount,
			Finance:  &models.FinancePayload{InvoiceStatus: paid},
		},
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if len(updated.PurchaseOrders) != 1 {
		t.Fatalf("po duplicated: %d", len(updated.PurchaseOrders))
	}
	if !floatEq(updated.PurchaseOrders[0].PoAmount, 600) {
		t.Fatalf("po amount not updated: %v", updated.PurchaseOrders[0].PoAmount)
	}
	if updated.PurchaseOrders[0].Finance.InvoiceStatus != models.InvoicePaid {
		t.Fatalf("finance status not updated: %s", updated.PurchaseOrders[0].Finance.InvoiceStatus)
	}
}

func TestBinLifecycle(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	mat := 10.0
	job, err := svc.Create(models.CreateJobRequest{
		QuoteNo:    "Q-BIN",
		OracleCCID: "CC-1",
		Items:      []models.JobItemPayload{{Quantity: 1, MaterialPrice: &mat}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.SoftDelete(job.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := svc.Get(job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("binned job should be hidden, got %v", err)
	}
	bin, err := svc.ListBin()
	if err != nil || len(bin) != 1 {
		t.Fatalf("bin: err=%v len=%d", err, len(bin))
	}

	if err := svc.Restore(job.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := svc.Get(job.ID); err != nil {
		t.Fatalf("restored job should be visible: %v", err)
	}

	if err := svc.SoftDelete(job.ID); err != nil {
		t.Fatalf("re-bin: %v", err)
	}
	if err := svc.PermanentDelete(job.ID); err != nil {
		t.Fatalf("permanent delete: %v", err)
	}
	var itemCount int64
	db.Model(&models.JobItem{}).Where("job_id = ?", job.ID).Count(&itemCount)
	if itemCount != 0 {
		t.Fatalf("items not cascaded: %d", itemCount)
	}
	var total int64
	db.Unscoped().Model(&models.Job{}).Count(&total)
	if total != 0 {
		t.Fatalf("job row still present: %d", total)
	}
}

func TestPermanentDeleteRequiresBin(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	job, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-X", OracleCCID: "CC-1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.PermanentDelete(job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("live job must not be permanently deletable, got %v", err)
	}
}

func TestCreateRevisionChain(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	mat := 25.0
	job, err := svc.Create(models.CreateJobRequest{
		QuoteNo:    "Q-REV",
		OracleCCID: "CC-1",
		Items:      []models.JobItemPayload{{Description: "paint", Quantity: 4, MaterialPrice: &mat}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sent := models.QuoteStatusSent
	if _, err := svc.Update(job.ID, models.UpdateJobRequest{QuoteStatus: &sent}); err != nil {
		t.Fatalf("send: %v", err)
	}

	rev, err := svc.CreateRevision(job.ID)
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if rev.RevisionNo != 1 || !rev.IsLatest {
		t.Fatalf("new revision: rev=%d latest=%v", rev.RevisionNo, rev.IsLatest)
	}
	if rev.QuoteStatus != models.QuoteStatusDraft || rev.SentAt != nil {
		t.Fatalf("revision must reset to draft: status=%s sent=%v", rev.QuoteStatus, rev.SentAt)
	}
	if len(rev.Items) != 1 || rev.Items[0].Description != "paint" {
		t.Fatalf("items not carried: %+v", rev.Items)
	}

	prior, err := svc.Get(job.ID)
	if err != nil {
		t.Fatalf("get prior: %v", err)
	}
	if prior.IsLatest || prior.QuoteStatus != models.QuoteStatusRevised {
		t.Fatalf("prior not demoted: latest=%v status=%s", prior.IsLatest, prior.QuoteStatus)
	}

	// Revising a stale revision is rejected.
	if _, err := svc.CreateRevision(job.ID); err == nil {
		t.Fatal("revising a non-latest row should fail")
	}

	// Listing shows only the latest revision.
	list, err := svc.ListQuotations(models.JobSearchFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].RevisionNo != 1 {
		t.Fatalf("list should contain only the latest revision: %+v", list)
	}
}

func TestListQuotationsHidesIntakes(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	if _, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-D", OracleCCID: "CC-1"}); err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := svc.Create(models.CreateJobRequest{
		QuoteNo: "Q-I", OracleCCID: "CC-1", QuoteStatus: models.QuoteStatusIntake,
	}); err != nil {
		t.Fatalf("create intake: %v", err)
	}

	list, err := svc.ListQuotations(models.JobSearchFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].QuoteNo != "Q-D" {
		t.Fatalf("intake leaked into quotation list: %+v", list)
	}

	intakes, err := svc.ListIntakes(models.JobSearchFilter{})
	if err != nil {
		t.Fatalf("intakes: %v", err)
	}
	if len(intakes) != 1 || intakes[0].QuoteNo != "Q-I" {
		t.Fatalf("intake list wrong: %+v", intakes)
	}
}

func TestSearchFilters(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewQuotationService(db)

	if _, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-2024-001", OracleCCID: "CC-1", City: "Jeddah"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(models.CreateJobRequest{QuoteNo: "Q-2024-002", OracleCCID: "CC-2", City: "Riyadh"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	byNo, err := svc.Search(models.JobSearchFilter{QuoteNo: "q-2024-001"})
	if err != nil || len(byNo) != 1 {
		t.Fatalf("partial quote_no match: err=%v len=%d", err, len(byNo))
	}
	byCity, err := svc.Search(models.JobSearchFilter{City: "riyadh"})
	if err != nil || len(byCity) != 1 || byCity[0].QuoteNo != "Q-2024-002" {
		t.Fatalf("city match: err=%v got=%+v", err, byCity)
	}
	byCCID, err := svc.Search(models.JobSearchFilter{OracleCCID: "CC-1"})
	if err != nil || len(byCCID) != 1 || byCCID[0].QuoteNo != "Q-2024-001" {
		t.Fatalf("exact CCID match: err=%v got=%+v", err, byCCID)
	}
	none, err := svc.Search(models.JobSearchFilter{OracleCCID: "CC-404"})
	if err != nil || len(none) != 0 {
		t.Fatalf("want empty result, got %d", len(none))
	}
}

// Raw clauses throughout the code address the CCID column as oracle_ccid, so
// the mapped column name must match on every table carrying it.
func TestCCIDColumnAddressableInRawClauses(t *testing.T) {
	db := setupTestDB(t, t.Name())

	db.Create(&models.Store{OracleCCID: "CC-77", BrandName: "Acme"})
	db.Create(&models.CustomStore{OracleCCID: "CC-88", BrandName: "Beta"})
	db.Create(&models.Job{QuoteNo: "Q-CCID", OracleCCID: "CC-77", IsLatest: true})

	var store models.Store
	if err := db.Where("oracle_ccid = ?", "CC-77").First(&store).Error; err != nil {
		t.Fatalf("stores lookup by oracle_ccid: %v", err)
	}
	var custom models.CustomStore
	if err := db.Where("oracle_ccid = ?", "CC-88").First(&custom).Error; err != nil {
		t.Fatalf("custom_stores lookup by oracle_ccid: %v", err)
	}
	var job models.Job
	if err := db.Where("oracle_ccid = ?", "CC-77").First(&job).Error; err != nil {
		t.Fatalf("jobs lookup by oracle_ccid: %v", err)
	}
}
