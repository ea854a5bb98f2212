package services

import (
	"errors"
	"fmt"
	"time"

	"backend/models"
	"backend/storage"

	"gorm.io/gorm"
)

// Service-level errors mapped to HTTP statuses by the handlers.
var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateQuoteNo     = errors.New("quote number already exists")
	ErrMissingRequiredField = errors.New("missing required field")
)

// VatRate is the fixed VAT applied to every quotation subtotal.
const VatRate = 0.15

// QuotationService owns the Job aggregate: creation, partial updates with
// nested upserts, the bin, searching and the revision chain. All financial
// fields on a Job are derived here and nowhere else.
type QuotationService struct {
	db *gorm.DB
}

func NewQuotationService(db *gorm.DB) *QuotationService {
	return &QuotationService{db: db}
}

// ComputeTotals derives the financial rollup for a set of line items. Labor
// is a flat charge per line and is not scaled by quantity.
func ComputeTotals(items []models.JobItem, discount float64) (subtotal, vat, grand float64) {
	for _, it := range items {
		subtotal += it.Quantity*it.MaterialPrice + it.LaborPrice
	}
	vat = subtotal * VatRate
	grand = subtotal - discount + vat
	return subtotal, vat, grand
}

// Create inserts a new quotation with its items and images, snapshotting the
// referenced store and computing totals before returning.
func (s *QuotationService) Create(req models.CreateJobRequest) (*models.Job, error) {
	if req.QuoteNo == "" {
		return nil, fmt.Errorf("%w: quote_no", ErrMissingRequiredField)
	}
	if req.OracleCCID == "" {
		return nil, fmt.Errorf("%w: oracle_ccid", ErrMissingRequiredField)
	}

	// Quote numbers are unique across every revision, including binned rows.
	var count int64
	if err := s.db.Unscoped().Model(&models.Job{}).
		Where("quote_no = ?", req.QuoteNo).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateQuoteNo, req.QuoteNo)
	}

	job := models.Job{
		QuoteNo:         req.QuoteNo,
		RevisionNo:      0,
		IsLatest:        true,
		QuoteStatus:     models.QuoteStatusDraft,
		WorkStatus:      models.WorkStatusNotStarted,
		OracleCCID:      req.OracleCCID,
		BrandName:       req.BrandName,
		Location:        req.Location,
		City:            req.City,
		Region:          req.Region,
		MrNo:            req.MrNo,
		WorkDescription: req.WorkDescription,
		Discount:        req.Discount,
	}
	if req.QuoteStatus != "" {
		job.QuoteStatus = req.QuoteStatus
	}
	if req.WorkStatus != "" {
		job.WorkStatus = req.WorkStatus
	}

	// Best-effort store snapshot; a missing store does not fail the request.
	s.snapshotStore(&job)

	job.Items = s.resolveItems(req.Items)
	job.Images = buildImages(req.Images)
	job.Subtotal, job.VatAmount, job.GrandTotal = ComputeTotals(job.Items, job.Discount)

	if err := s.db.Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// snapshotStore copies site fields from the master (or custom) store row
// matching the job's CCID. Fields the store has populated win over the
// caller-supplied values; a dangling CCID leaves the request values intact.
func (s *QuotationService) snapshotStore(job *models.Job) {
	var store models.Store
	err := s.db.Where("oracle_ccid = ?", job.OracleCCID).First(&store).Error
	if err != nil {
		var custom models.CustomStore
		if err := s.db.Where("oracle_ccid = ?", job.OracleCCID).First(&custom).Error; err != nil {
			return
		}
		store = models.Store{
			BrandName: custom.BrandName,
			Location:  custom.Location,
			City:      custom.City,
			Region:    custom.Region,
		}
	}
	if store.BrandName != "" {
		job.BrandName = store.BrandName
	}
	if store.Location != "" {
		job.Location = store.Location
	}
	if store.City != "" {
		job.City = store.City
	}
	if store.Region != "" {
		job.Region = store.Region
	}
}

// resolveItems applies the price resolution precedence per line: explicit
// unit price, then explicit material+labor, then catalog lookup by item code.
func (s *QuotationService) resolveItems(payloads []models.JobItemPayload) []models.JobItem {
	items := make([]models.JobItem, 0, len(payloads))
	for _, p := range payloads {
		item := models.JobItem{
			ItemCode:    p.ItemCode,
			Description: p.Description,
			Unit:        p.Unit,
			Quantity:    p.Quantity,
		}
		switch {
		case p.UnitPrice != nil:
			item.UnitPrice = *p.UnitPrice
			if p.MaterialPrice != nil {
				item.MaterialPrice = *p.MaterialPrice
			}
			if p.LaborPrice != nil {
				item.LaborPrice = *p.LaborPrice
			}
		case p.MaterialPrice != nil || p.LaborPrice != nil:
			if p.MaterialPrice != nil {
				item.MaterialPrice = *p.MaterialPrice
			}
			if p.LaborPrice != nil {
				item.LaborPrice = *p.LaborPrice
			}
			item.UnitPrice = item.MaterialPrice + item.LaborPrice
		case p.ItemCode != "":
			mat, lab := s.lookupCatalog(p.ItemCode)
			item.MaterialPrice = mat
			item.LaborPrice = lab
			item.UnitPrice = mat + lab
		}
		items = append(items, item)
	}
	return items
}

// lookupCatalog finds material/labor rates by item code, master list first.
// A code with no catalog row resolves to zero prices.
func (s *QuotationService) lookupCatalog(code string) (material, labor float64) {
	var row models.PriceList
	if err := s.db.Where("item_code = ?", code).First(&row).Error; err == nil {
		return row.MaterialPrice, row.LaborPrice
	}
	var custom models.CustomPriceList
	if err := s.db.Where("item_code = ?", code).First(&custom).Error; err == nil {
		return custom.MaterialPrice, custom.LaborPrice
	}
	return 0, 0
}

func buildImages(payloads []models.JobImagePayload) []models.JobImage {
	images := make([]models.JobImage, 0, len(payloads))
	for _, p := range payloads {
		img := models.JobImage{
			ImageType: p.ImageType,
			MediaKind: p.MediaKind,
			Caption:   p.Caption,
		}
		if img.ImageType == "" {
			img.ImageType = models.ImageTypeBefore
		}
		if img.MediaKind == "" {
			img.MediaKind = models.MediaKindImage
		}
		if storage.IsUploadPath(p.Payload) {
			img.FilePath = p.Payload
		} else {
			img.Data = p.Payload
		}
		images = append(images, img)
	}
	return images
}

// Get loads a quotation with its nested collections.
func (s *QuotationService) Get(jobID uint) (*models.Job, error) {
	var job models.Job
	err := s.db.Preload("Items").Preload("Images").
		Preload("PurchaseOrders").Preload("PurchaseOrders.Finance").
		First(&job, jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Update applies a partial patch: scalar fields merge directly, item and
// image lists are fully replaced when present, and purchase-order/finance
// payloads upsert their single backing rows. Totals are recomputed last.
func (s *QuotationService) Update(jobID uint, patch models.UpdateJobRequest) (*models.Job, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.First(&job, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		applyScalarPatch(&job, patch)

		if patch.PurchaseOrder != nil {
			if err := upsertPurchaseOrder(tx, job.ID, *patch.PurchaseOrder); err != nil {
				return err
			}
		}

		if patch.Items != nil {
			if err := tx.Where("job_id = ?", job.ID).Delete(&models.JobItem{}).Error; err != nil {
				return err
			}
			items := s.resolveItems(*patch.Items)
			for i := range items {
				items[i].JobID = job.ID
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return err
				}
			}
		}

		if patch.Images != nil {
			if err := tx.Where("job_id = ?", job.ID).Delete(&models.JobImage{}).Error; err != nil {
				return err
			}
			images := buildImages(*patch.Images)
			for i := range images {
				images[i].JobID = job.ID
			}
			if len(images) > 0 {
				if err := tx.Create(&images).Error; err != nil {
					return err
				}
			}
		}

		var items []models.JobItem
		if err := tx.Where("job_id = ?", job.ID).Find(&items).Error; err != nil {
			return err
		}
		job.Subtotal, job.VatAmount, job.GrandTotal = ComputeTotals(items, job.Discount)

		return tx.Model(&models.Job{}).Where("id = ?", job.ID).
			Select("*").Omit("id", "created_at", "deleted_at").Updates(&job).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(jobID)
}

func applyScalarPatch(job *models.Job, patch models.UpdateJobRequest) {
	if patch.QuoteStatus != nil {
		job.QuoteStatus = *patch.QuoteStatus
		// Entering SENT stamps the send time unless the caller supplied one.
		if *patch.QuoteStatus == models.QuoteStatusSent && job.SentAt == nil && patch.SentAt == nil {
			now := time.Now()
			job.SentAt = &now
		}
	}
	if patch.WorkStatus != nil {
		job.WorkStatus = *patch.WorkStatus
	}
	if patch.OracleCCID != nil {
		job.OracleCCID = *patch.OracleCCID
	}
	if patch.MrNo != nil {
		job.MrNo = *patch.MrNo
	}
	if patch.WorkDescription != nil {
		job.WorkDescription = *patch.WorkDescription
	}
	if patch.BrandName != nil {
		job.BrandName = *patch.BrandName
	}
	if patch.Location != nil {
		job.Location = *patch.Location
	}
	if patch.City != nil {
		job.City = *patch.City
	}
	if patch.Region != nil {
		job.Region = *patch.Region
	}
	if patch.Discount != nil {
		job.Discount = *patch.Discount
	}
	if patch.SentAt != nil {
		job.SentAt = patch.SentAt
	}
}

// upsertPurchaseOrder updates the job's single purchase order or creates it,
// then does the same for the finance record keyed by po_no.
func upsertPurchaseOrder(tx *gorm.DB, jobID uint, payload models.PurchaseOrderPayload) error {
	var po models.PurchaseOrder
	err := tx.Where("job_id = ?", jobID).First(&po).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		po = models.PurchaseOrder{JobID: jobID}
	case err != nil:
		return err
	}

	if payload.PoNo != "" {
		po.PoNo = payload.PoNo
	}
	if payload.PoAmount != nil {
		po.PoAmount = *payload.PoAmount
	}
	if payload.VatAmount != nil {
		po.VatAmount = *payload.VatAmount
	}
	if payload.ETA != nil {
		po.ETA = payload.ETA
	}
	if err := tx.Save(&po).Error; err != nil {
		return err
	}

	if payload.Finance == nil || po.PoNo == "" {
		return nil
	}

	var fin models.Finance
	err = tx.Where("po_no = ?", po.PoNo).First(&fin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fin = models.Finance{PoNo: po.PoNo}
	case err != nil:
		return err
	}

	f := payload.Finance
	// The enum column rejects empty string; blank means not submitted yet.
	if f.InvoiceStatus != "" {
		fin.InvoiceStatus = f.InvoiceStatus
	} else if fin.InvoiceStatus == "" {
		fin.InvoiceStatus = models.InvoiceNotSubmitted
	}
	if f.ReceivedAmount != nil {
		fin.ReceivedAmount = *f.ReceivedAmount
	}
	if f.AdvanceAmount != nil {
		fin.AdvanceAmount = *f.AdvanceAmount
	}
	if f.PaymentDate != nil {
		fin.PaymentDate = f.PaymentDate
	}
	if f.PaymentRef != "" {
		fin.PaymentRef = f.PaymentRef
	}
	if f.Remarks != "" {
		fin.Remarks = f.Remarks
	}
	return tx.Save(&fin).Error
}

// Delete hard-removes the job and its nested rows. Callers wanting
// recoverability go through SoftDelete instead.
func (s *QuotationService) Delete(jobID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.Unscoped().First(&job, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("job_id = ?", jobID).Delete(&models.JobItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", jobID).Delete(&models.JobImage{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Job{}, jobID).Error
	})
}

// SoftDelete moves a job to the bin.
func (s *QuotationService) SoftDelete(jobID uint) error {
	res := s.db.Delete(&models.Job{}, jobID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears the bin timestamp.
func (s *QuotationService) Restore(jobID uint) error {
	res := s.db.Unscoped().Model(&models.Job{}).
		Where("id = ? AND deleted_at IS NOT NULL", jobID).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBin returns binned jobs, newest deletion first.
func (s *QuotationService) ListBin() ([]models.Job, error) {
	jobs := []models.Job{}
	err := s.db.Unscoped().Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").Find(&jobs).Error
	return jobs, err
}

// PermanentDelete removes a binned job irreversibly, cascading to its items
// and images.
func (s *QuotationService) PermanentDelete(jobID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var job models.Job
		err := tx.Unscoped().Where("id = ? AND deleted_at IS NOT NULL", jobID).First(&job).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", jobID).Delete(&models.JobItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", jobID).Delete(&models.JobImage{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Job{}, jobID).Error
	})
}

// applyFilter narrows a job query by the supported search parameters. LOWER
// + LIKE keeps the partial matches case-insensitive on both postgres and the
// sqlite test driver.
func applyFilter(q *gorm.DB, f models.JobSearchFilter) *gorm.DB {
	if f.QuoteNo != "" {
		q = q.Where("LOWER(quote_no) LIKE LOWER(?)", "%"+f.QuoteNo+"%")
	}
	if f.MrNo != "" {
		q = q.Where("LOWER(mr_no) LIKE LOWER(?)", "%"+f.MrNo+"%")
	}
	if f.OracleCCID != "" {
		q = q.Where("oracle_ccid = ?", f.OracleCCID)
	}
	if f.QuoteStatus != "" {
		q = q.Where("quote_status = ?", f.QuoteStatus)
	}
	if f.WorkStatus != "" {
		q = q.Where("work_status = ?", f.WorkStatus)
	}
	if f.City != "" {
		q = q.Where("LOWER(city) LIKE LOWER(?)", "%"+f.City+"%")
	}
	if f.Region != "" {
		q = q.Where("LOWER(region) LIKE LOWER(?)", "%"+f.Region+"%")
	}
	if f.DateFrom != nil {
		q = q.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("created_at <= ?", *f.DateTo)
	}
	return q
}

// Search returns all non-binned jobs matching the filter.
func (s *QuotationService) Search(f models.JobSearchFilter) ([]models.Job, error) {
	jobs := []models.Job{}
	err := applyFilter(s.db.Model(&models.Job{}), f).
		Preload("Items").Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

// ListQuotations is the main board view: latest revisions only, intake and
// preview rows excluded, newest first.
func (s *QuotationService) ListQuotations(f models.JobSearchFilter) ([]models.Job, error) {
	jobs := []models.Job{}
	q := applyFilter(s.db.Model(&models.Job{}), f).
		Where("is_latest = ?", true).
		Where("quote_status NOT IN ?", []string{models.QuoteStatusIntake, models.QuoteStatusPreview})
	err := q.Preload("Items").Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

// ListIntakes is the complementary view of un-promoted intake rows.
func (s *QuotationService) ListIntakes(f models.JobSearchFilter) ([]models.Job, error) {
	jobs := []models.Job{}
	f.QuoteStatus = models.QuoteStatusIntake
	err := applyFilter(s.db.Model(&models.Job{}), f).
		Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

// CreateRevision appends the next revision for the job's quote number in one
// transaction: the prior latest row is marked REVISED and non-latest, and a
// copy with revision_no+1 becomes the new latest draft. Items and images are
// carried over; totals carry with them.
func (s *QuotationService) CreateRevision(jobID uint) (*models.Job, error) {
	var newID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.Job
		if err := tx.Preload("Items").Preload("Images").First(&current, jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !current.IsLatest {
			return fmt.Errorf("%w: job %d is not the latest revision", ErrNotFound, jobID)
		}

		if err := tx.Model(&models.Job{}).
			Where("quote_no = ? AND is_latest = ?", current.QuoteNo, true).
			Updates(map[string]interface{}{
				"is_latest":    false,
				"quote_status": models.QuoteStatusRevised,
			}).Error; err != nil {
			return err
		}

		next := current
		next.ID = 0
		next.RevisionNo = current.RevisionNo + 1
		next.IsLatest = true
		next.QuoteStatus = models.QuoteStatusDraft
		next.SentAt = nil
		next.CreatedAt = time.Time{}
		next.UpdatedAt = time.Time{}

		next.Items = make([]models.JobItem, len(current.Items))
		for i, it := range current.Items {
			it.ID = 0
			it.JobID = 0
			next.Items[i] = it
		}
		next.Images = make([]models.JobImage, len(current.Images))
		for i, img := range current.Images {
			img.ID = 0
			img.JobID = 0
			next.Images[i] = img
		}
		next.PurchaseOrders = nil

		if err := tx.Create(&next).Error; err != nil {
			return err
		}
		newID = next.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(newID)
}
