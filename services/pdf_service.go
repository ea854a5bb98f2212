package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"backend/models"
	"backend/storage"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// PreviewTTL is how long a staged preview payload stays retrievable.
const PreviewTTL = time.Hour

var ErrPreviewNotFound = fmt.Errorf("preview not found or expired")

// previewCache is a small keyed TTL cache for unsaved quotation payloads, so
// a user can render a PDF before committing the quotation to the database.
type previewCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]previewEntry
}

type previewEntry struct {
	payload models.CreateJobRequest
	expires time.Time
}

func newPreviewCache(ttl time.Duration) *previewCache {
	return &previewCache{ttl: ttl, entries: make(map[string]previewEntry)}
}

func (p *previewCache) put(payload models.CreateJobRequest) string {
	id := uuid.NewString()
	p.mu.Lock()
	p.entries[id] = previewEntry{payload: payload, expires: time.Now().Add(p.ttl)}
	p.mu.Unlock()
	return id
}

func (p *previewCache) get(id string) (models.CreateJobRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[id]
	if !ok || time.Now().After(entry.expires) {
		delete(p.entries, id)
		return models.CreateJobRequest{}, false
	}
	return entry.payload, true
}

func (p *previewCache) sweep() {
	now := time.Now()
	p.mu.Lock()
	for id, entry := range p.entries {
		if now.After(entry.expires) {
			delete(p.entries, id)
		}
	}
	p.mu.Unlock()
}

// PDFService renders print-ready A4 quotations and stages unsaved previews.
type PDFService struct {
	db       *gorm.DB
	previews *previewCache
	stop     chan struct{}
	stopOnce sync.Once
}

func NewPDFService(db *gorm.DB) *PDFService {
	s := &PDFService{
		db:       db,
		previews: newPreviewCache(PreviewTTL),
		stop:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *PDFService) sweepLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.previews.sweep()
		case <-s.stop:
			return
		}
	}
}

// Close stops the background sweeper.
func (s *PDFService) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// PreparePreview stages an unsaved quotation payload and returns its key.
func (s *PDFService) PreparePreview(payload models.CreateJobRequest) string {
	return s.previews.put(payload)
}

// PreviewData retrieves a staged payload by key.
func (s *PDFService) PreviewData(id string) (models.CreateJobRequest, error) {
	payload, ok := s.previews.get(id)
	if !ok {
		return models.CreateJobRequest{}, ErrPreviewNotFound
	}
	return payload, nil
}

// quotationView is the flat view-model the print template works from.
type quotationView struct {
	QuoteNo         string
	RevisionNo      int
	Date            time.Time
	BrandName       string
	Location        string
	City            string
	Region          string
	MrNo            string
	WorkDescription string
	QuoteStatus     string
	PoNo            string
	Items           []models.JobItem
	Images          []models.JobImage
	Subtotal        float64
	Discount        float64
	VatAmount       float64
	GrandTotal      float64
}

// RenderJob loads the full job graph and renders it to PDF bytes.
func (s *PDFService) RenderJob(jobID uint) ([]byte, string, error) {
	var job models.Job
	err := s.db.Preload("Items").Preload("Images").
		Preload("PurchaseOrders").First(&job, jobID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	view := quotationView{
		QuoteNo:         job.QuoteNo,
		RevisionNo:      job.RevisionNo,
		Date:            job.CreatedAt,
		BrandName:       job.BrandName,
		Location:        job.Location,
		City:            job.City,
		Region:          job.Region,
		MrNo:            job.MrNo,
		WorkDescription: job.WorkDescription,
		QuoteStatus:     job.QuoteStatus,
		Items:           job.Items,
		Images:          job.Images,
		Subtotal:        job.Subtotal,
		Discount:        job.Discount,
		VatAmount:       job.VatAmount,
		GrandTotal:      job.GrandTotal,
	}
	if len(job.PurchaseOrders) > 0 {
		view.PoNo = job.PurchaseOrders[0].PoNo
	}

	data, err := renderQuotationPDF(view)
	return data, job.QuoteNo, err
}

// RenderPreview renders a staged, unsaved payload.
func (s *PDFService) RenderPreview(id string) ([]byte, string, error) {
	payload, err := s.PreviewData(id)
	if err != nil {
		return nil, "", err
	}

	items := make([]models.JobItem, 0, len(payload.Items))
	for _, p := range payload.Items {
		item := models.JobItem{
			ItemCode:    p.ItemCode,
			Description: p.Description,
			Unit:        p.Unit,
			Quantity:    p.Quantity,
		}
		if p.MaterialPrice != nil {
			item.MaterialPrice = *p.MaterialPrice
		}
		if p.LaborPrice != nil {
			item.LaborPrice = *p.LaborPrice
		}
		if p.UnitPrice != nil {
			item.UnitPrice = *p.UnitPrice
		} else {
			item.UnitPrice = item.MaterialPrice + item.LaborPrice
		}
		items = append(items, item)
	}

	view := quotationView{
		QuoteNo:         payload.QuoteNo,
		Date:            time.Now(),
		BrandName:       payload.BrandName,
		Location:        payload.Location,
		City:            payload.City,
		Region:          payload.Region,
		MrNo:            payload.MrNo,
		WorkDescription: payload.WorkDescription,
		QuoteStatus:     models.QuoteStatusPreview,
		Items:           items,
		Images:          buildImages(payload.Images),
		Discount:        payload.Discount,
	}
	view.Subtotal, view.VatAmount, view.GrandTotal = ComputeTotals(items, payload.Discount)

	data, err := renderQuotationPDF(view)
	return data, payload.QuoteNo, err
}

// renderQuotationPDF composes the A4 document: repeating title band and
// page-number footer, site block, items table, totals, image grid and a QR
// verification block. Margins are sized so content never overlaps the header.
func renderQuotationPDF(view quotationView) ([]byte, error) {
	titleCaser := cases.Title(language.Und)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 32, 10)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	pdf.SetHeaderFunc(func() {
		pdf.SetY(8)
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(190, 10, "MAINTENANCE QUOTATION", "", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(190, 6, fmt.Sprintf("Quote No: %s      Revision: %d      Date: %s",
			view.QuoteNo, view.RevisionNo, view.Date.Format("02-Jan-2006")), "B", 1, "C", false, 0, "")
		pdf.Ln(4)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(190, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// --- Site block ---
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(95, 6, "Site")
	pdf.Cell(95, 6, "Reference")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(95, 5, fmt.Sprintf("%s\n%s\n%s, %s",
		titleCaser.String(view.BrandName), view.Location, view.City, view.Region), "", "L", false)
	pdf.SetXY(105, pdf.GetY()-15)
	ref := fmt.Sprintf("MR No: %s", view.MrNo)
	if view.PoNo != "" {
		ref += fmt.Sprintf("\nPO No: %s", view.PoNo)
	}
	pdf.MultiCell(95, 5, ref, "", "L", false)
	pdf.Ln(4)

	// --- Work description ---
	if view.WorkDescription != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(190, 6, "Work Description")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, view.WorkDescription, "", "L", false)
		pdf.Ln(4)
	}

	// --- Items table ---
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(70, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Material", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Labor", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Line Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range view.Items {
		label := item.Description
		if label == "" {
			label = item.ItemCode
		}
		if len(label) > 45 {
			label = label[:42] + "..."
		}
		lineTotal := item.Quantity*item.MaterialPrice + item.LaborPrice
		pdf.CellFormat(70, 7, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%.2f", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", item.MaterialPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", item.LaborPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", lineTotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// --- Totals ---
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(150, 7, "Subtotal")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", view.Subtotal), "1", 1, "R", false, 0, "")
	pdf.Cell(150, 7, "Discount")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", view.Discount), "1", 1, "R", false, 0, "")
	pdf.Cell(150, 7, fmt.Sprintf("VAT (%.0f%%)", VatRate*100))
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", view.VatAmount), "1", 1, "R", false, 0, "")
	pdf.Cell(150, 7, "Grand Total")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", view.GrandTotal), "1", 1, "R", false, 0, "")
	pdf.Ln(5)

	// --- Image grid ---
	appendImages(pdf, view.Images)

	// --- QR verification block ---
	if view.QuoteNo != "" {
		if qr, err := qrcode.Encode(fmt.Sprintf("quote:%s:rev:%d", view.QuoteNo, view.RevisionNo), qrcode.Medium, 256); err == nil {
			name := "qr-" + view.QuoteNo
			pdf.RegisterImageOptionsReader(name,
				gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qr))
			pdf.ImageOptions(name, 10, pdf.GetY(), 25, 25, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			pdf.SetXY(40, pdf.GetY()+10)
			pdf.SetFont("Arial", "I", 8)
			pdf.Cell(150, 5, "Scan to verify this quotation")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

// appendImages embeds before/after photos two per row. Inline data and local
// upload paths are both resolved to bytes so the document is self-contained;
// videos and documents are listed by caption only.
func appendImages(pdf *gofpdf.Fpdf, images []models.JobImage) {
	const imgW, imgH = 90.0, 60.0
	col := 0
	for i, img := range images {
		if img.MediaKind != models.MediaKindImage {
			continue
		}
		data, err := mediaBytes(img)
		if err != nil || len(data) == 0 {
			continue
		}
		imgType := detectImageType(data)
		if imgType == "" {
			continue
		}

		if col == 0 {
			if pdf.GetY()+imgH+12 > 277 {
				pdf.AddPage()
			}
		}
		x := 10.0 + float64(col)*(imgW+10)
		y := pdf.GetY()

		name := fmt.Sprintf("jobimg-%d", i)
		pdf.RegisterImageOptionsReader(name,
			gofpdf.ImageOptions{ImageType: imgType}, bytes.NewReader(data))
		pdf.ImageOptions(name, x, y, imgW, imgH, false, gofpdf.ImageOptions{ImageType: imgType}, 0, "")
		pdf.SetXY(x, y+imgH)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(imgW, 5, fmt.Sprintf("%s %s", img.ImageType, img.Caption), "", 0, "C", false, 0, "")

		col++
		if col == 2 {
			col = 0
			pdf.SetY(y + imgH + 8)
		}
	}
	if col == 1 {
		pdf.SetY(pdf.GetY() + imgH + 8)
	} else {
		pdf.Ln(4)
	}
}

// mediaBytes resolves a job image to raw bytes from either its inline
// encoded data or its upload path.
func mediaBytes(img models.JobImage) ([]byte, error) {
	if img.Data != "" {
		encoded := img.Data
		// Tolerate data-URI payloads from the front end.
		if strings.HasPrefix(encoded, "data:") {
			if idx := strings.Index(encoded, ","); idx >= 0 {
				encoded = encoded[idx+1:]
			}
		}
		return base64.StdEncoding.DecodeString(encoded)
	}
	if img.FilePath != "" {
		if strings.HasPrefix(img.FilePath, "http://") || strings.HasPrefix(img.FilePath, "https://") {
			return fetchRemote(img.FilePath)
		}
		path, err := storage.ResolveLocalPath(img.FilePath)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(path)
	}
	return nil, nil
}

var mediaClient = &http.Client{Timeout: 15 * time.Second}

func fetchRemote(url string) ([]byte, error) {
	resp, err := mediaClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 20<<20))
}

func detectImageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "JPG"
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	}
	return ""
}
