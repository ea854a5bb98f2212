package services

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"backend/models"
)

func TestPreviewCachePutGet(t *testing.T) {
	cache := newPreviewCache(time.Minute)

	id := cache.put(models.CreateJobRequest{QuoteNo: "Q-1"})
	if id == "" {
		t.Fatal("empty preview id")
	}
	payload, ok := cache.get(id)
	if !ok || payload.QuoteNo != "Q-1" {
		t.Fatalf("get: ok=%v payload=%+v", ok, payload)
	}
	if _, ok := cache.get("no-such-id"); ok {
		t.Fatal("unknown id should miss")
	}
}

func TestPreviewCacheExpiry(t *testing.T) {
	cache := newPreviewCache(20 * time.Millisecond)

	id := cache.put(models.CreateJobRequest{QuoteNo: "Q-1"})
	time.Sleep(50 * time.Millisecond)
	if _, ok := cache.get(id); ok {
		t.Fatal("expired entry should miss")
	}

	// Sweep clears expired entries without touching live ones.
	stale := cache.put(models.CreateJobRequest{QuoteNo: "Q-2"})
	time.Sleep(50 * time.Millisecond)
	live := cache.put(models.CreateJobRequest{QuoteNo: "Q-3"})
	cache.sweep()
	cache.mu.Lock()
	_, staleThere := cache.entries[stale]
	_, liveThere := cache.entries[live]
	cache.mu.Unlock()
	if staleThere {
		t.Fatal("sweep left an expired entry")
	}
	if !liveThere {
		t.Fatal("sweep removed a live entry")
	}
}

func TestPrepareAndRenderPreview(t *testing.T) {
	db := setupTestDB(t, t.Name())
	svc := NewPDFService(db)
	defer svc.Close()

	mat := 100.0
	lab := 50.0
	id := svc.PreparePreview(models.CreateJobRequest{
		QuoteNo:         "Q-PDF",
		OracleCCID:      "CC-1",
		BrandName:       "Acme Mart",
		City:            "Riyadh",
		WorkDescription: "Replace ceiling tiles",
		Discount:        20,
		Items: []models.JobItemPayload{
			{Description: "Ceiling tile", Unit: "pcs", Quantity: 2, MaterialPrice: &mat, LaborPrice: &lab},
		},
	})

	payload, err := svc.PreviewData(id)
	if err != nil {
		t.Fatalf("preview data: %v", err)
	}
	if payload.QuoteNo != "Q-PDF" {
		t.Fatalf("payload mismatch: %+v", payload)
	}

	data, quoteNo, err := svc.RenderPreview(id)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if quoteNo != "Q-PDF" {
		t.Fatalf("quote no: %s", quoteNo)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("not a PDF, got %q", data[:10])
	}

	if _, _, err := svc.RenderPreview("missing"); !errors.Is(err, ErrPreviewNotFound) {
		t.Fatalf("want ErrPreviewNotFound got %v", err)
	}
}

func TestRenderJobFromDatabase(t *testing.T) {
	db := setupTestDB(t, t.Name())
	quotes := NewQuotationService(db)
	svc := NewPDFService(db)
	defer svc.Close()

	mat := 40.0
	job, err := quotes.Create(models.CreateJobRequest{
		QuoteNo:         "Q-RENDER",
		OracleCCID:      "CC-1",
		BrandName:       "Acme",
		WorkDescription: "Repaint storefront",
		Items:           []models.JobItemPayload{{Description: "paint", Quantity: 3, MaterialPrice: &mat}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	data, quoteNo, err := svc.RenderJob(job.ID)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if quoteNo != "Q-RENDER" || len(data) == 0 {
		t.Fatalf("render output: quote=%s len=%d", quoteNo, len(data))
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}

	if _, _, err := svc.RenderJob(9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing job: want ErrNotFound got %v", err)
	}
}
