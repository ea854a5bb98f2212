package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Oracle CCID":   "oracle_ccid",
		" ORACLE-CCID ": "oracle_ccid",
		"oracle__ccid":  "oracle_ccid",
		"Item.Code":     "item_code",
		"_brand_name_":  "brand_name",
		"":              "",
	}
	for in, want := range cases {
		if got := normalizeHeader(in); got != want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchHeaderRow(t *testing.T) {
	row := []string{"Oracle CCID", "Brand", "Address", "City", "Region", "Notes"}
	cols, count := matchHeaderRow(row, storeColumnAliases)
	if count != 5 {
		t.Fatalf("want 5 matches got %d (%v)", count, cols)
	}
	if cols["oracle_ccid"] != 0 || cols["brand_name"] != 1 || cols["location"] != 2 {
		t.Fatalf("wrong indices: %v", cols)
	}
}

func TestFindHeaderRowSkipsBannerRows(t *testing.T) {
	records := [][]string{
		{"Store Master Export"},
		{"Generated 2024-05-01", ""},
		{},
		{"CCID", "Brand Name", "Location", "City"},
		{"1001", "Acme", "Mall Rd", "Riyadh"},
	}
	rowIdx, cols, ok := findHeaderRow(records, storeColumnAliases, "oracle_ccid")
	if !ok {
		t.Fatal("header row not detected")
	}
	if rowIdx != 3 {
		t.Fatalf("want header at row 3 got %d", rowIdx)
	}
	if cellAt(records[4], cols, "oracle_ccid") != "1001" {
		t.Fatalf("data access through detected columns failed: %v", cols)
	}
}

func TestFindHeaderRowRequiresKeyColumn(t *testing.T) {
	records := [][]string{
		{"Brand", "Location", "City"},
		{"Acme", "Mall Rd", "Riyadh"},
	}
	if _, _, ok := findHeaderRow(records, storeColumnAliases, "oracle_ccid"); ok {
		t.Fatal("header without the key column must not match")
	}
}

func TestFindHeaderRowScanLimit(t *testing.T) {
	records := make([][]string, 0, 30)
	for i := 0; i < 28; i++ {
		records = append(records, []string{"banner", "noise"})
	}
	records = append(records, []string{"CCID", "Brand"})
	if _, _, ok := findHeaderRow(records, storeColumnAliases, "oracle_ccid"); ok {
		t.Fatal("header beyond the scan limit must not be detected")
	}
}

func TestFindHeaderRowPicksBestCandidate(t *testing.T) {
	// A lone "ID" column upstream must lose to the richer real header.
	records := [][]string{
		{"ID", "Value"},
		{"oracle_ccid", "brand", "location", "city", "region"},
		{"1001", "Acme", "Mall Rd", "Riyadh", "Central"},
	}
	rowIdx, _, ok := findHeaderRow(records, storeColumnAliases, "oracle_ccid")
	if !ok || rowIdx != 1 {
		t.Fatalf("want row 1 got ok=%v row=%d", ok, rowIdx)
	}
}

func TestCellAtOutOfRange(t *testing.T) {
	cols := map[string]int{"city": 5}
	if got := cellAt([]string{"a", "b"}, cols, "city"); got != "" {
		t.Fatalf("short row should yield empty cell, got %q", got)
	}
	if got := cellAt([]string{"a"}, cols, "region"); got != "" {
		t.Fatalf("unmapped field should yield empty cell, got %q", got)
	}
}

func importTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Store{}, &models.PriceList{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func postCSV(t *testing.T, handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "import.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	w.Close()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodPost, "/api/import/stores", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.Request = req
	handler(c)
	return rec
}

func TestImportStoresCSVReimportUpdatesInPlace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := importTestDB(t, "import_stores_reimport")
	handler := ImportStoresCSV(db)

	first := "CCID,Brand,Location,City\nCC-77,Acme,Mall Rd,Riyadh\n"
	if rec := postCSV(t, handler, first); rec.Code != http.StatusOK {
		t.Fatalf("first import: status %d body %s", rec.Code, rec.Body.String())
	}
	second := "CCID,Brand,Location,City\nCC-77,Acme Renamed,Mall Rd,Riyadh\n"
	if rec := postCSV(t, handler, second); rec.Code != http.StatusOK {
		t.Fatalf("re-import: status %d body %s", rec.Code, rec.Body.String())
	}

	var stores []models.Store
	if err := db.Where("oracle_ccid = ?", "CC-77").Find(&stores).Error; err != nil {
		t.Fatalf("lookup by CCID: %v", err)
	}
	if len(stores) != 1 {
		t.Fatalf("re-import must update the existing row, got %d rows", len(stores))
	}
	if stores[0].BrandName != "Acme Renamed" {
		t.Fatalf("brand not updated: %q", stores[0].BrandName)
	}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]float64{
		"1,250.50":   1250.50,
		"SAR 300":    300,
		"  42 ":      42,
		"not-a-num":  0,
		"":           0,
	}
	for in, want := range cases {
		if got := parsePrice(in); got != want {
			t.Errorf("parsePrice(%q) = %v, want %v", in, got, want)
		}
	}
}
