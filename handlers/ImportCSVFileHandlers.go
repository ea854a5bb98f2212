package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// headerScanLimit bounds how deep into the file we look for the header row.
// Exports from the finance system carry banner rows above the real header.
const headerScanLimit = 25

// storeColumnAliases maps each target field to the header spellings seen in
// the wild. Matching is case-insensitive after normalizeHeader.
var storeColumnAliases = map[string][]string{
	"oracle_ccid": {"oracle_ccid", "ccid", "store_ccid", "oracle_id", "id"},
	"brand_name":  {"brand_name", "brand", "banner", "store_brand"},
	"location":    {"location", "address", "site", "store_location", "store_name", "site_name"},
	"city":        {"city", "town"},
	"region":      {"region", "province", "area", "zone"},
}

var priceListColumnAliases = map[string][]string{
	"item_code":      {"item_code", "code", "sku", "item_no", "item_number", "id"},
	"description":    {"description", "item_description", "desc", "item_name", "name"},
	"unit":           {"unit", "uom", "unit_of_measure"},
	"material_price": {"material_price", "material", "mat_price", "material_rate", "mat"},
	"labor_price":    {"labor_price", "labor", "labour", "labor_rate", "labour_price", "lab"},
}

// normalizeHeader lowers the cell and collapses separators so that
// "Oracle CCID", "oracle-ccid" and "ORACLE_CCID " all compare equal.
func normalizeHeader(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// matchHeaderRow tries one candidate row against the alias table. It returns
// column indices per target field and the number of fields matched.
func matchHeaderRow(row []string, aliases map[string][]string) (map[string]int, int) {
	cols := make(map[string]int)
	for i, cell := range row {
		norm := normalizeHeader(cell)
		if norm == "" {
			continue
		}
		for field, names := range aliases {
			if _, taken := cols[field]; taken {
				continue
			}
			for _, alias := range names {
				if norm == alias {
					cols[field] = i
					break
				}
			}
		}
	}
	return cols, len(cols)
}

// findHeaderRow scans up to headerScanLimit rows and picks the row that
// matches the most alias fields, requiring at least the key field plus one
// other column.
func findHeaderRow(records [][]string, aliases map[string][]string, keyField string) (int, map[string]int, bool) {
	limit := len(records)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	bestRow := -1
	bestCount := 0
	var bestCols map[string]int
	for i := 0; i < limit; i++ {
		cols, count := matchHeaderRow(records[i], aliases)
		if _, hasKey := cols[keyField]; !hasKey {
			continue
		}
		if count > bestCount {
			bestRow, bestCount, bestCols = i, count, cols
		}
	}
	if bestRow < 0 || bestCount < 2 {
		return -1, nil, false
	}
	return bestRow, bestCols, true
}

func cellAt(row []string, cols map[string]int, field string) string {
	idx, ok := cols[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func readCSVRecords(c *gin.Context) ([][]string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file not found")
	}
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open file")
	}
	defer src.Close()

	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}

// ImportStoresCSV godoc
// @Summary      Bulk import stores from CSV
// @Description  Auto-detects the header row within the first 25 lines by fuzzy column matching. Rows without a CCID are dropped.
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file"
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/import/stores [post]
func ImportStoresCSV(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := readCSVRecords(c)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		headerRow, cols, ok := findHeaderRow(records, storeColumnAliases, "oracle_ccid")
		if !ok {
			utils.ErrorResponse(c, http.StatusBadRequest, "could not detect a header row with a CCID column")
			return
		}

		result := models.ImportResult{HeaderRow: headerRow}
		err = db.Transaction(func(tx *gorm.DB) error {
			for _, row := range records[headerRow+1:] {
				ccid := cellAt(row, cols, "oracle_ccid")
				if ccid == "" {
					result.Skipped++
					continue
				}
				store := models.Store{
					OracleCCID: ccid,
					BrandName:  cellAt(row, cols, "brand_name"),
					Location:   cellAt(row, cols, "location"),
					City:       cellAt(row, cols, "city"),
					Region:     cellAt(row, cols, "region"),
				}
				var existing models.Store
				if tx.Where("oracle_ccid = ?", ccid).First(&existing).Error == nil {
					store.ID = existing.ID
				}
				if err := tx.Save(&store).Error; err != nil {
					return err
				}
				result.Imported++
			}
			return nil
		})
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, fmt.Sprintf("import failed: %v", err))
			return
		}
		utils.SuccessResponse(c, result)
	}
}

// ImportPriceListCSV godoc
// @Summary      Bulk import price list items from CSV
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file"
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/import/price-lists [post]
func ImportPriceListCSV(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := readCSVRecords(c)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		headerRow, cols, ok := findHeaderRow(records, priceListColumnAliases, "item_code")
		if !ok {
			utils.ErrorResponse(c, http.StatusBadRequest, "could not detect a header row with an item code column")
			return
		}

		result := models.ImportResult{HeaderRow: headerRow}
		err = db.Transaction(func(tx *gorm.DB) error {
			for _, row := range records[headerRow+1:] {
				code := cellAt(row, cols, "item_code")
				if code == "" {
					result.Skipped++
					continue
				}
				item := models.PriceList{
					ItemCode:      code,
					Description:   cellAt(row, cols, "description"),
					Unit:          cellAt(row, cols, "unit"),
					MaterialPrice: parsePrice(cellAt(row, cols, "material_price")),
					LaborPrice:    parsePrice(cellAt(row, cols, "labor_price")),
				}
				var existing models.PriceList
				if tx.Where("item_code = ?", code).First(&existing).Error == nil {
					item.ID = existing.ID
				}
				if err := tx.Save(&item).Error; err != nil {
					return err
				}
				result.Imported++
			}
			return nil
		})
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, fmt.Sprintf("import failed: %v", err))
			return
		}
		utils.SuccessResponse(c, result)
	}
}

// parsePrice tolerates thousand separators and currency noise in price cells.
func parsePrice(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, "SAR")
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
