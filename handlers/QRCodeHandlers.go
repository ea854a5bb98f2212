package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"

	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
	"gorm.io/gorm"
)

// addLabel adds text to an image at the specified position
func addLabel(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{0, 0, 0, 255}
	face := inconsolata.Regular8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

// addLabelBold adds bold text for field labels
func addLabelBold(img *image.RGBA, x, y int, label string) {
	col := color.RGBA{30, 30, 30, 255}
	face := inconsolata.Bold8x16

	point := fixed.Point26_6{
		X: fixed.Int26_6(x * 64),
		Y: fixed.Int26_6(y * 64),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  point,
	}
	d.DrawString(label)
}

func truncateLabel(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// GenerateQuotationQRCode godoc
// @Summary      Generate a labeled QR code for a quotation
// @Description  Returns a JPEG with the verification QR on top and the quote details beneath.
// @Tags         qr
// @Param        id   path      int  true  "Job ID"
// @Success      200  {file}    file  "JPEG image"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/generate-qr/{id} [get]
func GenerateQuotationQRCode(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := jobIDParam(c)
		if !ok {
			return
		}

		var job models.Job
		err := db.First(&job, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "quotation not found")
			return
		}
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch quotation")
			return
		}

		qrData := struct {
			ID         uint   `json:"id"`
			QuoteNo    string `json:"quote_no"`
			RevisionNo int    `json:"revision_no"`
			IsLatest   bool   `json:"is_latest"`
		}{
			ID:         job.ID,
			QuoteNo:    job.QuoteNo,
			RevisionNo: job.RevisionNo,
			IsLatest:   job.IsLatest,
		}
		jsonData, err := json.Marshal(qrData)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to marshal quotation data")
			return
		}

		qr, err := qrcode.New(string(jsonData), qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}

		qrImg := qr.Image(512)

		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 5*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		combinedImg := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combinedImg, combinedImg.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

		qrRect := image.Rect(0, 0, qrSize, qrSize)
		draw.Draw(combinedImg, qrRect, qrImg, image.Point{}, draw.Src)

		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combinedImg.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		startY := qrSize + padding + lineHeight
		xPos := 20

		addLabelBold(combinedImg, xPos, startY, "Quote No:")
		addLabel(combinedImg, xPos+120, startY, truncateLabel(job.QuoteNo, 30))

		addLabelBold(combinedImg, xPos, startY+lineHeight, "Revision:")
		addLabel(combinedImg, xPos+120, startY+lineHeight, fmt.Sprintf("R%d", job.RevisionNo))

		addLabelBold(combinedImg, xPos, startY+2*lineHeight, "Status:")
		addLabel(combinedImg, xPos+120, startY+2*lineHeight, truncateLabel(job.QuoteStatus, 25))

		addLabelBold(combinedImg, xPos, startY+3*lineHeight, "Brand:")
		addLabel(combinedImg, xPos+120, startY+3*lineHeight, truncateLabel(job.BrandName, 30))

		addLabelBold(combinedImg, xPos, startY+4*lineHeight, "Location:")
		addLabel(combinedImg, xPos+120, startY+4*lineHeight, truncateLabel(job.Location, 30))

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, combinedImg, nil); err != nil {
			c.String(http.StatusInternalServerError, "JPEG encoding failed")
			return
		}

		c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
	}
}
