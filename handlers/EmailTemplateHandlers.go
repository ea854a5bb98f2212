package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"backend/models"
	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/html"
	"gorm.io/gorm"
)

var emailTemplateTypes = []string{
	models.EmailTemplateDigest,
	models.EmailTemplateApproval,
}

func validTemplateType(t string) bool {
	for _, v := range emailTemplateTypes {
		if t == v {
			return true
		}
	}
	return false
}

// sanitizeTemplateHTML strips tags and attributes outside the allow list.
// Template bodies come from a rich-text editor, so disallowed elements keep
// their text content but lose the markup.
func sanitizeTemplateHTML(input string) string {
	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return input
	}

	allowedTags := map[string]bool{
		"p": true, "br": true, "strong": true, "b": true, "em": true, "i": true,
		"u": true, "h1": true, "h2": true, "h3": true, "ul": true, "ol": true,
		"li": true, "div": true, "span": true, "a": true, "table": true,
		"thead": true, "tbody": true, "tr": true, "th": true, "td": true,
		"blockquote": true, "hr": true,
	}
	allowedAttrs := map[string]map[string]bool{
		"a":  {"href": true, "title": true},
		"td": {"colspan": true, "rowspan": true},
		"th": {"colspan": true, "rowspan": true},
	}

	out := &html.Node{Type: html.DocumentNode}
	var copyNodes func(src, dst *html.Node)
	copyNodes = func(src, dst *html.Node) {
		for child := src.FirstChild; child != nil; child = child.NextSibling {
			switch child.Type {
			case html.TextNode:
				dst.AppendChild(&html.Node{Type: html.TextNode, Data: child.Data})
			case html.ElementNode:
				if !allowedTags[child.Data] {
					// Keep the content, drop the tag.
					copyNodes(child, dst)
					continue
				}
				el := &html.Node{Type: html.ElementNode, Data: child.Data}
				for _, attr := range child.Attr {
					if allowedAttrs[child.Data][attr.Key] {
						el.Attr = append(el.Attr, attr)
					}
				}
				dst.AppendChild(el)
				copyNodes(child, el)
			}
		}
	}
	copyNodes(doc, out)

	var buf strings.Builder
	if err := html.Render(&buf, out); err != nil {
		return input
	}
	result := buf.String()

	// html.Render wraps the fragment in <html><head></head><body>.
	if start := strings.Index(result, "<body>"); start != -1 {
		if end := strings.Index(result, "</body>"); end != -1 {
			result = result[start+len("<body>") : end]
		}
	}
	return strings.TrimSpace(result)
}

// GetEmailTemplates godoc
// @Summary      List email templates
// @Tags         email-templates
// @Produce      json
// @Param        type  query  string  false  "Filter by template type"
// @Success      200  {object}  models.APIResponse
// @Router       /api/email-templates [get]
func GetEmailTemplates(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		templates := []models.EmailTemplate{}
		q := db.Order("type, is_default DESC, name")
		if t := c.Query("type"); t != "" {
			q = q.Where("type = ?", t)
		}
		if err := q.Find(&templates).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch templates")
			return
		}
		utils.SuccessResponse(c, templates)
	}
}

// GetEmailTemplateByID godoc
// @Summary      Fetch an email template
// @Tags         email-templates
// @Param        id  path  int  true  "Template ID"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/email-templates/{id} [get]
func GetEmailTemplateByID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid template id")
			return
		}
		var tmpl models.EmailTemplate
		if err := db.First(&tmpl, id).Error; err != nil {
			utils.ErrorResponse(c, http.StatusNotFound, "template not found")
			return
		}
		utils.SuccessResponse(c, tmpl)
	}
}

// CreateEmailTemplate godoc
// @Summary      Create an email template
// @Tags         email-templates
// @Accept       json
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/email-templates [post]
func CreateEmailTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tmpl models.EmailTemplate
		if err := c.ShouldBindJSON(&tmpl); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		if !validTemplateType(tmpl.Type) {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid template type")
			return
		}
		tmpl.ID = 0
		tmpl.BodyHTML = sanitizeTemplateHTML(tmpl.BodyHTML)

		err := db.Transaction(func(tx *gorm.DB) error {
			if tmpl.IsDefault {
				if err := tx.Model(&models.EmailTemplate{}).
					Where("type = ?", tmpl.Type).
					Update("is_default", false).Error; err != nil {
					return err
				}
			}
			return tx.Create(&tmpl).Error
		})
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to create template")
			return
		}
		utils.SuccessResponse(c, tmpl)
	}
}

// UpdateEmailTemplate godoc
// @Summary      Update an email template
// @Tags         email-templates
// @Param        id  path  int  true  "Template ID"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/email-templates/{id} [put]
func UpdateEmailTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid template id")
			return
		}
		var tmpl models.EmailTemplate
		if err := db.First(&tmpl, id).Error; err != nil {
			utils.ErrorResponse(c, http.StatusNotFound, "template not found")
			return
		}
		if err := c.ShouldBindJSON(&tmpl); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		if !validTemplateType(tmpl.Type) {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid template type")
			return
		}
		tmpl.ID = uint(id)
		tmpl.BodyHTML = sanitizeTemplateHTML(tmpl.BodyHTML)

		err = db.Transaction(func(tx *gorm.DB) error {
			if tmpl.IsDefault {
				if err := tx.Model(&models.EmailTemplate{}).
					Where("type = ? AND id != ?", tmpl.Type, tmpl.ID).
					Update("is_default", false).Error; err != nil {
					return err
				}
			}
			return tx.Save(&tmpl).Error
		})
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to update template")
			return
		}
		utils.SuccessResponse(c, tmpl)
	}
}

// DeleteEmailTemplate godoc
// @Summary      Delete an email template
// @Tags         email-templates
// @Param        id  path  int  true  "Template ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/email-templates/{id} [delete]
func DeleteEmailTemplate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid template id")
			return
		}
		var tmpl models.EmailTemplate
		if err := db.First(&tmpl, id).Error; err != nil {
			utils.ErrorResponse(c, http.StatusNotFound, "template not found")
			return
		}
		if tmpl.IsDefault {
			utils.ErrorResponse(c, http.StatusBadRequest, "cannot delete the default template; set another default first")
			return
		}
		if err := db.Delete(&tmpl).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to delete template")
			return
		}
		utils.MessageResponse(c, "template deleted")
	}
}

// PreviewEmailTemplate godoc
// @Summary      Preview a template body as plain text
// @Description  Substitutes the supplied variables and flattens the HTML to plain text.
// @Tags         email-templates
// @Accept       json
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/email-templates/preview [post]
func PreviewEmailTemplate(svc *services.EmailService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BodyHTML  string            `json:"body_html" binding:"required"`
			Variables map[string]string `json:"variables"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "body_html is required")
			return
		}
		text := svc.PreviewEmailAsText(req.BodyHTML, models.EmailData{Variables: req.Variables})
		utils.SuccessResponse(c, gin.H{"text": text})
	}
}
