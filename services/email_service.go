package services

import (
	"errors"
	"fmt"
	"net/smtp"
	"os"
	"regexp"
	"strings"

	"backend/models"

	"golang.org/x/net/html"
	"gorm.io/gorm"
)

// EmailService sends templated notification emails. Templates are stored in
// the database with {{variable}} placeholders; one per type is the default.
type EmailService struct {
	db *gorm.DB
}

func NewEmailService(db *gorm.DB) *EmailService {
	return &EmailService{db: db}
}

var placeholderRe = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// processTemplate substitutes {{variable}} placeholders from the email data.
// Unknown placeholders are left in place so missing data is visible.
func (es *EmailService) processTemplate(body string, data models.EmailData) string {
	return placeholderRe.ReplaceAllStringFunc(body, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]
		if val, ok := data.Variables[key]; ok {
			return val
		}
		return match
	})
}

// convertHTMLToText flattens an HTML body to plain text for the text/plain
// alternative of the email.
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	return strings.TrimSpace(result)
}

// templateFor loads the default template of a type.
func (es *EmailService) templateFor(templateType string) (*models.EmailTemplate, error) {
	var tmpl models.EmailTemplate
	err := es.db.Where("type = ? AND is_default = ?", templateType, true).First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Fall back to any template of the type.
		err = es.db.Where("type = ?", templateType).First(&tmpl).Error
	}
	if err != nil {
		return nil, fmt.Errorf("no template for type %s: %w", templateType, err)
	}
	return &tmpl, nil
}

// SendTemplatedEmail renders the template of the given type and sends it.
func (es *EmailService) SendTemplatedEmail(templateType string, data models.EmailData) error {
	tmpl, err := es.templateFor(templateType)
	if err != nil {
		return err
	}

	subject := data.Subject
	if subject == "" {
		subject = es.processTemplate(tmpl.Subject, data)
	}
	body := es.processTemplate(tmpl.BodyHTML, data)
	return es.send(data.Recipient, subject, body)
}

// SendNotificationDigest emails a summary of freshly generated advisories.
func (es *EmailService) SendNotificationDigest(recipient string, counts models.NotificationCounts) error {
	data := models.EmailData{
		Recipient: recipient,
		Variables: map[string]string{
			"approval_delays": fmt.Sprintf("%d", counts.ApprovalDelays),
			"workflow_gaps":   fmt.Sprintf("%d", counts.WorkflowGaps),
			"incomplete_data": fmt.Sprintf("%d", counts.IncompleteData),
			"total":           fmt.Sprintf("%d", counts.Total),
		},
	}
	return es.SendTemplatedEmail(models.EmailTemplateDigest, data)
}

// PreviewEmailAsText renders a template body to plain text so the front end
// can show how the HTML will read in text-only clients.
func (es *EmailService) PreviewEmailAsText(htmlContent string, data models.EmailData) string {
	return convertHTMLToText(es.processTemplate(htmlContent, data))
}

// send delivers via the SMTP relay configured in the environment.
func (es *EmailService) send(to, subject, htmlBody string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	from := os.Getenv("SMTP_FROM")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASSWORD")
	if host == "" || from == "" {
		return fmt.Errorf("SMTP not configured")
	}
	if port == "" {
		port = "587"
	}

	plain := convertHTMLToText(htmlBody)
	boundary := "=_maintdesk_alt"
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=\"" + boundary + "\"",
		"",
		"--" + boundary,
		"Content-Type: text/plain; charset=UTF-8",
		"",
		plain,
		"--" + boundary,
		"Content-Type: text/html; charset=UTF-8",
		"",
		htmlBody,
		"--" + boundary + "--",
	}, "\r\n")

	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return smtp.SendMail(host+":"+port, auth, from, []string{to}, []byte(msg))
}
