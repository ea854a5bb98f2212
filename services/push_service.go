package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"backend/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
	"gorm.io/gorm"
)

// PushService delivers push notifications through the FCM HTTP v1 API using
// a Google service-account token source. Optional: the app runs without it
// when no credentials file is configured.
type PushService struct {
	projectID   string
	db          *gorm.DB
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
}

type serviceAccountCredentials struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
	TokenURI    string `json:"token_uri"`
}

// NewPushService reads the service-account JSON at credentialsPath and
// prepares an OAuth2 token source scoped to firebase messaging.
func NewPushService(credentialsPath string, db *gorm.DB) (*PushService, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("credentials path is required")
	}

	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("error reading credentials file: %w", err)
	}

	var creds serviceAccountCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("error parsing credentials: %w", err)
	}

	privateKey := strings.ReplaceAll(creds.PrivateKey, "\\n", "\n")
	config := &jwt.Config{
		Email:      creds.ClientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{"https://www.googleapis.com/auth/firebase.messaging"},
		TokenURL:   creds.TokenURI,
	}

	return &PushService{
		projectID:   creds.ProjectID,
		db:          db,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		tokenSource: config.TokenSource(context.Background()),
	}, nil
}

// SendToToken pushes one message to a single device token.
func (p *PushService) SendToToken(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return fmt.Errorf("FCM token cannot be empty")
	}

	oauthToken, err := p.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("error getting OAuth token: %w", err)
	}

	if data == nil {
		data = map[string]string{}
	}
	message := map[string]interface{}{
		"message": map[string]interface{}{
			"token": token,
			"notification": map[string]string{
				"title": title,
				"body":  body,
			},
			"data": data,
			"android": map[string]interface{}{
				"priority": "high",
			},
			"webpush": map[string]interface{}{
				"notification": map[string]interface{}{
					"title": title,
					"body":  body,
				},
			},
		},
	}

	endpoint := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", p.projectID)
	return p.post(ctx, endpoint, oauthToken.AccessToken, message)
}

// BroadcastNotification pushes an advisory to every user holding a device
// token. Failures are logged per token and do not abort the rest.
func (p *PushService) BroadcastNotification(notif models.Notification) {
	var tokens []string
	err := p.db.Model(&models.User{}).
		Where("fcm_token IS NOT NULL AND fcm_token != '' AND suspended = ?", false).
		Pluck("fcm_token", &tokens).Error
	if err != nil {
		log.Printf("loading FCM tokens failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	title := fmt.Sprintf("Quotation %s", notif.QuoteNo)
	data := map[string]string{"type": notif.Type, "quote_no": notif.QuoteNo}
	for _, token := range tokens {
		if err := p.SendToToken(ctx, token, title, notif.Message, data); err != nil {
			log.Printf("push to token %.12s... failed: %v", token, err)
		}
	}
}

// SaveToken stores a device token against a user.
func (p *PushService) SaveToken(userID uint, token string) error {
	return p.db.Model(&models.User{}).Where("id = ?", userID).
		Update("fcm_token", token).Error
}

// RemoveToken clears a user's device token.
func (p *PushService) RemoveToken(userID uint) error {
	return p.db.Model(&models.User{}).Where("id = ?", userID).
		Update("fcm_token", "").Error
}

func (p *PushService) post(ctx context.Context, endpoint, accessToken string, payload map[string]interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("FCM API error: status %d, body: %s", resp.StatusCode, body)
	}
	return nil
}
