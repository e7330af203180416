package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// maxMediaSize caps downloaded attachments (Twilio allows 16 MB on WhatsApp)
const maxMediaSize = 16 << 20

// TwilioService is the WhatsApp transport: outbound texts through the
// Messages API and downloads of inbound media
type TwilioService struct {
	client     *twilio.RestClient
	from       string // Format: "whatsapp:+14155238886"
	accountSid string
	authToken  string
	http       *http.Client
}

var (
	_ Sender          = (*TwilioService)(nil)
	_ MediaDownloader = (*TwilioService)(nil)
)

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(accountSid, authToken, from string) (*TwilioService, error) {
	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client:     client,
		from:       whatsappAddress(from),
		accountSid: accountSid,
		authToken:  authToken,
		http:       &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SendText sends a WhatsApp message via Twilio. to is the sender address of
// the inbound message, with or without the whatsapp: prefix.
func (t *TwilioService) SendText(ctx context.Context, to, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(whatsappAddress(to))
	params.SetBody(text)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message to %s: %v", to, err)
		return err
	}

	if resp.Sid != nil {
		log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	}
	return nil
}

// DownloadMedia fetches an inbound attachment from its Twilio media URL
func (t *TwilioService) DownloadMedia(ctx context.Context, url string) (*models.Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build media request: %w", err)
	}
	req.SetBasicAuth(t.accountSid, t.authToken)

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	if len(data) > maxMediaSize {
		return nil, fmt.Errorf("media larger than %d bytes", maxMediaSize)
	}

	contentType := resp.Header.Get("Content-Type")
	return &models.Media{
		Data:        data,
		ContentType: contentType,
		Filename:    mediaFilename(url, contentType),
	}, nil
}

// MediaDownloader fetches an attachment by URL
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, url string) (*models.Media, error)
}

// TwilioMedia is the lazy attachment of one inbound Twilio message
type TwilioMedia struct {
	Downloader  MediaDownloader
	URL         string
	ContentType string
}

// FetchMedia downloads the attachment
func (m *TwilioMedia) FetchMedia(ctx context.Context) (*models.Media, error) {
	if m.Downloader == nil {
		return nil, fmt.Errorf("no media downloader configured")
	}
	media, err := m.Downloader.DownloadMedia(ctx, m.URL)
	if err != nil {
		return nil, err
	}
	if media.ContentType == "" {
		media.ContentType = m.ContentType
	}
	return media, nil
}

func whatsappAddress(addr string) string {
	if strings.HasPrefix(addr, "whatsapp:") {
		return addr
	}
	if !strings.HasPrefix(addr, "+") {
		addr = "+" + addr
	}
	return "whatsapp:" + addr
}

// mediaFilename names the upload pv_<media sid><ext>, ext from the content type
func mediaFilename(url, contentType string) string {
	ext := ".jpg"
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
		if ext == ".jpe" || ext == ".jfif" {
			ext = ".jpg"
		}
	}
	return "pv_" + path.Base(url) + ext
}
