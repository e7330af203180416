package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/metrics"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/services"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/utils"
)

// testWebhookTimeout bounds how long the test webhook waits for replies
const testWebhookTimeout = 2 * time.Minute

// Admitter hands inbound messages to the conversation engine
type Admitter interface {
	Submit(msg models.InboundMessage) error
	Process(ctx context.Context, msg models.InboundMessage) ([]string, error)
}

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	admitter   Admitter
	downloader services.MediaDownloader // nil when Twilio is not configured
	dedupe     *utils.DedupeCache
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(admitter Admitter, downloader services.MediaDownloader, dedupe *utils.DedupeCache) *WhatsAppHandler {
	return &WhatsAppHandler{
		admitter:   admitter,
		downloader: downloader,
		dedupe:     dedupe,
	}
}

// TwilioWebhookPayload represents incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid        string `form:"MessageSid"`
	AccountSid        string `form:"AccountSid"`
	From              string `form:"From"` // WhatsApp number (whatsapp:+22997000000)
	To                string `form:"To"`   // Your Twilio number
	Body              string `form:"Body"` // Message text
	NumMedia          string `form:"NumMedia"`
	MediaUrl0         string `form:"MediaUrl0"`
	MediaContentType0 string `form:"MediaContentType0"`
}

// HandleWebhook admits an incoming WhatsApp message. Replies are sent later
// by the outbox, so Twilio gets its acknowledgement right away.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks carry no sender
	if payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	if payload.MessageSid != "" && h.dedupe != nil && h.dedupe.CheckAndMark(payload.MessageSid) {
		metrics.InboundMessagesTotal.WithLabelValues("duplicate").Inc()
		log.Printf("🔁 Duplicate webhook for %s ignored", payload.MessageSid)
		return c.SendStatus(fiber.StatusOK)
	}

	msg := h.inboundFromTwilio(payload)
	if msg.Body == "" && !msg.HasMedia {
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("📱 WhatsApp message from %s: %q (media=%t)", msg.UserID, msg.Body, msg.HasMedia)

	if err := h.admitter.Submit(msg); err != nil {
		log.Printf("❌ Could not admit message from %s: %v", msg.UserID, err)
		// Twilio redelivers on 503; that retry must not look like a duplicate
		if payload.MessageSid != "" && h.dedupe != nil {
			h.dedupe.Forget(payload.MessageSid)
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Service is shutting down",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *WhatsAppHandler) inboundFromTwilio(p TwilioWebhookPayload) models.InboundMessage {
	msg := models.InboundMessage{
		ID:     p.MessageSid,
		From:   p.From,
		UserID: utils.NormalizeUserID(p.From),
		Body:   strings.TrimSpace(p.Body),
	}

	numMedia, _ := strconv.Atoi(p.NumMedia)
	if numMedia > 0 && p.MediaUrl0 != "" {
		msg.HasMedia = true
		msg.Media = &services.TwilioMedia{
			Downloader:  h.downloader,
			URL:         p.MediaUrl0,
			ContentType: p.MediaContentType0,
		}
	}
	return msg
}

// TestWebhookPayload is a message for testing without Twilio
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook runs a message through the engine and returns the
// replies in the response instead of sending them (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil || payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook received from %s: %s", payload.From, payload.Message)

	ctx, cancel := context.WithTimeout(c.UserContext(), testWebhookTimeout)
	defer cancel()

	replies, err := h.admitter.Process(ctx, models.InboundMessage{
		From:   payload.From,
		UserID: utils.NormalizeUserID(payload.From),
		Body:   strings.TrimSpace(payload.Message),
	})
	if err != nil {
		log.Printf("❌ Test message from %s failed: %v", payload.From, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"responses": replies,
	})
}
