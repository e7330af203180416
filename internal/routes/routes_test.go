package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/handlers"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

type nopAdmitter struct{}

func (nopAdmitter) Submit(models.InboundMessage) error { return nil }

func (nopAdmitter) Process(context.Context, models.InboundMessage) ([]string, error) {
	return nil, nil
}

func newApp(opts Options) *fiber.App {
	app := fiber.New()
	SetupRoutes(app,
		handlers.NewWhatsAppHandler(nopAdmitter{}, nil, nil),
		handlers.NewHealthHandler("1.0.0", handlers.Counters{}),
		opts)
	return app
}

func status(t *testing.T, app *fiber.App, method, path string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestSetupRoutes_Production(t *testing.T) {
	app := newApp(Options{Version: "1.0.0", ValidateSignature: true, TwilioAuthToken: "token"})

	assert.Equal(t, http.StatusOK, status(t, app, http.MethodGet, "/"))
	assert.Equal(t, http.StatusOK, status(t, app, http.MethodGet, "/health"))
	assert.Equal(t, http.StatusOK, status(t, app, http.MethodGet, "/metrics"))
	assert.Equal(t, http.StatusUnauthorized, status(t, app, http.MethodPost, "/webhook/whatsapp"))
	assert.Equal(t, http.StatusNotFound, status(t, app, http.MethodPost, "/test/whatsapp"))
}

func TestSetupRoutes_Development(t *testing.T) {
	app := newApp(Options{Version: "1.0.0", Development: true})

	assert.Equal(t, http.StatusOK, status(t, app, http.MethodPost, "/webhook/whatsapp"))
	assert.Equal(t, http.StatusBadRequest, status(t, app, http.MethodPost, "/test/whatsapp"))
}
