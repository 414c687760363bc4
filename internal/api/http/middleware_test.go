package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/observability"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(metrics *observability.Metrics) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/denied", func(c *fiber.Ctx) error {
		return apperrors.NewPermissionDenied("nope", map[string]any{"ticket_id": "t1"})
	})
	app.Get("/transition", func(c *fiber.Ctx) error {
		return apperrors.NewInvalidStateTransition("CLOSED", "OPEN")
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": "fine"})
	})
	return app
}

func decode(t *testing.T, body io.Reader) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestErrorMiddlewareRendersDomainErrors(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newTestApp(metrics)

	resp, err := app.Test(httptest.NewRequest("GET", "/denied", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, apperrors.CodePermissionDenied, body.Error.Code)
	assert.Equal(t, "t1", body.Error.Details["ticket_id"])

	resp, err = app.Test(httptest.NewRequest("GET", "/transition", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperrors.CodeInvalidStateTransition, decode(t, resp.Body).Error.Code)

	snap := metrics.Snapshot()
	var denied, forbidden int64
	for key, n := range snap.Errors {
		if strings.HasSuffix(key, "|"+apperrors.CodePermissionDenied) {
			denied += n
		}
	}
	for key, n := range snap.Requests {
		if strings.HasSuffix(key, "|GET|403") {
			forbidden += n
		}
	}
	assert.Equal(t, int64(1), denied)
	assert.Equal(t, int64(1), forbidden)
}

func TestErrorMiddlewareWithoutMetrics(t *testing.T) {
	app := newTestApp(nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/denied", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, apperrors.CodePermissionDenied, decode(t, resp.Body).Error.Code)

	resp, err = app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	app := newTestApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, apperrors.CodeInternal, decode(t, resp.Body).Error.Code)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	app := newTestApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "HTTP_ERROR", decode(t, resp.Body).Error.Code)
}
