package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", w.Body.String())
	assert.Empty(t, w.Header().Get("HX-Trigger"), "HX-Trigger set without triggers")
}

func TestHTMXResponseBuilder_LedgerTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerLedgerChanged().
		TriggerFormReset().
		TriggerSuccessNotification(msgEntryAdded).
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	require.NotEmpty(t, trigger, "HX-Trigger header not set")

	for _, part := range []string{
		`"ledger:changed"`,
		`"form:reset"`,
		`"show-notification"`,
		`"type":"success"`,
		`"duration":3000`,
		"내역이 추가되었습니다",
	} {
		assert.Contains(t, trigger, part)
	}
}

func TestHTMXResponseBuilder_AnalyzerTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerUploadLoaded(42, "2024-03-01", "2024-03-31").
		TriggerPeriodSelected("2024-03-05", "2024-03-10").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, `"upload:loaded":{"end":"2024-03-31","rows":42,"start":"2024-03-01"}`)
	assert.Contains(t, trigger, `"period:selected":{"end":"2024-03-10","start":"2024-03-05"}`)
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Write(w)

	assert.Equal(t, "value", w.Header().Get("X-Custom"))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestMessageResponses(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error" role="status">Invalid input</div>`,
		},
		{
			name:       "unprocessable entity",
			builder:    UnprocessableEntityError(msgInvalidRange),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error" role="status">` + msgInvalidRange + `</div>`,
		},
		{
			name:       "zero amount warning",
			builder:    WarningResponse(http.StatusUnprocessableEntity, msgZeroAmount),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="warning" role="status">금액을 0보다 크게 입력해 주세요.</div>`,
		},
		{
			name:       "success",
			builder:    SuccessResponse(msgEntryAdded),
			wantStatus: http.StatusOK,
			wantBody:   `<div class="success" role="status">✅ 내역이 추가되었습니다!</div>`,
		},
		{
			name:       "too large",
			builder:    RequestEntityTooLargeError("big"),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   `<div class="error" role="status">big</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error" role="status">Something broke</div>`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("Resource not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="error" role="status">Resource not found</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, POST").Write(w)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
}

func TestNotificationTypes(t *testing.T) {
	tests := []struct {
		notifType NotificationType
		want      string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
		{NotificationWarning, "warning"},
		{NotificationInfo, "info"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		NewHTMXResponse().
			TriggerNotification(tt.notifType, "test", 1000).
			Write(w)

		assert.Contains(t, w.Header().Get("HX-Trigger"), `"type":"`+tt.want+`"`)
	}
}
