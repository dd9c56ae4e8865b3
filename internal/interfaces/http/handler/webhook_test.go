package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"github.com/taskflow/backend/internal/infrastructure/webhook"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Process(ctx context.Context, deliveryID string, evt identityapp.SyncEvent) error {
	return m.Called(ctx, deliveryID, evt).Error(0)
}

type webhookFixture struct {
	router    *gin.Engine
	verifier  *webhook.Verifier
	processor *mockProcessor
}

func newWebhookFixture(t *testing.T, maxBody int64) *webhookFixture {
	t.Helper()
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("handler-test-secret"))
	v, err := webhook.NewVerifier(config.WebhookConfig{Secret: secret})
	require.NoError(t, err)

	f := &webhookFixture{verifier: v, processor: new(mockProcessor)}
	h := NewWebhookHandler(v, f.processor, nil, maxBody)
	f.router = newActorRouter(nil)
	f.router.POST("/api/webhooks/identity", h.HandleIdentityEvent)
	return f
}

func (f *webhookFixture) deliver(id, body string, sign bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewBufferString(body))
	if sign {
		now := time.Now()
		req.Header.Set(webhook.HeaderID, id)
		req.Header.Set(webhook.HeaderTimestamp, strconv.FormatInt(now.Unix(), 10))
		sig, _ := f.verifier.Sign(id, now, []byte(body))
		req.Header.Set(webhook.HeaderSignature, sig)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

const userDeletedBody = `{"type":"user.deleted","data":{"id":"user_1"}}`

func TestWebhookHandler_MissingHeaders(t *testing.T) {
	f := newWebhookFixture(t, 0)

	w := f.deliver("", userDeletedBody, false)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_BadSignature(t *testing.T) {
	f := newWebhookFixture(t, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewBufferString(userDeletedBody))
	req.Header.Set(webhook.HeaderID, "msg_1")
	req.Header.Set(webhook.HeaderTimestamp, strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set(webhook.HeaderSignature, "v1,Zm9yZ2Vk")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeSignatureInvalid, decodeResponse(t, w).Error.Code)
	f.processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_Processes(t *testing.T) {
	f := newWebhookFixture(t, 0)
	f.processor.On("Process", mock.Anything, "msg_1", identityapp.UserDeleted{UserID: "user_1"}).Return(nil)

	w := f.deliver("msg_1", userDeletedBody, true)

	assert.Equal(t, http.StatusOK, w.Code)
	f.processor.AssertExpectations(t)
}

func TestWebhookHandler_MalformedPayload(t *testing.T) {
	f := newWebhookFixture(t, 0)
	w := f.deliver("msg_2", `{"data":{}}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, decodeResponse(t, w).Error.Code)
}

func TestWebhookHandler_ProcessingFailureIs5xx(t *testing.T) {
	f := newWebhookFixture(t, 0)
	f.processor.On("Process", mock.Anything, "msg_3", mock.Anything).Return(errors.New("db down"))

	w := f.deliver("msg_3", userDeletedBody, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	f2 := newWebhookFixture(t, 0)
	f2.processor.On("Process", mock.Anything, "msg_4", mock.Anything).
		Return(shared.UpstreamError("Update provider metadata", errors.New("timeout")))
	w = f2.deliver("msg_4", userDeletedBody, true)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestWebhookHandler_BodyTooLarge(t *testing.T) {
	f := newWebhookFixture(t, 16)
	w := f.deliver("msg_5", userDeletedBody, true)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
