package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"scheduling-service/internal/authz"
	"scheduling-service/internal/models"
	"scheduling-service/internal/parser"
	"scheduling-service/internal/services"
)

type recordingCaseRepo struct {
	created int
}

func (m *recordingCaseRepo) Create(ctx context.Context, c *models.Case) error {
	m.created++
	return nil
}

func (m *recordingCaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	return nil, nil
}

func (m *recordingCaseRepo) GetByPublicID(ctx context.Context, publicID string) (*models.Case, error) {
	return nil, nil
}

func (m *recordingCaseRepo) List(ctx context.Context, tenantID uuid.UUID, createdBy *uuid.UUID) ([]models.Case, error) {
	return nil, nil
}

func (m *recordingCaseRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, stage *string) (*models.Case, error) {
	return nil, nil
}

func newWebhookRouter(secret string, repo *recordingCaseRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	intakeSvc := services.NewIntakeService(repo, nil, parser.NoopParser{}, authz.NewEngine(""), nil, 20, logger)
	handler := NewWebhookHandler(intakeSvc, secret, logger)

	router := gin.New()
	router.POST("/api/webhooks/zapier", handler.IngestEmail)
	return router
}

func postWebhook(router *gin.Engine, secret string, body map[string]interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/zapier", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(ZapierSecretHeader, secret)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const webhookEmail = "面接日程のご調整をお願いします。候補者の山田太郎様の一次面接について。"

func TestWebhookAcceptsValidSecret(t *testing.T) {
	repo := new(recordingCaseRepo)
	router := newWebhookRouter("hook-secret", repo)

	w := postWebhook(router, "hook-secret", map[string]interface{}{"email_text": webhookEmail})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, repo.created)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "zapier_webhook", resp["source"])
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	repo := new(recordingCaseRepo)
	router := newWebhookRouter("hook-secret", repo)

	w := postWebhook(router, "wrong", map[string]interface{}{"email_text": webhookEmail})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, repo.created)
}

func TestWebhookRejectsMissingSecret(t *testing.T) {
	repo := new(recordingCaseRepo)
	router := newWebhookRouter("hook-secret", repo)

	w := postWebhook(router, "", map[string]interface{}{"email_text": webhookEmail})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, repo.created)
}

func TestWebhookUnconfiguredSecret(t *testing.T) {
	repo := new(recordingCaseRepo)
	router := newWebhookRouter("", repo)

	w := postWebhook(router, "anything", map[string]interface{}{"email_text": webhookEmail})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0, repo.created)
}

func TestWebhookShortBody(t *testing.T) {
	repo := new(recordingCaseRepo)
	router := newWebhookRouter("hook-secret", repo)

	w := postWebhook(router, "hook-secret", map[string]interface{}{"email_text": "short"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, repo.created)
}
