package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/axellelanca/qrforge/internal/content"
	"github.com/axellelanca/qrforge/internal/models"
	"github.com/axellelanca/qrforge/internal/repository"
	"github.com/axellelanca/qrforge/internal/services"
)

const testSecret = "test-secret"

type stubRenderer struct{}

func (stubRenderer) Render(text string, tolerance content.ErrorTolerance, sizePx int) ([]byte, error) {
	return []byte("png|" + text), nil
}

func setupRouter(t *testing.T) (*gin.Engine, *services.CodeService, repository.CodeRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "api_test.db") + "?_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ScannableCode{}, &models.AnalyticsEvent{}))

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	codeRepo := repository.NewCodeRepository(db)
	eventRepo := repository.NewEventRepository(db)
	codeService := services.NewCodeService(codeRepo, eventRepo, stubRenderer{}, log, "https://qr.example.com", 8)
	resolver := services.NewResolverService(codeRepo, eventRepo, log)

	// Fresh channel per test so full-buffer drops in one test can't
	// leak into another.
	ScanEventsChannel = make(chan models.ScanEventMsg, 64)

	router := gin.New()
	SetupRoutes(router, codeService, resolver, log, testSecret, 64)
	return router, codeService, codeRepo
}

func bearer(t *testing.T, owner string) string {
	t.Helper()
	token, err := IssueToken(testSecret, owner, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateCodeRequiresAuth(t *testing.T) {
	router, _, _ := setupRouter(t)

	body := `{"kind":"url","payload":{"url":"https://example.com"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/codes", bytes.NewBufferString(body))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/codes", bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateCodeEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	body := `{
		"kind": "url",
		"mode": "dynamic",
		"payload": {"url": "example.com/landing"},
		"options": {"use_case": "print"},
		"metadata": {"name": "campaign"}
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/codes", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, "alice"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp CreateCodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "url", resp.Kind)
	assert.Equal(t, "dynamic", resp.Mode)
	assert.Equal(t, content.ToleranceHigh, content.ErrorTolerance(resp.ErrorTolerance)) // print use case
	assert.NotEmpty(t, resp.ShortCode)
	assert.Equal(t, "https://qr.example.com/"+resp.ShortCode, resp.ShortURL)
	assert.Equal(t, 21+(resp.Version-1)*4, resp.ModuleCount)
}

func TestCreateCodeValidationErrors(t *testing.T) {
	router, _, _ := setupRouter(t)

	body := `{"kind":"wifi","payload":{"ssid":"Office","security":"WPA2"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/codes", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, "alice"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Errors)
}

func createViaAPI(t *testing.T, router *gin.Engine, owner, body string) CreateCodeResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/codes", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, owner))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp CreateCodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestResolveRedirectsURLKind(t *testing.T) {
	router, _, _ := setupRouter(t)

	created := createViaAPI(t, router, "alice",
		`{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com/target"}}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/"+created.ShortCode, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/target", w.Header().Get("Location"))
}

func TestResolveUnknownCode(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/doesnot1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	// Terse and generic, nothing about the owner's state.
	assert.Contains(t, w.Body.String(), unavailableMessage)
}

func TestResolveInactiveCodeIsGeneric(t *testing.T) {
	router, _, repo := setupRouter(t)

	created := createViaAPI(t, router, "alice",
		`{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com"}}`)

	code, err := repo.GetCodeByShortCode(created.ShortCode)
	require.NoError(t, err)
	code.Status = models.StatusInactive
	require.NoError(t, repo.UpdateCode(code))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/"+created.ShortCode, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), unavailableMessage)
	assert.NotContains(t, w.Body.String(), "owner")
}

func TestResolveEnqueuesScanEvent(t *testing.T) {
	router, _, _ := setupRouter(t)

	created := createViaAPI(t, router, "alice",
		`{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com"}}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/"+created.ShortCode, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)

	select {
	case msg := <-ScanEventsChannel:
		assert.Equal(t, models.EventScan, msg.EventType)
		assert.Equal(t, "Mozilla/5.0", msg.UserAgent)
	default:
		t.Fatal("expected a scan event on the channel")
	}
}

func TestUpdateDestinationEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	created := createViaAPI(t, router, "alice",
		`{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com/old"}}`)

	body := `{"payload":{"url":"https://example.com/new"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/codes/"+created.ShortCode+"/destination", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, "alice"))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The public resolution now lands on the new destination.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/"+created.ShortCode, nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://example.com/new", w.Header().Get("Location"))
}

func TestUpdateDestinationWrongOwner(t *testing.T) {
	router, _, _ := setupRouter(t)

	created := createViaAPI(t, router, "alice",
		`{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com"}}`)

	body := `{"payload":{"url":"https://evil.example.org"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/codes/"+created.ShortCode+"/destination", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, "mallory"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsEndpointScopedToOwner(t *testing.T) {
	router, _, _ := setupRouter(t)

	created := createViaAPI(t, router, "alice",
		`{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com"}}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/codes/"+created.ShortCode+"/stats", nil)
	req.Header.Set("Authorization", bearer(t, "alice"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/codes/"+created.ShortCode+"/stats", nil)
	req.Header.Set("Authorization", bearer(t, "mallory"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCodesEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	createViaAPI(t, router, "alice", `{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com/a"}}`)
	createViaAPI(t, router, "alice", `{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com/b"}}`)
	createViaAPI(t, router, "bob", `{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com/c"}}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/codes", nil)
	req.Header.Set("Authorization", bearer(t, "alice"))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Codes []struct {
			ShortCode string `json:"short_code"`
			ShortURL  string `json:"short_url"`
			Kind      string `json:"kind"`
		} `json:"codes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Codes, 2)
	for _, c := range resp.Codes {
		assert.Equal(t, "url", c.Kind)
		assert.Equal(t, "https://qr.example.com/"+c.ShortCode, c.ShortURL)
	}
}

func TestDeleteCodeEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	created := createViaAPI(t, router, "alice",
		`{"kind":"url","mode":"dynamic","payload":{"url":"https://example.com"}}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/codes/"+created.ShortCode, nil)
	req.Header.Set("Authorization", bearer(t, "mallory"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/codes/"+created.ShortCode, nil)
	req.Header.Set("Authorization", bearer(t, "alice"))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// A deleted code stops resolving.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/"+created.ShortCode, nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEventsEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	created := createViaAPI(t, router, "alice", `{
		"kind": "multi_destination",
		"payload": {
			"title": "Links",
			"links": [{"id": "a", "title": "Site", "target_url": "https://example.com/a"}]
		}
	}`)

	// A link tap leaves one click event behind.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/"+created.ShortCode+"/links/a/click", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/codes/"+created.ShortCode+"/events", nil)
	req.Header.Set("Authorization", bearer(t, "alice"))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Events []struct {
			EventType string `json:"event_type"`
			SessionID string `json:"session_id"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "click", resp.Events[0].EventType)
	assert.NotEmpty(t, resp.Events[0].SessionID)

	// Other owners cannot read the export.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/codes/"+created.ShortCode+"/events", nil)
	req.Header.Set("Authorization", bearer(t, "mallory"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/codes/"+created.ShortCode+"/events?limit=zero", nil)
	req.Header.Set("Authorization", bearer(t, "alice"))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkClickEndpoint(t *testing.T) {
	router, _, repo := setupRouter(t)

	created := createViaAPI(t, router, "alice", `{
		"kind": "multi_destination",
		"payload": {
			"title": "Links",
			"links": [{"id": "a", "title": "Site", "target_url": "https://example.com/a"}]
		}
	}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/"+created.ShortCode+"/links/a/click", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	code, err := repo.GetCodeByShortCode(created.ShortCode)
	require.NoError(t, err)
	payload, err := code.Payload()
	require.NoError(t, err)
	page := payload.(content.MultiDestinationPayload)
	assert.Equal(t, int64(1), page.Links[0].ClickCount)
}
