package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"plantguard/internal/catalog"
	"plantguard/internal/classifier"
	"plantguard/internal/domain"
	"plantguard/internal/middleware"
	"plantguard/internal/repository"
	"plantguard/internal/repository/mocks"
	"plantguard/internal/service"
)

type memUploads struct{}

func (memUploads) Save(_ context.Context, name string, _ []byte) (string, error) { return name, nil }

type stubClassifier struct {
	pred  classifier.Prediction
	err   error
	calls int
}

func (s *stubClassifier) Predict([]byte) (classifier.Prediction, error) {
	s.calls++
	return s.pred, s.err
}

type syncRecorder struct {
	mu      sync.Mutex
	records []domain.PredictionRecord
}

func (r *syncRecorder) Record(rec domain.PredictionRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

func newCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	n := catalog.DefaultNumClasses
	diseases := make([]domain.DiseaseRecord, n)
	supplements := make([]domain.SupplementRecord, n)
	for i := 0; i < n; i++ {
		diseases[i] = domain.DiseaseRecord{ClassIndex: i, DiseaseName: fmt.Sprintf("Disease %d", i), Description: "d", RemediationSteps: "s", ImageURL: "https://img.example/d.jpg"}
		supplements[i] = domain.SupplementRecord{ClassIndex: i, DiseaseName: fmt.Sprintf("Disease %d", i), SupplementName: fmt.Sprintf("Supp %d", i), ImageURL: "https://img.example/s.jpg", BuyLink: "https://shop.example"}
	}
	store, err := catalog.New(diseases, supplements, n)
	require.NoError(t, err)
	return store
}

type testEnv struct {
	router   *gin.Engine
	clf      *stubClassifier
	recorder *syncRecorder
	predRepo *mocks.PredictionRepository
	userRepo *mocks.UserRepository
	contacts *mocks.ContactRepository
	pinger   *mocks.Pinger
	auth     *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		clf:      &stubClassifier{pred: classifier.Prediction{ClassIndex: 2, Confidence: 88.5}},
		recorder: &syncRecorder{},
		predRepo: new(mocks.PredictionRepository),
		userRepo: new(mocks.UserRepository),
		contacts: new(mocks.ContactRepository),
		pinger:   new(mocks.Pinger),
	}
	cat := newCatalog(t)
	auth, err := service.NewAuthService(env.userRepo, "handler-test-secret", 24)
	require.NoError(t, err)
	env.auth = auth

	pred := NewPredictionHandler(service.NewPredictionService(memUploads{}, env.clf, cat, env.recorder, env.predRepo, nil), 1<<20)
	authH := NewAuthHandler(auth)

	r := gin.New()
	r.POST("/api/predict", pred.Predict)
	r.GET("/api/history", pred.History)
	r.GET("/api/health", NewHealthHandler(service.NewHealthService(env.pinger)).Health)
	r.GET("/api/market", NewMarketHandler(service.NewMarketService(cat)).List)
	r.POST("/api/contact", NewContactHandler(service.NewContactService(env.contacts)).Submit)
	r.POST("/signup", authH.Signup)
	r.POST("/login", authH.Login)
	r.GET("/protected", middleware.Auth(auth), authH.Protected)
	env.router = r
	return env
}

func (e *testEnv) do(req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/predict", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// --- /api/predict ---

func TestPredict_Success(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(multipartRequest(t, "image", "leaf.jpg", []byte("jpeg bytes")))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	pred := body["prediction"].(map[string]interface{})
	assert.Equal(t, "Disease 2", pred["disease_name"])
	assert.Equal(t, 88.5, pred["confidence"])
	assert.EqualValues(t, 2, pred["class_index"])
	assert.Equal(t, "s", pred["possible_steps"])
	assert.Equal(t, "https://img.example/d.jpg", pred["disease_image_url"])
	supp := pred["supplement"].(map[string]interface{})
	assert.Equal(t, "Supp 2", supp["name"])
	assert.Equal(t, "https://shop.example", supp["buy_link"])
	assert.Len(t, env.recorder.records, 1)
}

func TestPredict_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		status  int
		message string
	}{
		{"missing file", func(t *testing.T) *http.Request { return multipartRequest(t, "", "", nil) },
			http.StatusBadRequest, "No image file provided. Send a file with key 'image'."},
		{"wrong field", func(t *testing.T) *http.Request { return multipartRequest(t, "file", "leaf.png", []byte("x")) },
			http.StatusBadRequest, "No image file provided. Send a file with key 'image'."},
		{"text file", func(t *testing.T) *http.Request { return multipartRequest(t, "image", "notes.txt", []byte("x")) },
			http.StatusBadRequest, "Unsupported file type."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			w, body := env.do(tc.req(t))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["error"])
			assert.Zero(t, env.clf.calls, "inference must not run")
		})
	}
}

func TestPredict_InvalidImage(t *testing.T) {
	env := newTestEnv(t)
	env.clf.err = fmt.Errorf("%w: bad header", classifier.ErrDecode)

	w, body := env.do(multipartRequest(t, "image", "leaf.png", []byte("not a png")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Uploaded file is not a valid image.", body["error"])
}

func TestPredict_InferenceError(t *testing.T) {
	env := newTestEnv(t)
	env.clf.err = fmt.Errorf("%w: boom", classifier.ErrInference)

	w, body := env.do(multipartRequest(t, "image", "leaf.png", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, msgUnexpected, body["error"])
}

// --- /api/history ---

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	records := []domain.PredictionRecord{
		{ID: "b", DiseaseName: "Disease 1"},
		{ID: "a", DiseaseName: "Disease 0"},
	}
	env.predRepo.On("FindRecent", mock.Anything, 5).Return(records, nil).Once()
	env.predRepo.On("FindRecent", mock.Anything, service.DefaultHistoryLimit).Return([]domain.PredictionRecord{}, nil).Once()

	w, body := env.do(httptest.NewRequest(http.MethodGet, "/api/history?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	preds := body["predictions"].([]interface{})
	require.Len(t, preds, 2)
	assert.Equal(t, "b", preds[0].(map[string]interface{})["_id"])

	w, body = env.do(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["predictions"])

	env.predRepo.AssertExpectations(t)
}

func TestHistory_BadLimit(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(httptest.NewRequest(http.MethodGet, "/api/history?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestHistory_StoreDown(t *testing.T) {
	env := newTestEnv(t)
	env.predRepo.On("FindRecent", mock.Anything, 20).Return(nil, errors.New("no reachable servers")).Once()

	w, _ := env.do(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// --- /api/health ---

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.pinger.On("Name").Return("mongodb")
	env.pinger.On("Ping", mock.Anything).Return(nil).Once()
	env.pinger.On("Ping", mock.Anything).Return(errors.New("down")).Once()

	w, body := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"status": "ok", "mongodb": "connected"}, body)

	w, body = env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, map[string]interface{}{"status": "error", "mongodb": "disconnected"}, body)
}

// --- /api/market, /api/contact ---

func TestMarket(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(httptest.NewRequest(http.MethodGet, "/api/market", nil))
	require.Equal(t, http.StatusOK, w.Code)
	items := body["items"].([]interface{})
	assert.Len(t, items, 39)
	assert.Equal(t, "Supp 0", items[0].(map[string]interface{})["supplement_name"])
}

func TestContact(t *testing.T) {
	env := newTestEnv(t)
	env.contacts.On("Save", mock.Anything, mock.AnythingOfType("*domain.ContactMessage")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.ContactMessage).ID = "c1" }).
		Return(nil).Once()

	w, body := env.do(jsonRequest(http.MethodPost, "/api/contact", `{"name":"A","email":"a@example.com","message":"hello"}`))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "c1", body["id"])

	w, _ = env.do(jsonRequest(http.MethodPost, "/api/contact", `{"name":"A"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContact_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(jsonRequest(http.MethodPost, "/api/contact", `{"name":"A","email":"not-an-email","message":"hello"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	env.contacts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- /signup, /login, /protected ---

func TestSignup(t *testing.T) {
	env := newTestEnv(t)
	env.userRepo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, repository.ErrUserNotFound).Once()
	env.userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.User).ID = "u-1" }).
		Return(nil).Once()

	w, body := env.do(jsonRequest(http.MethodPost, "/signup", `{"name":"New","email":"new@example.com","password":"pw123456"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "u-1", body["user_id"])
	assert.Equal(t, "User created successfully.", body["message"])
}

func TestSignup_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.userRepo.On("FindByEmail", mock.Anything, "dup@example.com").Return(&domain.User{ID: "u0"}, nil).Once()

	w, body := env.do(jsonRequest(http.MethodPost, "/signup", `{"name":"Dup","email":"dup@example.com","password":"pw"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already registered.", body["error"])

	w, _ = env.do(jsonRequest(http.MethodPost, "/signup", `{"email":"x@example.com"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(jsonRequest(http.MethodPost, "/signup", `not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndProtected(t *testing.T) {
	env := newTestEnv(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	env.userRepo.On("FindByEmail", mock.Anything, "me@example.com").
		Return(&domain.User{ID: "u-7", Name: "Me", Email: "me@example.com", Password: string(hash)}, nil)

	w, body := env.do(jsonRequest(http.MethodPost, "/login", `{"email":"me@example.com","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password.", body["error"])

	w, body = env.do(jsonRequest(http.MethodPost, "/login", `{"email":"me@example.com","password":"s3cret"}`))
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"id": "u-7", "name": "Me", "email": "me@example.com"}, user)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w, body = env.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-7", body["user_id"])

	w, _ = env.do(httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
