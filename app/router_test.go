package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mangrovewatch/report-api/internal"
	"mangrovewatch/report-api/internal/service"
	"mangrovewatch/report-api/internal/store"
	"mangrovewatch/report-api/internal/testutil"
	"mangrovewatch/report-api/pkg/middleware"
	"mangrovewatch/report-api/pkg/response"
	"mangrovewatch/report-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPhoto = base64.StdEncoding.EncodeToString(
	[]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"),
)

type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *inbox) SendVerificationEmail(_ context.Context, address, code, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[address] = code
	return nil
}

func (m *inbox) code(address string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[address]
}

type envelope struct {
	Success   bool                `json:"success"`
	Data      json.RawMessage     `json:"data"`
	Code      string              `json:"code"`
	Error     string              `json:"error"`
	Errors    []map[string]string `json:"errors"`
	RequestID string              `json:"requestID"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	deps   *internal.Deps
	mail   *inbox
}

func newTestServer(t *testing.T, settings map[string]any) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("host.cors", []string{"http://localhost:8081"})
	viper.Set("security.rate_limit", 1000)
	viper.Set("reports.max_body_size", 1)
	viper.Set("reports.cache_seconds", 0)
	for k, v := range settings {
		viper.Set(k, v)
	}

	gdb := testutil.NewDB(t)
	st := store.New(gdb)
	tokens := security.NewTokenIssuer("router-secret", time.Hour)
	argon := security.NewWithParams(1024, 1, 1)
	mail := &inbox{codes: map[string]string{}}

	d := &internal.Deps{
		DB:       gdb,
		Store:    st,
		Argon:    argon,
		Tokens:   tokens,
		Accounts: service.NewAccounts(st.Users, argon, tokens, service.NewOTPIssuer(service.DefaultOTPTTL), mail, service.AccountOptions{}),
		Reports:  service.NewReports(st.Reports, nil),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return &testServer{t: t, router: NewRouter(ctx, d), deps: d, mail: mail}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}

	return w, env
}

// account signs up, verifies and returns a session token.
func (s *testServer) account(name, email string) string {
	s.t.Helper()

	w, _ := s.do(http.MethodPost, "/api/users", "", gin.H{
		"name":     name,
		"mobile":   "+6591234567",
		"email":    email,
		"password": "mangroves4ever",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodPost, "/api/users/verify", "", gin.H{
		"email": email,
		"code":  s.mail.code(email),
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var session service.Session
	require.NoError(s.t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(s.t, session.Token)

	return session.Token
}

func (s *testServer) submit(token string) string {
	s.t.Helper()

	w, env := s.do(http.MethodPost, "/api/reports", token, gin.H{
		"category":    "waste-dumping",
		"description": "Plastic bags caught in the roots near the jetty",
		"location":    gin.H{"latitude": 1.4422, "longitude": 103.7301, "address": "Sungei Buloh boardwalk"},
		"photo":       testPhoto,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var r struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &r))
	require.Equal(s.t, "PENDING", r.Status)

	return r.ID
}

func TestSignupAndVerifyFlow(t *testing.T) {
	s := newTestServer(t, nil)

	body := gin.H{"name": "Alice", "mobile": "+6591234567", "email": "Alice@Example.com", "password": "mangroves4ever"}

	w, env := s.do(http.MethodPost, "/api/users", "", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.NotContains(t, w.Body.String(), "passwordHash")
	assert.NotContains(t, w.Body.String(), "devOtp")

	w, env = s.do(http.MethodPost, "/api/users", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeDuplicateAccount, env.Code)

	w, env = s.do(http.MethodPost, "/api/users/verify", "", gin.H{"email": "alice@example.com", "code": "000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeOTPMismatch, env.Code)

	w, env = s.do(http.MethodPost, "/api/users/verify", "", gin.H{"email": "alice@example.com", "code": "12ab"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeValidation, env.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "code", env.Errors[0]["field"])

	w, _ = s.do(http.MethodPost, "/api/users/verify", "", gin.H{"email": "alice@example.com", "code": s.mail.code("alice@example.com")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.AuthCookie+"=")

	w, env = s.do(http.MethodPost, "/api/users/resend", "", gin.H{"email": "alice@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeAlreadyVerified, env.Code)
}

func TestSignupMissingFields(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(http.MethodPost, "/api/users", "", gin.H{"name": "Alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeMissingFields, env.Code)
	assert.NotEmpty(t, env.Errors)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), response.CodeValidation)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil)
	s.account("Alice", "alice@example.com")

	w, wrongPassword := s.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "alice@example.com", "password": "not-the-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeInvalidCredentials, wrongPassword.Code)

	w, unknown := s.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "nobody@example.com", "password": "not-the-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongPassword.Error, unknown.Error)

	w, env := s.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "ALICE@example.com", "password": "mangroves4ever"})
	require.Equal(t, http.StatusOK, w.Code)

	var session service.Session
	require.NoError(t, json.Unmarshal(env.Data, &session))

	w, env = s.do(http.MethodGet, "/api/users/me", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"email":"alice@example.com"`)
	assert.NotContains(t, string(env.Data), "otp")
}

func TestMeRequiresToken(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeUnauthorized, env.Code)

	w, _ = s.do(http.MethodGet, "/api/users/me", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionCookie(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.account("Alice", "alice@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: token})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReportLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.account("Alice", "alice@example.com")
	bob := s.account("Bob", "bob@example.com")

	id := s.submit(alice)

	w, env := s.do(http.MethodGet, "/api/users/me", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"points":10`)

	w, env = s.do(http.MethodGet, "/api/reports/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.CodeForbidden, env.Code)

	w, env = s.do(http.MethodPatch, "/api/reports/"+id, alice, gin.H{"status": "VERIFIED"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.CodeForbidden, env.Code)

	w, env = s.do(http.MethodPatch, "/api/reports/"+id, alice, gin.H{"description": "Plastic bags and a fishing net in the roots"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "fishing net")

	require.NoError(t, s.deps.Accounts.PromoteAdmin(context.Background(), "bob@example.com"))

	w, env = s.do(http.MethodPatch, "/api/reports/"+id, bob, gin.H{"status": "VERIFIED"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"VERIFIED"`)

	w, _ = s.do(http.MethodDelete, "/api/reports/"+id, alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/reports/"+id, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeNotFound, env.Code)
}

func TestSubmitValidation(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.account("Alice", "alice@example.com")

	w, env := s.do(http.MethodPost, "/api/reports", alice, gin.H{"category": "waste-dumping"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeMissingFields, env.Code)

	w, env = s.do(http.MethodPost, "/api/reports", alice, gin.H{
		"category":    "fireworks",
		"description": "Plastic bags caught in the roots near the jetty",
		"location":    gin.H{"latitude": 91.0, "longitude": 103.7301, "address": "Sungei Buloh boardwalk"},
		"photo":       testPhoto,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeValidation, env.Code)

	fields := []string{}
	for _, e := range env.Errors {
		fields = append(fields, e["field"])
	}
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "location.latitude")

	w, env = s.do(http.MethodPost, "/api/reports", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.CodeUnauthorized, env.Code)
}

func TestSubmitBodyTooLarge(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.account("Alice", "alice@example.com")

	w, env := s.do(http.MethodPost, "/api/reports", alice, gin.H{
		"category":    "waste-dumping",
		"description": "Plastic bags caught in the roots near the jetty",
		"location":    gin.H{"latitude": 1.4422, "longitude": 103.7301, "address": "Sungei Buloh boardwalk"},
		"photo":       strings.Repeat("A", 2<<20),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, response.CodePayloadTooLarge, env.Code)
}

func TestListings(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.account("Alice", "alice@example.com")
	bob := s.account("Bob", "bob@example.com")

	for range 3 {
		s.submit(alice)
	}
	s.submit(bob)

	w, env := s.do(http.MethodGet, "/api/reports/mine?pageSize=2", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var own struct {
		Items      []map[string]any `json:"items"`
		Pagination map[string]any   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &own))
	assert.Len(t, own.Items, 2)
	assert.EqualValues(t, 3, own.Pagination["totalCount"])
	assert.EqualValues(t, 2, own.Pagination["totalPages"])
	assert.Equal(t, true, own.Pagination["hasNextPage"])
	assert.Equal(t, false, own.Pagination["hasPrevPage"])

	w, env = s.do(http.MethodGet, "/api/reports/community", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"reporter":{"name":"Bob"}`)
	assert.NotContains(t, string(env.Data), "alice@example.com")
	assert.NotContains(t, string(env.Data), "userId")

	w, env = s.do(http.MethodGet, "/api/reports/community?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeValidation, env.Code)

	w, env = s.do(http.MethodGet, "/api/reports/community?pageSize=ten", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "pageSize", env.Errors[0]["field"])

	w, env = s.do(http.MethodGet, "/api/reports/community?category=pollution", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"totalCount":0`)
}

func TestCommunityListingIsCached(t *testing.T) {
	s := newTestServer(t, map[string]any{"reports.cache_seconds": 60})
	alice := s.account("Alice", "alice@example.com")

	w, first := s.do(http.MethodGet, "/api/reports/community", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	firstID := w.Header().Get(middleware.RequestIDHeader)
	s.submit(alice)

	w, second := s.do(http.MethodGet, "/api/reports/community", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(first.Data), string(second.Data))

	// A replay must not hand out another caller's request ID
	assert.Empty(t, first.RequestID)
	assert.Empty(t, second.RequestID)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.NotEqual(t, firstID, w.Header().Get(middleware.RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, map[string]any{"security.rate_limit": 1})

	body := gin.H{"email": "nobody@example.com", "password": "whatever1"}

	var last *httptest.ResponseRecorder
	var env envelope
	for range 5 {
		last, env = s.do(http.MethodPost, "/api/users/login", "", body)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, response.CodeTooManyRequests, env.Code)
}

func TestHeartbeatAndNoRoute(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodHead, "/api/heartbeat", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeNotFound, env.Code)
}
