package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/IACMS/IACMS/models"
	"github.com/IACMS/IACMS/permissions"
	"github.com/IACMS/IACMS/sessions"
	"github.com/IACMS/IACMS/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessionResolver struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	err      error
	touched  []string
}

func (f *fakeSessionResolver) Resolve(ctx context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	session, ok := f.sessions[id]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	return session, nil
}

func (f *fakeSessionResolver) Touch(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeSessionResolver) touchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.touched)
}

type fakeTokenValidator struct {
	identity models.Identity
	err      error
}

func (f *fakeTokenValidator) ValidateAccess(tokenString string) (models.Identity, error) {
	if f.err != nil {
		return models.Identity{}, f.err
	}
	return f.identity, nil
}

func testCookieCodec(t *testing.T) *sessions.CookieCodec {
	t.Helper()
	hashKey := []byte("0123456789abcdef0123456789abcdef")
	blockKey := []byte("fedcba9876543210fedcba9876543210")
	return sessions.NewCookieCodec(hashKey, blockKey, false, time.Hour)
}

func testSession() *models.Session {
	now := time.Now()
	return &models.Session{
		ID:             "sess-1",
		SubjectID:      uuid.New(),
		TenantID:       uuid.New(),
		Email:          "analyst@example.com",
		DisplayName:    "Analyst",
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(time.Hour),
	}
}

func newTestAuthenticator(t *testing.T, resolver *fakeSessionResolver, validator *fakeTokenValidator) (*Authenticator, *sessions.CookieCodec) {
	t.Helper()
	codec := testCookieCodec(t)
	public := permissions.NewAllowlist([]permissions.PublicRoute{
		{Method: http.MethodGet, Path: "/healthz"},
	})
	return NewAuthenticator(resolver, codec, validator, public, zap.NewNop()), codec
}

func identityCapture(captured **models.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetIdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func sessionRequest(t *testing.T, codec *sessions.CookieCodec, sessionID string) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, codec.Write(rec, sessionID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func TestAuthenticateSessionCookie(t *testing.T) {
	session := testSession()
	resolver := &fakeSessionResolver{sessions: map[string]*models.Session{session.ID: session}}
	auth, codec := newTestAuthenticator(t, resolver, &fakeTokenValidator{})

	var captured *models.Identity
	rec := httptest.NewRecorder()
	auth.Authenticate(identityCapture(&captured)).ServeHTTP(rec, sessionRequest(t, codec, session.ID))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, session.SubjectID, captured.SubjectID)
	assert.Equal(t, models.AuthMethodSession, captured.Method)

	assert.Eventually(t, func() bool {
		return resolver.touchCount() == 1
	}, time.Second, 10*time.Millisecond, "session touch runs off the request path")
}

func TestAuthenticateSessionBeforeToken(t *testing.T) {
	session := testSession()
	resolver := &fakeSessionResolver{sessions: map[string]*models.Session{session.ID: session}}
	validator := &fakeTokenValidator{identity: models.Identity{
		SubjectID: uuid.New(),
		TenantID:  uuid.New(),
		Method:    models.AuthMethodJWT,
	}}
	auth, codec := newTestAuthenticator(t, resolver, validator)

	req := sessionRequest(t, codec, session.ID)
	req.Header.Set("Authorization", "Bearer some-token")

	var captured *models.Identity
	rec := httptest.NewRecorder()
	auth.Authenticate(identityCapture(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, session.SubjectID, captured.SubjectID, "session wins when both credentials are present")
	assert.Equal(t, models.AuthMethodSession, captured.Method)
}

func TestAuthenticateBearerToken(t *testing.T) {
	identity := models.Identity{
		SubjectID: uuid.New(),
		TenantID:  uuid.New(),
		Email:     "api@example.com",
		Method:    models.AuthMethodJWT,
	}
	auth, _ := newTestAuthenticator(t, &fakeSessionResolver{}, &fakeTokenValidator{identity: identity})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	var captured *models.Identity
	rec := httptest.NewRecorder()
	auth.Authenticate(identityCapture(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, identity.SubjectID, captured.SubjectID)
	assert.Equal(t, models.AuthMethodJWT, captured.Method)
}

func TestAuthenticateNoCredential(t *testing.T) {
	auth, _ := newTestAuthenticator(t, &fakeSessionResolver{}, &fakeTokenValidator{err: token.ErrTokenInvalid})

	rec := httptest.NewRecorder()
	auth.Authenticate(identityCapture(new(*models.Identity))).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeNoCredential, errorCode(t, rec))
}

func TestAuthenticateExpiredVersusInvalidToken(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "expired token", err: token.ErrTokenExpired, code: CodeExpiredToken},
		{name: "invalid token", err: token.ErrTokenInvalid, code: CodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, _ := newTestAuthenticator(t, &fakeSessionResolver{}, &fakeTokenValidator{err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
			req.Header.Set("Authorization", "Bearer some-token")

			rec := httptest.NewRecorder()
			auth.Authenticate(identityCapture(new(*models.Identity))).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestAuthenticateStoreUnavailable(t *testing.T) {
	resolver := &fakeSessionResolver{err: sessions.ErrStoreUnavailable}
	auth, codec := newTestAuthenticator(t, resolver, &fakeTokenValidator{})

	rec := httptest.NewRecorder()
	auth.Authenticate(identityCapture(new(*models.Identity))).ServeHTTP(rec,
		sessionRequest(t, codec, "sess-1"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeSessionStoreUnavailable, errorCode(t, rec))
}

func TestAuthenticateUnknownSessionFallsThrough(t *testing.T) {
	identity := models.Identity{SubjectID: uuid.New(), TenantID: uuid.New(), Method: models.AuthMethodJWT}
	auth, codec := newTestAuthenticator(t, &fakeSessionResolver{}, &fakeTokenValidator{identity: identity})

	req := sessionRequest(t, codec, "gone")
	req.Header.Set("Authorization", "Bearer valid-token")

	var captured *models.Identity
	rec := httptest.NewRecorder()
	auth.Authenticate(identityCapture(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, models.AuthMethodJWT, captured.Method)
}

func TestAuthenticateTamperedCookieFallsThrough(t *testing.T) {
	identity := models.Identity{SubjectID: uuid.New(), TenantID: uuid.New(), Method: models.AuthMethodJWT}
	auth, _ := newTestAuthenticator(t, &fakeSessionResolver{}, &fakeTokenValidator{identity: identity})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: "forged"})
	req.Header.Set("Authorization", "Bearer valid-token")

	var captured *models.Identity
	rec := httptest.NewRecorder()
	auth.Authenticate(identityCapture(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, models.AuthMethodJWT, captured.Method)
}

func TestAuthenticateTamperedCookieAlone(t *testing.T) {
	auth, _ := newTestAuthenticator(t, &fakeSessionResolver{}, &fakeTokenValidator{err: token.ErrTokenInvalid})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: "forged"})

	rec := httptest.NewRecorder()
	auth.Authenticate(identityCapture(new(*models.Identity))).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeNoCredential, errorCode(t, rec))
}

func TestAuthenticatePublicRouteSkipsCredentials(t *testing.T) {
	resolver := &fakeSessionResolver{err: sessions.ErrStoreUnavailable}
	auth, _ := newTestAuthenticator(t, resolver, &fakeTokenValidator{err: token.ErrTokenInvalid})

	var captured *models.Identity
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Authorization", "Bearer garbage")

	auth.Authenticate(identityCapture(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured, "public requests carry no identity")
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "well formed", header: "Bearer abc123", want: "abc123"},
		{name: "case insensitive scheme", header: "bearer abc123", want: "abc123"},
		{name: "missing header", header: "", want: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractBearerToken(req))
		})
	}
}
