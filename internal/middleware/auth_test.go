package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	sessions map[string]*Session
}

func (v *fakeValidator) ValidateToken(tokenString string) (*Session, error) {
	sess, ok := v.sessions[tokenString]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return sess, nil
}

func newAuthStack() (*AuthMiddleware, *fakeValidator) {
	v := &fakeValidator{sessions: map[string]*Session{
		"tok-liu":   {UserID: 1, Username: "liu"},
		"tok-admin": {UserID: 2, Username: "teacher", IsAdmin: true},
	}}
	return NewAuthMiddleware(v), v
}

func doRequest(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleRejectsMissingCookie(t *testing.T) {
	am, _ := newAuthStack()
	handler := am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a session")
	}))

	rec := doRequest(handler, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(handler, "tok-forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleInjectsSession(t *testing.T) {
	am, _ := newAuthStack()
	var got *Session
	handler := am.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromContext(r.Context())
		require.True(t, ok)
		got = sess
	}))

	rec := doRequest(handler, "tok-liu")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.UserID)
	assert.Equal(t, "liu", got.Username)
	assert.False(t, got.IsAdmin)
}

func TestRequireAdmin(t *testing.T) {
	am, _ := newAuthStack()
	var ran bool
	handler := am.Handle(am.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
	})))

	rec := doRequest(handler, "tok-liu")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran)

	rec = doRequest(handler, "tok-admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
}

func TestFromContextWithoutSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := FromContext(req.Context())
	assert.False(t, ok)
}
