package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homecook/globals"
	"homecook/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whoami(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"user": utils.GetUserIDFromRequest(r),
		"role": utils.GetRoleFromRequest(r),
	})
}

func call(h httprouter.Handle, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h(rec, req, nil)
	return rec
}

func TestAuthenticate(t *testing.T) {
	token, err := IssueToken("alice", "customer")
	require.NoError(t, err)

	rec := call(Authenticate(whoami), "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"alice","role":"customer"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, call(Authenticate(whoami), "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(Authenticate(whoami), token).Code)
	assert.Equal(t, http.StatusUnauthorized, call(Authenticate(whoami), "Bearer garbage").Code)
}

func TestOptionalAuth(t *testing.T) {
	token, err := IssueToken("kemal", "cook")
	require.NoError(t, err)

	rec := call(OptionalAuth(whoami), "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"kemal","role":"cook"}`, rec.Body.String())

	rec = call(OptionalAuth(whoami), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"","role":""}`, rec.Body.String())

	rec = call(OptionalAuth(whoami), "Bearer garbage")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"","role":""}`, rec.Body.String())
}

func TestAuthenticateRejectsExpiredAndForeignTokens(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           "alice",
		Role:             "customer",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
	})
	s, err := expired.SignedString(globals.JwtSecret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(Authenticate(whoami), "Bearer "+s).Code)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "alice"})
	s, err = foreign.SignedString([]byte("someone-else"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(Authenticate(whoami), "Bearer "+s).Code)
}

func TestChainRequireRoles(t *testing.T) {
	cook, err := IssueToken("cookX", "cook")
	require.NoError(t, err)
	customer, err := IssueToken("alice", "customer")
	require.NoError(t, err)

	h := Chain(Authenticate, RequireRoles("cook", "admin"))(whoami)
	assert.Equal(t, http.StatusOK, call(h, "Bearer "+cook).Code)
	assert.Equal(t, http.StatusForbidden, call(h, "Bearer "+customer).Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "").Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(httprouter.Handle) httprouter.Handle {
		return func(next httprouter.Handle) httprouter.Handle {
			return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
				order = append(order, name)
				next(w, r, ps)
			}
		}
	}
	call(Chain(mw("a"), mw("b"), mw("c"))(whoami), "")
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRequestIDAndHeaders(t *testing.T) {
	var seen string
	h := SecurityHeaders(RequestID(Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(globals.RequestIDKey).(string)
		w.WriteHeader(http.StatusTeapot)
	}))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
}
