package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/backend"
)

type fakeVerifier struct {
	calls   int
	user    backend.User
	rotated string
	err     error
}

func (f *fakeVerifier) Me(ctx context.Context, token string) (backend.User, string, error) {
	f.calls++
	return f.user, f.rotated, f.err
}

func newGuard(v Verifier) *Guard {
	return NewGuard(v, Config{RedirectOnError: true})
}

func TestCheck_NoTokenRedirectsWithoutCalls(t *testing.T) {
	v := &fakeVerifier{}
	out := newGuard(v).Check(context.Background(), "")

	assert.Equal(t, Invalid, out.State)
	assert.Equal(t, "/login", out.Redirect)
	assert.False(t, out.ClearToken)
	assert.Zero(t, v.calls)
}

func TestCheck_Valid(t *testing.T) {
	v := &fakeVerifier{user: backend.User{ID: 3}}
	out := newGuard(v).Check(context.Background(), "tok")

	assert.Equal(t, Valid, out.State)
	assert.Equal(t, 3, out.User.ID)
	assert.Empty(t, out.Redirect)
	assert.Empty(t, out.RotatedToken)
	assert.Equal(t, 1, v.calls)
}

func TestCheck_ValidWithRotation(t *testing.T) {
	v := &fakeVerifier{rotated: "fresh"}
	out := newGuard(v).Check(context.Background(), "tok")

	assert.Equal(t, Valid, out.State)
	assert.Equal(t, "fresh", out.RotatedToken)
}

func TestCheck_TokenExpired(t *testing.T) {
	v := &fakeVerifier{err: &backend.APIError{Status: http.StatusUnauthorized, Code: backend.CodeTokenExpired}}
	out := newGuard(v).Check(context.Background(), "tok")

	assert.Equal(t, Invalid, out.State)
	assert.True(t, out.ClearToken)
	assert.Equal(t, "/login", out.Redirect)
	assert.Equal(t, 1, v.calls)
}

func TestCheck_InvalidUserGoesToRegister(t *testing.T) {
	// wrapped errors are still recognized
	v := &fakeVerifier{err: eris.Wrap(&backend.APIError{Status: http.StatusForbidden, Code: backend.CodeInvalidUser}, "me")}
	out := NewGuard(v, Config{LoginPath: "/auth/login", RegisterPath: "/auth/registro"}).Check(context.Background(), "tok")

	assert.Equal(t, Invalid, out.State)
	assert.True(t, out.ClearToken)
	assert.Equal(t, "/auth/registro", out.Redirect)
}

func TestCheck_OtherFailures(t *testing.T) {
	for name, err := range map[string]error{
		"unknown code": &backend.APIError{Status: http.StatusInternalServerError, Code: "DB_DOWN"},
		"network":      errors.New("dial tcp: connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			out := newGuard(&fakeVerifier{err: err}).Check(context.Background(), "tok")
			assert.Equal(t, Invalid, out.State)
			assert.Equal(t, "/login", out.Redirect)
			assert.False(t, out.ClearToken)
			assert.ErrorIs(t, out.Err, err)
		})
	}
}

func TestCheck_OptOutOfRedirectOnError(t *testing.T) {
	v := &fakeVerifier{err: errors.New("timeout")}
	out := NewGuard(v, Config{RedirectOnError: false}).Check(context.Background(), "tok")

	assert.Equal(t, Invalid, out.State)
	assert.Empty(t, out.Redirect)

	// recognized reasons still redirect
	v.err = &backend.APIError{Code: backend.CodeTokenExpired}
	out = NewGuard(v, Config{RedirectOnError: false}).Check(context.Background(), "tok")
	assert.Equal(t, "/login", out.Redirect)
}

func TestAuthFailure_ClassifiesDataCallErrors(t *testing.T) {
	g := newGuard(&fakeVerifier{})

	out, ok := g.AuthFailure(&backend.APIError{Status: http.StatusUnauthorized, Code: backend.CodeTokenExpired})
	assert.True(t, ok)
	assert.Equal(t, "/login", out.Redirect)
	assert.True(t, out.ClearToken)

	out, ok = g.AuthFailure(&backend.APIError{Status: http.StatusForbidden, Code: backend.CodeInvalidUser})
	assert.True(t, ok)
	assert.Equal(t, "/register", out.Redirect)
	assert.True(t, out.ClearToken)

	_, ok = g.AuthFailure(&backend.APIError{Status: http.StatusNotFound})
	assert.False(t, ok)
	_, ok = g.AuthFailure(errors.New("dial tcp: refused"))
	assert.False(t, ok)
}
