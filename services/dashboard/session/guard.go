// Package session validates the user's bearer token against the backend
// identity endpoint once per page load and decides where to send the user
// when it is missing, expired or unknown.
package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/backend"
)

// State is the guard's verdict on a token.
type State string

const (
	Unchecked State = "unchecked"
	Valid     State = "valid"
	Invalid   State = "invalid"
)

// Verifier checks a token. Implemented by *backend.Client.
type Verifier interface {
	Me(ctx context.Context, token string) (backend.User, string, error)
}

// Outcome is the result of one Check.
type Outcome struct {
	State State
	User  backend.User
	// Redirect is the path to send the user to; empty means stay.
	Redirect string
	// ClearToken asks the caller to delete the stored token.
	ClearToken bool
	// RotatedToken, when set, replaces the stored token.
	RotatedToken string
	Err          error
}

// Config holds the guard's redirect targets.
type Config struct {
	LoginPath    string
	RegisterPath string
	// RedirectOnError sends the user to LoginPath on failures that carry
	// no recognized reason. When false those failures only yield Invalid.
	RedirectOnError bool
}

// Guard runs the token check. It never retries.
type Guard struct {
	verifier Verifier
	cfg      Config
}

// NewGuard builds a Guard.
func NewGuard(v Verifier, cfg Config) *Guard {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.RegisterPath == "" {
		cfg.RegisterPath = "/register"
	}
	return &Guard{verifier: v, cfg: cfg}
}

// Check validates token.
func (g *Guard) Check(ctx context.Context, token string) Outcome {
	if token == "" {
		return Outcome{State: Invalid, Redirect: g.cfg.LoginPath}
	}

	user, rotated, err := g.verifier.Me(ctx, token)
	if err == nil {
		return Outcome{State: Valid, User: user, RotatedToken: rotated}
	}

	if out, ok := g.AuthFailure(err); ok {
		return out
	}

	zap.L().Warn("session check failed", zap.Error(err))
	out := Outcome{State: Invalid, Err: err}
	if g.cfg.RedirectOnError {
		out.Redirect = g.cfg.LoginPath
	}
	return out
}

// AuthFailure reports whether err is a backend rejection of the session
// itself, on the identity check or on any later data call, and the
// outcome to act on.
func (g *Guard) AuthFailure(err error) (Outcome, bool) {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		return Outcome{}, false
	}
	switch apiErr.Code {
	case backend.CodeTokenExpired:
		zap.L().Info("session token expired")
		return Outcome{State: Invalid, Redirect: g.cfg.LoginPath, ClearToken: true, Err: err}, true
	case backend.CodeInvalidUser:
		zap.L().Info("session user not registered")
		return Outcome{State: Invalid, Redirect: g.cfg.RegisterPath, ClearToken: true, Err: err}, true
	}
	return Outcome{}, false
}
