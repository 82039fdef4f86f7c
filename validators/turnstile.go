package validators

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/9ssi7/turnstile"
)

var (
	ErrTokenRequired = errors.New("token is required")
	ErrTokenInvalid  = errors.New("token_not_valid")
	ErrVerification  = errors.New("internal_server_error")
)

// Turnstile checks Cloudflare Turnstile tokens before an upload is started.
// A verifier without a secret accepts every request.
type Turnstile struct {
	Secret    string
	TestToken string
	Release   bool
	Logger    *logrus.Logger
}

func (t *Turnstile) Enabled() bool {
	return t != nil && t.Secret != ""
}

func (t *Turnstile) ValidateToken(ctx context.Context, token string, ip string) error {
	if !t.Enabled() {
		return nil
	}
	if token == "" {
		t.Logger.Debug("Turnstile token missing")
		return ErrTokenRequired
	}
	if !t.Release && t.TestToken != "" && token == t.TestToken {
		t.Logger.Debug("Turnstile test token used")
		return nil
	}

	srv := turnstile.New(turnstile.Config{
		Secret: t.Secret,
	})
	ok, err := srv.Verify(ctx, token, ip)
	if err != nil {
		t.Logger.WithError(err).Error("Turnstile verification error")
		return ErrVerification
	}
	if !ok {
		t.Logger.WithField("ip", ip).Warn("Turnstile token not valid")
		return ErrTokenInvalid
	}
	return nil
}
