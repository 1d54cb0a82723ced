// ABOUTME: Server-to-server confirmation of completed challenges.
// ABOUTME: Authenticates tenants by secret key and redeems pass tokens exactly once.

package siteverify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spincheck/spincheck/internal/challenge"
	"github.com/spincheck/spincheck/internal/store"
	"github.com/spincheck/spincheck/internal/ttlcache"
)

// Rejection reasons surfaced in siteverify responses.
const (
	ReasonMissingParameters = "MissingParameters"
	ReasonInvalidSecretKey  = "InvalidSecretKey"
	ReasonExpiredToken      = "ExpiredOrUnknownToken"
)

// ErrMissingParameters is returned when secret key or pass token is absent.
var ErrMissingParameters = errors.New("secret_key and pass_token are required")

// ErrInvalidSecretKey is returned when the secret key matches no tenant.
var ErrInvalidSecretKey = errors.New("invalid secret key")

// Result is the outcome of a redemption attempt. An unknown or expired token
// is an expected outcome for the calling backend to branch on, not an error.
type Result struct {
	Success     bool
	Reason      string
	ChallengeTS time.Time
	ErrorAngle  float64
}

// Service redeems pass tokens for tenant backends.
type Service struct {
	tenants store.TenantDirectory
	passes  *ttlcache.Cache[challenge.PassRecord]
	logger  *slog.Logger
}

// NewService creates a site-verify service sharing the challenge service's
// pass-token store.
func NewService(tenants store.TenantDirectory, passes *ttlcache.Cache[challenge.PassRecord]) *Service {
	return &Service{
		tenants: tenants,
		passes:  passes,
		logger:  slog.Default().With("component", "siteverify"),
	}
}

// Redeem validates the secret key and consumes the pass token. The token is
// deleted atomically with the successful lookup, before any response is
// built, so it redeems exactly once even under concurrent calls.
//
// The token is deliberately not bound to the tenant that issued the
// challenge: once minted, the token value itself is the sole credential.
func (s *Service) Redeem(ctx context.Context, secretKey, passToken string) (*Result, error) {
	if secretKey == "" || passToken == "" {
		return nil, ErrMissingParameters
	}

	_, err := s.tenants.GetTenantBySecretKey(ctx, secretKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidSecretKey
	}
	if err != nil {
		return nil, fmt.Errorf("secret key lookup: %w", err)
	}

	record, ok := s.passes.GetAndDelete(passToken)
	if !ok {
		return &Result{
			Success: false,
			Reason:  ReasonExpiredToken,
		}, nil
	}

	s.logger.Debug("pass token redeemed", "session", record.SessionID, "error_angle", record.ErrorAngle)
	return &Result{
		Success:     true,
		ChallengeTS: record.VerifiedAt,
		ErrorAngle:  record.ErrorAngle,
	}, nil
}
