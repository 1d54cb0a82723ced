// ABOUTME: Challenge service orchestrating creation and browser-side verification.
// ABOUTME: Owns the session and pass-token stores and enforces one-shot consumption.

package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spincheck/spincheck/internal/auth"
	"github.com/spincheck/spincheck/internal/spatial"
	"github.com/spincheck/spincheck/internal/store"
	"github.com/spincheck/spincheck/internal/ttlcache"
)

// ErrNoContent is returned by Create when the content catalog is empty.
var ErrNoContent = errors.New("no content available")

// ReasonInvalidSession is the rejection reason for verify calls that present
// an unknown, expired, or already-consumed session id.
const ReasonInvalidSession = "InvalidOrExpiredSession"

// PassRecord is the proof held behind a pass token: which session was solved,
// when, and how far off the submitted orientation was.
type PassRecord struct {
	SessionID  string
	VerifiedAt time.Time
	ErrorAngle float64
}

// CreateResult is the payload returned to the browser for a fresh challenge.
// Returning the target orientation is intentional: the client renders a
// preview from it. Security rests on one-shot consumption and TTL, not on
// hiding the target from the solving browser.
type CreateResult struct {
	SessionID  string
	ContentRef string
	Target     spatial.Orientation
}

// VerifyResult is the outcome of a browser-side verification attempt.
type VerifyResult struct {
	Verified   bool
	Reason     string
	ErrorAngle float64
	Tolerance  float64
	PassToken  string
}

// Service implements challenge creation and verification.
type Service struct {
	sessions  *ttlcache.Cache[spatial.Orientation]
	passes    *ttlcache.Cache[PassRecord]
	tenants   store.TenantDirectory
	catalog   store.Catalog
	tolerance float64
	logger    *slog.Logger
}

// Options configures a Service.
type Options struct {
	SessionTTL    time.Duration
	PassTokenTTL  time.Duration
	ToleranceDeg  float64
	SweepInterval time.Duration
}

// NewService creates a challenge service with its two expiring stores.
func NewService(tenants store.TenantDirectory, catalog store.Catalog, opts Options) *Service {
	sweep := opts.SweepInterval
	if sweep == 0 {
		sweep = time.Minute
	}
	return &Service{
		sessions:  ttlcache.New[spatial.Orientation](opts.SessionTTL, sweep),
		passes:    ttlcache.New[PassRecord](opts.PassTokenTTL, sweep),
		tenants:   tenants,
		catalog:   catalog,
		tolerance: opts.ToleranceDeg,
		logger:    slog.Default().With("component", "challenge"),
	}
}

// Passes exposes the pass-token store for the site-verify service. The two
// services share the store; nothing else does.
func (s *Service) Passes() *ttlcache.Cache[PassRecord] {
	return s.passes
}

// Tolerance returns the configured acceptance tolerance in degrees.
func (s *Service) Tolerance() float64 {
	return s.tolerance
}

// Create issues a fresh challenge for tenant: selects a content reference,
// generates a session id and secret target orientation, stores the session,
// and counts the tenant's usage.
//
// The session is stored before the usage increment. If the increment fails
// the error is surfaced and the stored session simply expires unused; its id
// was never delivered, so it cannot be exploited. No caller ever receives a
// session id for which usage was not counted.
func (s *Service) Create(ctx context.Context, tenant *store.Tenant) (*CreateResult, error) {
	contentRef, err := s.catalog.RandomContentRef(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoContent
	}
	if err != nil {
		return nil, fmt.Errorf("selecting content: %w", err)
	}

	sessionID, err := auth.NewOpaqueToken("ch_")
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	target := spatial.RandomTarget()
	s.sessions.Set(sessionID, target)

	if err := s.tenants.IncrementUsage(ctx, tenant.APIKey); err != nil {
		s.logger.Error("usage increment failed after session store", "tenant", tenant.ID, "error", err)
		return nil, fmt.Errorf("counting usage: %w", err)
	}

	s.logger.Debug("challenge created", "tenant", tenant.ID, "content_ref", contentRef)
	return &CreateResult{
		SessionID:  sessionID,
		ContentRef: contentRef,
		Target:     target,
	}, nil
}

// Verify judges a submitted orientation against the session's secret target.
//
// The session is consumed atomically with the lookup, before the distance is
// computed, so a session allows at most one verification attempt regardless
// of outcome. A failed attempt burns the session; retrying requires a new
// challenge.
func (s *Service) Verify(sessionID string, submitted spatial.Orientation) (*VerifyResult, error) {
	target, ok := s.sessions.GetAndDelete(sessionID)
	if !ok {
		return &VerifyResult{
			Verified:  false,
			Reason:    ReasonInvalidSession,
			Tolerance: s.tolerance,
		}, nil
	}

	angle := spatial.AngularDistance(submitted, target)
	if angle >= s.tolerance {
		s.logger.Debug("challenge failed", "error_angle", angle)
		return &VerifyResult{
			Verified:   false,
			ErrorAngle: angle,
			Tolerance:  s.tolerance,
		}, nil
	}

	passToken, err := auth.NewOpaqueToken("pt_")
	if err != nil {
		// The session is already burned; minting failure is an internal
		// error, not a second chance.
		return nil, fmt.Errorf("generating pass token: %w", err)
	}

	s.passes.Set(passToken, PassRecord{
		SessionID:  sessionID,
		VerifiedAt: time.Now().UTC(),
		ErrorAngle: angle,
	})

	s.logger.Debug("challenge solved", "error_angle", angle)
	return &VerifyResult{
		Verified:   true,
		ErrorAngle: angle,
		Tolerance:  s.tolerance,
		PassToken:  passToken,
	}, nil
}

// Close releases the background sweepers of both stores.
func (s *Service) Close() {
	s.sessions.Close()
	s.passes.Close()
}
