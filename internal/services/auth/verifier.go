package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mcoot/openworld/internal/dependencies/clock"
	"github.com/mcoot/openworld/internal/diagnostics"
	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/storage"
)

// Reason codes recorded for every admission decision
const (
	ReasonOKParent = "ok_parent"
	ReasonOKKid    = "ok"
	ReasonOKCookie = "ok(cookie)"

	ReasonBadSignature         = "bad_signature"
	ReasonInvalidPayload       = "invalid_payload"
	ReasonInvalidPayloadParent = "invalid_payload_parent"
	ReasonNoParent             = "no_parent"
	ReasonParentExpired        = "parent_expired"
	ReasonParentFamilyNotFound = "parent_family_not_found"
	ReasonFamilyBlocked        = "family_blocked"
	ReasonNoKid                = "no_kid"
	ReasonExpired              = "expired"
	ReasonKidNotFound          = "kid_not_found"
	ReasonKidNotApproved       = "not_approved_or_family_blocked"
	ReasonNoCookie             = "no_cookie"
	ReasonNoKidCookie          = "no_kid_cookie"
	ReasonCookieKidNotFound    = "cookie_kid_not_found"
	ReasonCookieKidNotApproved = "cookie_not_approved_or_family_blocked"
	ReasonException            = "exception"
)

// KidCookie is the fallback identity cookie set by the dashboard
const KidCookie = "kid_id"

// AdmissionOptions are the connection-time options a client supplies
type AdmissionOptions struct {
	ParentToken string
	KidToken    string
}

// Decision is the outcome of verifying a connection attempt
type Decision struct {
	Accepted bool
	Role     model.Role
	ParentID string
	FamilyID string
	// ChildID is set when the connection is bound to a child account
	ChildID string
	Reason  string
}

func reject(reason string) Decision {
	return Decision{Reason: reason}
}

// Config holds configuration for the verifier
type Config struct {
	Secret string
	// RequireKidAuth rejects connections that present no identity at all
	RequireKidAuth bool
}

// Verifier admits or rejects connections
type Verifier struct {
	store       storage.AccountStore
	clock       clock.Clock
	diagnostics *diagnostics.Diagnostics
	logger      *slog.Logger

	secret         string
	requireKidAuth bool
}

// New creates a new Verifier
func New(store storage.AccountStore, clk clock.Clock, diag *diagnostics.Diagnostics, logger *slog.Logger, cfg Config) *Verifier {
	return &Verifier{
		store:          store,
		clock:          clk,
		diagnostics:    diag,
		logger:         logger.With(slog.String("component", "auth")),
		secret:         cfg.Secret,
		requireKidAuth: cfg.RequireKidAuth,
	}
}

// Verify evaluates, in order, the parent token, the kid token and the kid_id cookie.
// Every decision is recorded in diagnostics.
func (v *Verifier) Verify(ctx context.Context, opts AdmissionOptions, header http.Header) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("auth: exception", slog.Any("panic", r))
			d = reject(ReasonException)
		}
		v.diagnostics.NoteAuth(d.Accepted, d.Reason)
	}()

	var err error
	switch {
	case opts.ParentToken != "":
		d, err = v.verifyParent(ctx, opts.ParentToken)
	case opts.KidToken != "":
		d, err = v.verifyKid(ctx, opts.KidToken)
	default:
		d, err = v.verifyCookie(ctx, header)
	}
	if err != nil {
		v.logger.Error("auth: exception", slog.String("error", err.Error()))
		return reject(ReasonException)
	}
	if !d.Accepted {
		v.logger.Info("auth: rejected", slog.String("reason", d.Reason))
	}
	return d
}

func (v *Verifier) checkSignature(token, kind string) (string, bool) {
	data, sig := splitToken(token)
	expected := sign(v.secret, data)
	if sig != expected {
		v.logger.Info("auth: bad signature",
			slog.String("token", kind),
			slog.String("got", prefix(sig, 8)),
			slog.String("exp", expected[:8]),
			slog.Int("data_len", len(data)),
			slog.String("secret_fp", v.diagnostics.SecretFingerprint()),
		)
		return "", false
	}
	return data, true
}

func (v *Verifier) verifyParent(ctx context.Context, token string) (Decision, error) {
	data, ok := v.checkSignature(token, "parent")
	if !ok {
		return reject(ReasonBadSignature), nil
	}
	p, err := decodePayload(data)
	if err != nil {
		return reject(ReasonInvalidPayloadParent), nil
	}
	if p.Parent == "" {
		return reject(ReasonNoParent), nil
	}
	if p.expired(v.clock.Now().Unix()) {
		return reject(ReasonParentExpired), nil
	}

	family, err := v.store.GetFamilyByParent(ctx, p.Parent)
	if errors.Is(err, model.ErrFamilyNotFound) {
		return reject(ReasonParentFamilyNotFound), nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("lookup family for parent: %w", err)
	}
	if family.IsBlocked() {
		return reject(ReasonFamilyBlocked), nil
	}

	return Decision{
		Accepted: true,
		Role:     model.RoleParent,
		ParentID: p.Parent,
		FamilyID: family.ID,
		Reason:   ReasonOKParent,
	}, nil
}

func (v *Verifier) verifyKid(ctx context.Context, token string) (Decision, error) {
	data, ok := v.checkSignature(token, "kid")
	if !ok {
		return reject(ReasonBadSignature), nil
	}
	p, err := decodePayload(data)
	if err != nil {
		return reject(ReasonInvalidPayload), nil
	}
	if p.Kid == "" {
		return reject(ReasonNoKid), nil
	}
	if p.expired(v.clock.Now().Unix()) {
		return reject(ReasonExpired), nil
	}

	child, err := v.store.GetChild(ctx, p.Kid)
	if errors.Is(err, model.ErrChildNotFound) {
		return reject(ReasonKidNotFound), nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("lookup child: %w", err)
	}
	allowed, err := v.childAllowed(ctx, child)
	if err != nil {
		return Decision{}, err
	}
	if !allowed {
		return reject(ReasonKidNotApproved), nil
	}

	return kidDecision(child, ReasonOKKid), nil
}

func (v *Verifier) verifyCookie(ctx context.Context, header http.Header) (Decision, error) {
	if header.Get("Cookie") == "" {
		return v.anonymous(ReasonNoCookie), nil
	}
	req := http.Request{Header: header}
	cookie, err := req.Cookie(KidCookie)
	if err != nil || cookie.Value == "" {
		return v.anonymous(ReasonNoKidCookie), nil
	}

	child, err := v.store.GetChild(ctx, cookie.Value)
	if errors.Is(err, model.ErrChildNotFound) {
		return reject(ReasonCookieKidNotFound), nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("lookup cookie child: %w", err)
	}
	allowed, err := v.childAllowed(ctx, child)
	if err != nil {
		return Decision{}, err
	}
	if !allowed {
		return reject(ReasonCookieKidNotApproved), nil
	}

	return kidDecision(child, ReasonOKCookie), nil
}

// anonymous admits a connection with no identity unless kid auth is required
func (v *Verifier) anonymous(reason string) Decision {
	if v.requireKidAuth {
		return reject(reason)
	}
	return Decision{Accepted: true, Role: model.RoleGuest, Reason: reason}
}

// childAllowed requires an approved child whose family exists and is not blocked
func (v *Verifier) childAllowed(ctx context.Context, child *model.Child) (bool, error) {
	family, err := v.store.GetFamily(ctx, child.FamilyID)
	if errors.Is(err, model.ErrFamilyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup child family: %w", err)
	}
	return child.IsApproved() && !family.IsBlocked(), nil
}

func kidDecision(child *model.Child, reason string) Decision {
	return Decision{
		Accepted: true,
		Role:     model.RoleKid,
		FamilyID: child.FamilyID,
		ChildID:  child.ID,
		Reason:   reason,
	}
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
