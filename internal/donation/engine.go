// Package donation drives one donation from amount entry to a confirmed or
// failed outcome: initiate with the platform, hand off to the external
// payment authorization widget, then verify server-side before ever
// declaring success.
package donation

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"

	"seva/internal/cause"
	"seva/internal/platform/metrics"
	"seva/internal/session"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/validation"
)

// ErrCancelled is returned by an Authorizer when the donor dismisses the
// payment widget without completing authorization.
var ErrCancelled = errors.New("authorization cancelled by donor")

// Gateway is the slice of the API client the engine needs.
type Gateway interface {
	PostJSON(ctx context.Context, path string, body any, out any) error
}

// CauseSource resolves causes and lets the engine mark a running total
// stale after a confirmed donation.
type CauseSource interface {
	GetCause(ctx context.Context, id int64) (*cause.Cause, error)
	Invalidate(id int64)
}

// Sessions exposes the donor identity the engine needs.
type Sessions interface {
	Current() session.Session
}

// Authorizer is the external payment-authorization capability. Authorize
// blocks for the donor's interaction with the widget and returns the
// gateway-issued proof, or ErrCancelled when the donor dismisses it. The
// engine knows nothing about any specific gateway's script or API shape.
type Authorizer interface {
	Authorize(ctx context.Context, cfg CheckoutConfig) (*Proof, error)
}

const (
	supportEscalationReason = "payment could not be verified, contact support"
	cancelledReason         = "cancelled"
	genericInitiateReason   = "could not start the donation, please try again"
)

// Engine coordinates donation attempts. One attempt per cause per session
// may be live at a time; the initiate call happens exactly once per attempt.
type Engine struct {
	gw         Gateway
	causes     CauseSource
	sessions   Sessions
	authorizer Authorizer
	logger     *slog.Logger
	m          *metrics.Metrics
	onChange   func(attemptID uuid.UUID, from, to State)

	mu     sync.Mutex
	active map[int64]uuid.UUID
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.m = m
	}
}

// WithTransitionHook registers an observer for state transitions, for UIs
// that render per-step progress.
func WithTransitionHook(fn func(attemptID uuid.UUID, from, to State)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// NewEngine creates a donation workflow engine.
func NewEngine(gw Gateway, causes CauseSource, sessions Sessions, authorizer Authorizer, opts ...Option) *Engine {
	e := &Engine{
		gw:         gw,
		causes:     causes,
		sessions:   sessions,
		authorizer: authorizer,
		active:     make(map[int64]uuid.UUID),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// initiateRequest is the body of POST /donations/init.
type initiateRequest struct {
	CauseID    int64  `json:"cause_id"`
	Amount     int64  `json:"amount"`
	DonorName  string `json:"donor_name"`
	DonorEmail string `json:"donor_email"`
	DonorPhone string `json:"donor_phone"`
}

// Donate runs one attempt end to end. Preconditions (validation, sign-in,
// live cause, no concurrent attempt) fail with an error before any state
// transition or network call. Once an attempt starts, its result is always
// a terminal Outcome, never an error: the donor sees Confirmed with a
// payment id or Failed with a reason and can retry with a fresh attempt.
func (e *Engine) Donate(ctx context.Context, req Request) (*Outcome, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	sess := e.sessions.Current()
	if !sess.Authenticated {
		// short-circuit to the sign-in redirect, never reaches Initiating
		return nil, dErrors.New(dErrors.CodeSignInRequired, "sign in to donate")
	}

	target, err := e.causes.GetCause(ctx, req.CauseID)
	if err != nil {
		return nil, err
	}
	if !target.AcceptsDonations() {
		return nil, dErrors.New(dErrors.CodeValidation, "cause is not accepting donations")
	}

	attempt := &Attempt{
		ID:      uuid.New(),
		CauseID: req.CauseID,
		Amount:  money.New(req.Amount, target.Currency),
		State:   StateIdle,
	}
	if err := e.acquire(attempt); err != nil {
		return nil, err
	}
	defer e.release(attempt)

	outcome := e.run(ctx, attempt, req, sess.User)
	if e.m != nil {
		if outcome.State == StateConfirmed {
			e.m.DonationOutcomes.WithLabelValues("confirmed").Inc()
		} else {
			e.m.DonationOutcomes.WithLabelValues(string(outcome.Failure)).Inc()
		}
	}
	return outcome, nil
}

// Active reports the live attempt id for a cause, if any. The view layer
// uses it to keep the submit control disabled for the attempt's lifetime.
func (e *Engine) Active(causeID int64) (uuid.UUID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.active[causeID]
	return id, ok
}

func (e *Engine) acquire(a *Attempt) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.active[a.CauseID]; busy {
		return dErrors.New(dErrors.CodeAttemptInProgress, "a donation for this cause is already in progress")
	}
	e.active[a.CauseID] = a.ID
	return nil
}

func (e *Engine) release(a *Attempt) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, a.CauseID)
}

func (e *Engine) run(ctx context.Context, attempt *Attempt, req Request, donor *session.User) *Outcome {
	e.transition(attempt, StateInitiating)

	body := initiateRequest{
		CauseID:    req.CauseID,
		Amount:     attempt.Amount.Amount(),
		DonorName:  req.DonorName,
		DonorEmail: req.DonorEmail,
		DonorPhone: req.DonorPhone,
	}
	if donor != nil {
		if body.DonorName == "" {
			body.DonorName = donor.FullName
		}
		if body.DonorEmail == "" {
			body.DonorEmail = donor.Email
		}
		if body.DonorPhone == "" {
			body.DonorPhone = donor.Phone
		}
	}

	var cfg CheckoutConfig
	if err := e.gw.PostJSON(ctx, "/donations/init", body, &cfg); err != nil {
		e.logger.WarnContext(ctx, "donation initiation rejected",
			"cause_id", req.CauseID, "attempt_id", attempt.ID.String(), "error", err)
		return e.fail(attempt, FailureInitiation, dErrors.Message(err, genericInitiateReason))
	}
	if e.m != nil {
		e.m.DonationsInitiated.Inc()
	}
	attempt.OrderID = cfg.OrderID
	attempt.GatewayOrderID = cfg.OrderID

	e.transition(attempt, StateAwaitingGateway)

	proof, err := e.authorizer.Authorize(ctx, cfg)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			// a quiet outcome, not an error worth logging loudly
			return e.fail(attempt, FailureCancelled, cancelledReason)
		}
		e.logger.ErrorContext(ctx, "payment authorization failed",
			"attempt_id", attempt.ID.String(), "error", err)
		return e.fail(attempt, FailureInternal, "payment authorization failed, please try again")
	}

	e.transition(attempt, StateVerifying)

	var verified verifyResponse
	if err := e.gw.PostJSON(ctx, "/donations/verify", proof, &verified); err != nil {
		e.logger.ErrorContext(ctx, "donation verification errored",
			"attempt_id", attempt.ID.String(), "order_id", attempt.OrderID, "error", err)
		return e.fail(attempt, FailureUnverified, supportEscalationReason)
	}
	if !verified.Success {
		e.logger.ErrorContext(ctx, "donation verification rejected",
			"attempt_id", attempt.ID.String(), "order_id", attempt.OrderID)
		return e.fail(attempt, FailureUnverified, supportEscalationReason)
	}

	e.transition(attempt, StateConfirmed)
	// the running total is authoritative server-side; force a refetch
	// instead of incrementing locally
	e.causes.Invalidate(attempt.CauseID)
	e.logger.InfoContext(ctx, "donation confirmed",
		"attempt_id", attempt.ID.String(),
		"order_id", attempt.OrderID,
		"payment_id", verified.PaymentID,
	)
	return &Outcome{
		AttemptID:     attempt.ID,
		State:         StateConfirmed,
		OrderID:       attempt.OrderID,
		PaymentID:     verified.PaymentID,
		TransactionID: verified.TransactionID,
	}
}

func (e *Engine) fail(attempt *Attempt, kind FailureKind, reason string) *Outcome {
	e.transition(attempt, StateFailed)
	return &Outcome{
		AttemptID: attempt.ID,
		State:     StateFailed,
		Failure:   kind,
		Reason:    reason,
		OrderID:   attempt.OrderID,
	}
}

func (e *Engine) transition(a *Attempt, to State) {
	if !canTransition(a.State, to) {
		// transitions are driven by the linear flow above; a bad edge is a
		// programming error
		panic("donation: illegal transition " + string(a.State) + " -> " + string(to))
	}
	from := a.State
	a.State = to
	if e.onChange != nil {
		e.onChange(a.ID, from, to)
	}
}
