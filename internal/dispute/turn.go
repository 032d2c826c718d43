package dispute

import (
	"context"
	"time"

	"github.com/soyeahso/arbiter/internal/domain"
	"github.com/soyeahso/arbiter/internal/logging"
	"github.com/soyeahso/arbiter/internal/oracle"
)

// Turn budget defaults.
const (
	DefaultMaxSteps      = 3
	DefaultOracleTimeout = 2 * time.Minute
	defaultMaxTokens     = 1024

	oracleRetries          = 1
	exhaustedJustification = "turn budget exhausted"
)

// TurnResult is the outcome of running one analysis turn.
type TurnResult struct {
	// Turn is the step this request consumed. The session's Step field may
	// already point past it for unresolved turns.
	Turn      int
	Completed bool
	// Forced is set when the ruling came from budget exhaustion rather than
	// the oracle.
	Forced   bool
	Decision *domain.Decision
	Request  *domain.EvidenceRequest
}

// TurnController runs one oracle turn against a session and enforces the
// turn budget. A turn that yields no ruling (evidence request, inconclusive
// reply, or oracle failure after retry) consumes budget; once the budget is
// spent the controller rules DENY_REFUND itself.
type TurnController struct {
	oracle    oracle.Oracle
	maxSteps  int
	maxTokens int
	timeout   time.Duration
	log       *logging.Logger
}

// NewTurnController creates a turn controller. Zero values fall back to the
// package defaults.
func NewTurnController(o oracle.Oracle, maxSteps, maxTokens int, timeout time.Duration, log *logging.Logger) *TurnController {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &TurnController{
		oracle:    o,
		maxSteps:  maxSteps,
		maxTokens: maxTokens,
		timeout:   timeout,
		log:       log.Sub("turns"),
	}
}

// MaxSteps returns the configured turn budget.
func (t *TurnController) MaxSteps() int { return t.maxSteps }

// Run appends the prompt to the session history, consults the oracle, and
// applies the turn budget. The caller holds the session lock.
func (t *TurnController) Run(ctx context.Context, sess *domain.DisputeSession, prompt string) TurnResult {
	if sess.Step > t.maxSteps {
		return t.exhaust(sess, t.maxSteps)
	}

	turn := sess.Step
	sess.AppendHistory("user", prompt)

	reply, err := t.analyze(ctx, sess)
	if err != nil {
		t.log.Error().Err(err).Str("sessionId", sess.ID).Int("step", turn).Msg("oracle unavailable, turn unresolved")
		return t.unresolved(sess, turn, genericEvidenceRequest())
	}
	sess.AppendHistory("assistant", reply)

	result := Parse(reply)
	switch result.Kind {
	case ParseDecision:
		result.Decision.EvidenceReviewed = sess.EvidenceKinds()
		t.conclude(sess, result.Decision)
		t.log.Info().
			Str("sessionId", sess.ID).
			Int("step", turn).
			Str("outcome", string(result.Decision.Outcome)).
			Float64("confidence", result.Decision.Confidence).
			Msg("dispute ruled")
		return TurnResult{Turn: turn, Completed: true, Decision: result.Decision}

	case ParseEvidenceRequest:
		t.log.Info().
			Str("sessionId", sess.ID).
			Int("step", turn).
			Str("evidenceType", result.Request.EvidenceType).
			Msg("oracle requested evidence")
		return t.unresolved(sess, turn, result.Request)

	default:
		t.log.Warn().Str("sessionId", sess.ID).Int("step", turn).Msg("oracle reply inconclusive")
		return t.unresolved(sess, turn, genericEvidenceRequest())
	}
}

// analyze calls the oracle with a bounded timeout, detached from the
// caller's cancellation so an abandoned HTTP request still lets the turn
// conclude. One retry on failure.
func (t *TurnController) analyze(parent context.Context, sess *domain.DisputeSession) (string, error) {
	req := oracle.Request{
		System:    systemPrompt,
		Messages:  sess.History,
		MaxTokens: t.maxTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= oracleRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), t.timeout)
		reply, err := t.oracle.Analyze(ctx, req)
		cancel()
		if err == nil {
			return reply, nil
		}
		lastErr = err
		t.log.Warn().Err(err).Str("sessionId", sess.ID).Int("attempt", attempt+1).Msg("oracle call failed")
	}
	return "", lastErr
}

// unresolved spends one step of budget; when the budget is already at its
// last step the session is ruled by exhaustion instead.
func (t *TurnController) unresolved(sess *domain.DisputeSession, turn int, req *domain.EvidenceRequest) TurnResult {
	if sess.Step >= t.maxSteps {
		return t.exhaust(sess, turn)
	}
	sess.Step++
	return TurnResult{Turn: turn, Request: req}
}

// exhaust force-rules DENY_REFUND with zero confidence.
func (t *TurnController) exhaust(sess *domain.DisputeSession, turn int) TurnResult {
	decision := &domain.Decision{
		Outcome:          domain.OutcomeDenyRefund,
		Confidence:       0,
		Justification:    exhaustedJustification,
		EvidenceReviewed: sess.EvidenceKinds(),
	}
	t.conclude(sess, decision)
	t.log.Warn().Str("sessionId", sess.ID).Int("step", turn).Msg("turn budget exhausted, forcing denial")
	return TurnResult{Turn: turn, Completed: true, Forced: true, Decision: decision}
}

func (t *TurnController) conclude(sess *domain.DisputeSession, decision *domain.Decision) {
	sess.Status = domain.StatusCompleted
	sess.FinalDecision = decision
}

func genericEvidenceRequest() *domain.EvidenceRequest {
	return &domain.EvidenceRequest{
		EvidenceType: domain.EvidenceMoreInformation,
		Reason:       "The analysis was inconclusive; provide any further detail about the dispute",
	}
}
