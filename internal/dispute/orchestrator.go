package dispute

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/arbiter/internal/domain"
	"github.com/soyeahso/arbiter/internal/logging"
	"github.com/soyeahso/arbiter/internal/store"
)

// EventSink receives lifecycle events as disputes progress. Implementations
// must not block; emission happens on the request path.
type EventSink interface {
	Emit(event string, payload map[string]any)
}

// Orchestrator ties the dispute pipeline together: session lookup or
// creation, evidence merging, the oracle turn, the refund trigger, and the
// audit trail.
type Orchestrator struct {
	sessions *SessionStore
	evidence *Aggregator
	turns    *TurnController
	refunds  *RefundTrigger
	audit    *store.DecisionLog
	events   EventSink
	log      *logging.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithAudit records every completed ruling in the decision log.
func WithAudit(audit *store.DecisionLog) Option {
	return func(o *Orchestrator) { o.audit = audit }
}

// WithEvents publishes lifecycle events to the sink.
func WithEvents(sink EventSink) Option {
	return func(o *Orchestrator) { o.events = sink }
}

// NewOrchestrator assembles the dispute pipeline.
func NewOrchestrator(sessions *SessionStore, evidence *Aggregator, turns *TurnController, refunds *RefundTrigger, log *logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions: sessions,
		evidence: evidence,
		turns:    turns,
		refunds:  refunds,
		log:      log.Sub("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sessions exposes the session store for lifecycle management.
func (o *Orchestrator) Sessions() *SessionStore { return o.sessions }

// Analyze runs one dispute turn. A request without a sessionId opens a new
// dispute; one with a sessionId continues (or replays, if already
// completed) an existing session. A supplied but unknown sessionId is an
// error, never a silent restart.
func (o *Orchestrator) Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeResponse, error) {
	if strings.TrimSpace(req.DisputeDescription) == "" {
		return nil, domain.ErrMissingDescription
	}

	if req.SessionID != "" {
		sess, release, err := o.sessions.Acquire(req.SessionID)
		if err != nil {
			return nil, err
		}
		defer release()

		// Completed sessions replay their stored result; the disbursement,
		// if any, already happened exactly once.
		if sess.Status == domain.StatusCompleted {
			o.log.Debug().Str("sessionId", sess.ID).Msg("replaying completed session")
			return completedResponse(sess, sess.FinalDecision, sess.FinalMessage), nil
		}
		return o.runTurn(ctx, sess, req, false)
	}

	sess := o.sessions.NewSession(req.TransactionID)
	return o.runTurn(ctx, sess, req, true)
}

func (o *Orchestrator) runTurn(ctx context.Context, sess *domain.DisputeSession, req domain.AnalyzeRequest, fresh bool) (*domain.AnalyzeResponse, error) {
	summary, err := o.evidence.Merge(ctx, sess, req, fresh)
	if err != nil {
		return nil, err
	}

	result := o.turns.Run(ctx, sess, buildPrompt(req, summary, fresh))

	if !result.Completed {
		if fresh {
			o.sessions.Put(sess)
		}
		o.emit("dispute.needs_evidence", map[string]any{
			"sessionId":     sess.ID,
			"transactionId": sess.TransactionID,
			"step":          result.Turn,
			"evidenceType":  result.Request.EvidenceType,
		})
		return &domain.AnalyzeResponse{
			Status:            domain.AnalysisNeedsEvidence,
			SessionID:         sess.ID,
			TransactionID:     sess.TransactionID,
			EvidenceRequested: result.Request,
			Message:           fmt.Sprintf("Additional evidence required: %s. Provide it in your next request using the sessionId.", result.Request.EvidenceType),
			Step:              result.Turn,
		}, nil
	}

	disbursed := false
	fragment := ""
	if !result.Forced {
		disbursed, fragment = o.refunds.Evaluate(ctx, sess, req, result.Decision)
	}

	message := "Decision: " + string(result.Decision.Outcome) + fragment
	if result.Forced {
		message = "Maximum analysis steps reached. " + message
	}
	sess.FinalMessage = message

	if o.audit != nil {
		o.audit.RecordDecision(sess.ID, sess.TransactionID, result.Decision, result.Turn, result.Forced, disbursed)
	}
	o.emit("dispute.completed", map[string]any{
		"sessionId":     sess.ID,
		"transactionId": sess.TransactionID,
		"step":          result.Turn,
		"outcome":       string(result.Decision.Outcome),
		"forced":        result.Forced,
		"disbursed":     disbursed,
	})
	o.log.Info().
		Str("sessionId", sess.ID).
		Str("transaction", sess.TransactionID).
		Str("outcome", string(result.Decision.Outcome)).
		Int("step", result.Turn).
		Bool("disbursed", disbursed).
		Msg("dispute completed")

	return completedResponse(sess, result.Decision, message), nil
}

// buildPrompt picks the prompt for this turn: the case framing on a fresh
// dispute, the evidence presentation on a follow-up carrying evidence, or
// the caller's raw description otherwise.
func buildPrompt(req domain.AnalyzeRequest, shipmentSummary string, fresh bool) string {
	if fresh {
		return initialPrompt(req, shipmentSummary)
	}
	if req.AdditionalEvidence != nil {
		return evidencePrompt(req.AdditionalEvidence.Kind, req.AdditionalEvidence.Data)
	}
	return req.DisputeDescription
}

func completedResponse(sess *domain.DisputeSession, decision *domain.Decision, message string) *domain.AnalyzeResponse {
	return &domain.AnalyzeResponse{
		Status:        domain.AnalysisCompleted,
		TransactionID: sess.TransactionID,
		Decision:      decision,
		Message:       message,
		Step:          sess.Step,
	}
}

func (o *Orchestrator) emit(event string, payload map[string]any) {
	if o.events != nil {
		o.events.Emit(event, payload)
	}
}
