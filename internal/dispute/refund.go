package dispute

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/arbiter/internal/domain"
	"github.com/soyeahso/arbiter/internal/logging"
	"github.com/soyeahso/arbiter/internal/payment"
)

// DefaultMinConfidence is the confidence floor below which an approved
// refund is not disbursed.
const DefaultMinConfidence = 0.70

// RefundTrigger guards the money-moving side effect of an approval. All
// guards must hold before a disbursement is attempted, and a disbursement
// is attempted at most once per session; failures surface in the response
// message, never as a retry.
type RefundTrigger struct {
	disburser     payment.Disburser
	minConfidence float64
	maxSteps      int
	timeout       time.Duration
	log           *logging.Logger
}

// NewRefundTrigger creates a refund trigger. disburser may be nil when no
// payment rail is configured; approvals then carry an explanatory note
// instead of funds.
func NewRefundTrigger(disburser payment.Disburser, minConfidence float64, maxSteps int, log *logging.Logger) *RefundTrigger {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &RefundTrigger{
		disburser:     disburser,
		minConfidence: minConfidence,
		maxSteps:      maxSteps,
		timeout:       60 * time.Second,
		log:           log.Sub("refund"),
	}
}

// Evaluate checks the disbursement guards against a fresh ruling and sends
// funds when every guard holds. It returns whether funds moved and a
// message fragment describing the disbursement outcome (empty when the
// guards ruled it out silently).
//
// Guards: outcome is APPROVE_REFUND, confidence meets the floor, the ruling
// landed before the final budgeted step, and the request names a positive
// amount, a recipient address, and a transaction id.
func (r *RefundTrigger) Evaluate(ctx context.Context, sess *domain.DisputeSession, req domain.AnalyzeRequest, decision *domain.Decision) (bool, string) {
	if decision.Outcome != domain.OutcomeApproveRefund {
		return false, ""
	}
	if decision.Confidence < r.minConfidence {
		r.log.Info().
			Str("sessionId", sess.ID).
			Float64("confidence", decision.Confidence).
			Float64("floor", r.minConfidence).
			Msg("approval below confidence floor, not disbursing")
		return false, ""
	}
	if sess.Step >= r.maxSteps {
		r.log.Info().Str("sessionId", sess.ID).Int("step", sess.Step).Msg("approval on final step, not disbursing")
		return false, ""
	}
	if req.Amount <= 0 || req.RecipientAddress == "" || sess.TransactionID == "" {
		r.log.Debug().Str("sessionId", sess.ID).Msg("refund parameters incomplete, not disbursing")
		return false, ""
	}

	if r.disburser == nil {
		r.log.Warn().Str("sessionId", sess.ID).Msg("refund approved but no payment rail configured")
		return false, " - Refund approved but disbursement is not configured"
	}

	memo := fmt.Sprintf("Refund for dispute - Transaction: %s", sess.TransactionID)

	// Detach from the request context so a dropped connection cannot leave a
	// half-known disbursement.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	result, err := r.disburser.Send(dctx, req.RecipientAddress, req.Amount, memo)
	if err != nil {
		r.log.Error().Err(err).
			Str("sessionId", sess.ID).
			Str("transaction", sess.TransactionID).
			Float64("amount", req.Amount).
			Msg("disbursement failed")
		return false, " - Refund disbursement failed; it will be processed manually"
	}

	r.log.Info().
		Str("sessionId", sess.ID).
		Str("transaction", sess.TransactionID).
		Str("rail", r.disburser.Name()).
		Float64("amount", req.Amount).
		Bool("success", result.Success).
		Msg("refund disbursed")
	return true, fmt.Sprintf(" - Refund of $%.2f sent to %s", req.Amount, req.RecipientAddress)
}
