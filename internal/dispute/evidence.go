package dispute

import (
	"context"
	"errors"

	"github.com/soyeahso/arbiter/internal/domain"
	"github.com/soyeahso/arbiter/internal/logging"
	"github.com/soyeahso/arbiter/internal/shipment"
)

// Aggregator folds caller claims, caller-supplied evidence, and shipment
// records into a session's evidence set.
type Aggregator struct {
	facts shipment.Provider
	log   *logging.Logger
}

// NewAggregator creates an aggregator. facts may be nil when no shipment
// source is configured.
func NewAggregator(facts shipment.Provider, log *logging.Logger) *Aggregator {
	return &Aggregator{facts: facts, log: log.Sub("evidence")}
}

// Merge updates the session's evidence for one turn. On the first turn it
// also looks up shipment records by transaction id and returns their text
// summary for the opening prompt. Caller-supplied evidence is validated
// before any mutation so a rejected request leaves the session untouched.
func (a *Aggregator) Merge(ctx context.Context, sess *domain.DisputeSession, req domain.AnalyzeRequest, firstTurn bool) (string, error) {
	if req.AdditionalEvidence != nil {
		if req.AdditionalEvidence.Kind == "" || len(req.AdditionalEvidence.Data) == 0 {
			return "", domain.ErrInvalidEvidence
		}
	}

	sess.UpsertEvidence(domain.EvidenceDisputeDescription, map[string]any{
		"description": req.DisputeDescription,
	})

	summary := ""
	if firstTurn && a.facts != nil && sess.TransactionID != "" && !sess.HasEvidence(domain.EvidenceShipment) {
		ev, err := a.facts.Lookup(ctx, sess.TransactionID)
		switch {
		case err == nil:
			sess.UpsertEvidence(domain.EvidenceShipment, ev.Payload())
			summary = ev.Summary()
		case errors.Is(err, shipment.ErrNotFound):
			a.log.Debug().Str("transaction", sess.TransactionID).Msg("no shipment record")
		default:
			// Lookup failures are non-fatal; the oracle rules on what it has.
			a.log.Warn().Err(err).Str("transaction", sess.TransactionID).Msg("shipment lookup failed")
		}
	}

	if req.AdditionalEvidence != nil {
		sess.UpsertEvidence(req.AdditionalEvidence.Kind, req.AdditionalEvidence.Data)
	}

	return summary, nil
}
