package dispute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soyeahso/arbiter/internal/domain"
	"github.com/soyeahso/arbiter/internal/payment"
)

func refundFixture() (*domain.DisputeSession, domain.AnalyzeRequest, *domain.Decision) {
	sess := &domain.DisputeSession{ID: "s-1", TransactionID: "tx-1", Step: 1}
	req := domain.AnalyzeRequest{
		DisputeDescription: "claim",
		TransactionID:      "tx-1",
		Amount:             25,
		RecipientAddress:   "0xabc",
	}
	dec := &domain.Decision{
		Outcome:       domain.OutcomeApproveRefund,
		Confidence:    0.90,
		Justification: "delivery failed",
	}
	return sess, req, dec
}

func TestRefundGuardFlipping(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*domain.DisputeSession, *domain.AnalyzeRequest, *domain.Decision)
		disburse bool
	}{
		{"all guards hold", func(s *domain.DisputeSession, r *domain.AnalyzeRequest, d *domain.Decision) {}, true},
		{"denial outcome", func(s *domain.DisputeSession, r *domain.AnalyzeRequest, d *domain.Decision) {
			d.Outcome = domain.OutcomeDenyRefund
		}, false},
		{"confidence at floor", func(s *domain.DisputeSession, r *domain.AnalyzeRequest, d *domain.Decision) {
			d.Confidence = 0.70
		}, true},
		{"confidence just below floor", func(s *domain.DisputeSession, r *domain.AnalyzeRequest, d *domain.Decision) {
			d.Confidence = 0.69
		}, false},
		{"step below budget", func(s *domain.DisputeSession, r *domain.AnalyzeRequest, d *domain.Decision) {
			s.Step = 2
		}, true},
		{"step at budget", func(s *domain.DisputeSession, r *domain.AnalyzeRequest, d *domain.Decision) {
			s.Step = 3
		}, false},
		{"missing amount", func(s *domain.DisputeSession, r *domain.AnalyzeRequest, d *domain.Decision) {
			r.Amount = 0
		}, false},
		{"missing address", func(s *domain.DisputeSession, r *domain.AnalyzeRequest, d *domain.Decision) {
			r.RecipientAddress = ""
		}, false},
		{"missing transaction id", func(s *domain.DisputeSession, r *domain.AnalyzeRequest, d *domain.Decision) {
			s.TransactionID = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, req, dec := refundFixture()
			tt.mutate(sess, &req, dec)

			disburser := &payment.Mock{}
			trigger := NewRefundTrigger(disburser, 0.70, 3, testLogger())
			disbursed, _ := trigger.Evaluate(context.Background(), sess, req, dec)

			assert.Equal(t, tt.disburse, disbursed)
			if tt.disburse {
				assert.Equal(t, 1, disburser.Calls)
			} else {
				assert.Zero(t, disburser.Calls)
			}
		})
	}
}

func TestRefundMemoNamesTransaction(t *testing.T) {
	sess, req, dec := refundFixture()
	disburser := &payment.Mock{}
	trigger := NewRefundTrigger(disburser, 0.70, 3, testLogger())

	disbursed, fragment := trigger.Evaluate(context.Background(), sess, req, dec)

	assert.True(t, disbursed)
	assert.Contains(t, disburser.Memos[0], "tx-1")
	assert.Contains(t, fragment, "$25.00")
}
