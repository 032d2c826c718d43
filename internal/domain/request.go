package domain

// EvidencePayload is caller-supplied evidence attached to a follow-up turn.
type EvidencePayload struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data"`
}

// AnalyzeRequest is the single-endpoint request for a new or continuing
// dispute analysis turn.
type AnalyzeRequest struct {
	DisputeDescription string           `json:"disputeDescription"`
	TransactionID      string           `json:"transactionId,omitempty"`
	SessionID          string           `json:"sessionId,omitempty"`
	AdditionalEvidence *EvidencePayload `json:"additionalEvidence,omitempty"`

	// Refund parameters; disbursement only happens when all are present.
	Amount           float64 `json:"amount,omitempty"`
	RecipientAddress string  `json:"recipientAddress,omitempty"`
}

// Analysis statuses returned to callers.
const (
	AnalysisNeedsEvidence = "needs_evidence"
	AnalysisCompleted     = "completed"
)

// AnalyzeResponse is the protocol response for one turn.
type AnalyzeResponse struct {
	Status            string           `json:"status"`
	SessionID         string           `json:"sessionId,omitempty"`
	TransactionID     string           `json:"transactionId,omitempty"`
	EvidenceRequested *EvidenceRequest `json:"evidenceRequested,omitempty"`
	Decision          *Decision        `json:"decision,omitempty"`
	Message           string           `json:"message,omitempty"`
	Step              int              `json:"step"`
}
