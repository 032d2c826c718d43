// Package domain holds the core dispute arbitration types shared across packages.
package domain

import "time"

// Well-known evidence kinds. Callers may declare additional kinds; these are
// the ones the arbiter itself produces or asks for.
const (
	EvidenceDisputeDescription = "dispute_description"
	EvidenceShipment           = "shipment_evidence"
	EvidenceUserPrompt         = "user_prompt"
	EvidenceAgentDecision      = "agent_decision"
	EvidenceMoreInformation    = "more_information"
)

// EvidenceRecord is one piece of information relevant to a dispute.
// A session retains at most one record per kind; a later submission of the
// same kind replaces the earlier one in place.
type EvidenceRecord struct {
	Kind    string         `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// SessionStatus is the protocol state of a dispute session.
type SessionStatus string

const (
	StatusAwaitingEvidence SessionStatus = "awaiting_evidence"
	StatusCompleted        SessionStatus = "completed"
)

// Outcome is a terminal dispute ruling.
type Outcome string

const (
	OutcomeApproveRefund Outcome = "APPROVE_REFUND"
	OutcomeDenyRefund    Outcome = "DENY_REFUND"
)

// Decision is the terminal output of a dispute analysis.
type Decision struct {
	Outcome          Outcome  `json:"outcome"`
	Confidence       float64  `json:"confidence"`
	Justification    string   `json:"justification"`
	EvidenceReviewed []string `json:"evidenceReviewed"`
}

// EvidenceRequest is emitted when the oracle cannot decide yet and names the
// evidence the caller should supply on the next turn.
type EvidenceRequest struct {
	EvidenceType string   `json:"evidenceType"`
	Reason       string   `json:"reason"`
	Fields       []string `json:"fields,omitempty"`
}

// Message is a single turn in the oracle conversation for a session.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// DisputeSession is one active conversation for a single dispute.
type DisputeSession struct {
	ID             string           `json:"id"`
	TransactionID  string           `json:"transactionId"`
	Step           int              `json:"step"`
	Status         SessionStatus    `json:"status"`
	Evidence       []EvidenceRecord `json:"evidence,omitempty"`
	History        []Message        `json:"history,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	LastActivityAt time.Time        `json:"lastActivityAt"`

	// Set only once Status is StatusCompleted. FinalMessage preserves the
	// response message (including any disbursement outcome) so a resubmitted
	// completed session replays the identical result.
	FinalDecision *Decision `json:"finalDecision,omitempty"`
	FinalMessage  string    `json:"finalMessage,omitempty"`
}

// UpsertEvidence merges a record into the session's evidence set, replacing
// any existing record of the same kind in place so insertion order holds.
func (s *DisputeSession) UpsertEvidence(kind string, payload map[string]any) {
	for i := range s.Evidence {
		if s.Evidence[i].Kind == kind {
			s.Evidence[i].Payload = payload
			return
		}
	}
	s.Evidence = append(s.Evidence, EvidenceRecord{Kind: kind, Payload: payload})
}

// HasEvidence reports whether the session holds a record of the given kind.
func (s *DisputeSession) HasEvidence(kind string) bool {
	for i := range s.Evidence {
		if s.Evidence[i].Kind == kind {
			return true
		}
	}
	return false
}

// EvidenceKinds returns the kinds collected so far, in insertion order.
func (s *DisputeSession) EvidenceKinds() []string {
	kinds := make([]string, 0, len(s.Evidence))
	for i := range s.Evidence {
		kinds = append(kinds, s.Evidence[i].Kind)
	}
	return kinds
}

// AppendHistory records one conversation message.
func (s *DisputeSession) AppendHistory(role, content string) {
	s.History = append(s.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}
