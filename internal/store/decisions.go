package store

import (
	"time"

	"github.com/soyeahso/arbiter/internal/domain"
)

// DecisionRecord is one audited dispute ruling.
type DecisionRecord struct {
	SessionID     string    `json:"sessionId,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	Outcome       string    `json:"outcome"`
	Confidence    float64   `json:"confidence"`
	Justification string    `json:"justification"`
	Step          int       `json:"step"`
	Forced        bool      `json:"forced"`
	Disbursed     bool      `json:"disbursed"`
	DecidedAt     time.Time `json:"decidedAt"`
}

// DecisionLog appends completed dispute rulings to the audit table.
type DecisionLog struct {
	db *DB
}

// NewDecisionLog creates a decision log using the given database.
func NewDecisionLog(db *DB) *DecisionLog {
	return &DecisionLog{db: db}
}

// Record appends one ruling. Failures are logged but not returned to request
// handling; the audit trail is best-effort.
func (l *DecisionLog) Record(rec DecisionRecord) {
	_, err := l.db.sql.Exec(
		`INSERT INTO decisions (session_id, transaction_id, outcome, confidence, justification, step, forced, disbursed, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.TransactionID, rec.Outcome, rec.Confidence,
		rec.Justification, rec.Step, boolInt(rec.Forced), boolInt(rec.Disbursed),
		time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		l.db.log.Error().Err(err).Str("transaction", rec.TransactionID).Msg("failed to record decision")
	}
}

// ListByTransaction returns all recorded rulings for a transaction, oldest first.
func (l *DecisionLog) ListByTransaction(transactionID string) ([]DecisionRecord, error) {
	rows, err := l.db.sql.Query(
		`SELECT session_id, transaction_id, outcome, confidence, justification, step, forced, disbursed, decided_at
		 FROM decisions WHERE transaction_id = ? ORDER BY id`, transactionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var forced, disbursed int
		var decidedAt string
		if err := rows.Scan(
			&rec.SessionID, &rec.TransactionID, &rec.Outcome, &rec.Confidence,
			&rec.Justification, &rec.Step, &forced, &disbursed, &decidedAt,
		); err != nil {
			continue
		}
		rec.Forced = forced != 0
		rec.Disbursed = disbursed != 0
		rec.DecidedAt, _ = time.Parse(time.DateTime, decidedAt)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RecordDecision is a convenience wrapper over Record for a domain decision.
func (l *DecisionLog) RecordDecision(sessionID, transactionID string, dec *domain.Decision, step int, forced, disbursed bool) {
	l.Record(DecisionRecord{
		SessionID:     sessionID,
		TransactionID: transactionID,
		Outcome:       string(dec.Outcome),
		Confidence:    dec.Confidence,
		Justification: dec.Justification,
		Step:          step,
		Forced:        forced,
		Disbursed:     disbursed,
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
