package oracle

import "context"

// Mock is a test double for Oracle. If Replies is set, each Analyze call
// returns the next entry (repeating the last one when exhausted).
type Mock struct {
	AnalyzeFunc func(ctx context.Context, req Request) (string, error)
	Replies     []string
	Calls       int
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Analyze(ctx context.Context, req Request) (string, error) {
	m.Calls++
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, req)
	}
	if len(m.Replies) > 0 {
		i := m.Calls - 1
		if i >= len(m.Replies) {
			i = len(m.Replies) - 1
		}
		return m.Replies[i], nil
	}
	return "DECISION: DENY_REFUND | CONFIDENCE: 0.9 | JUSTIFICATION: mock ruling", nil
}
