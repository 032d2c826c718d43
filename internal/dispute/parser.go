package dispute

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/soyeahso/arbiter/internal/domain"
)

// Parsing limits and fallbacks for oracle replies.
const (
	justificationLimit = 500
	fallbackConfidence = 0.5
)

// ParseKind classifies what an oracle reply resolved to.
type ParseKind int

const (
	// ParseInconclusive means no dialect matched.
	ParseInconclusive ParseKind = iota
	// ParseDecision means the reply carried a final ruling.
	ParseDecision
	// ParseEvidenceRequest means the reply asked for more evidence.
	ParseEvidenceRequest
)

// ParseResult is the outcome of interpreting one oracle reply.
type ParseResult struct {
	Kind     ParseKind
	Decision *domain.Decision
	Request  *domain.EvidenceRequest
}

var (
	structuredRe = regexp.MustCompile(`(?is)DECISION:\s*(APPROVE_REFUND|DENY_REFUND)\s*\|\s*CONFIDENCE:\s*([0-9.]+)\s*\|\s*JUSTIFICATION:\s*(.+)`)
	percentRe    = regexp.MustCompile(`(?i)(?:CERTAINTY|CONFIDENCE).*?(\d+)%`)
)

var approvalTokens = []string{"APPROVED", "REFUND AUTHORIZED", "AUTHORIZE REFUND", "APPROVE REFUND"}

var denialTokens = []string{"DENIED", "DENY REFUND", "REFUND DENIED", "REJECT"}

// evidenceMarkers maps reply markers to canonical evidence requests, in
// match order.
var evidenceMarkers = []struct {
	marker  string
	request domain.EvidenceRequest
}{
	{
		marker: "REQUEST_EVIDENCE:USER_PROMPT",
		request: domain.EvidenceRequest{
			EvidenceType: domain.EvidenceUserPrompt,
			Reason:       "Need to verify the user's original authorization and intent",
			Fields:       []string{"original_prompt", "authorized_budget", "product_specifications", "user_authorization"},
		},
	},
	{
		marker: "REQUEST_EVIDENCE:AGENT_DECISION",
		request: domain.EvidenceRequest{
			EvidenceType: domain.EvidenceAgentDecision,
			Reason:       "Need to review the agent's purchase decision and validation steps",
			Fields:       []string{"decision_reasoning", "price_validation", "vendor_selection", "purchase_confirmation"},
		},
	},
}

// Parse interprets a free-form oracle reply. Dialects are tried in order:
// the structured pipe form, natural-language verdict tokens, explicit
// evidence-request markers, then inconclusive. Within the natural dialect a
// denial token beats an approval token when both appear.
func Parse(text string) ParseResult {
	if m := structuredRe.FindStringSubmatch(text); m != nil {
		confidence, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			confidence = fallbackConfidence
		}
		outcome := domain.Outcome(strings.ToUpper(m[1]))
		return decision(outcome, confidence, strings.TrimSpace(m[3]))
	}

	upper := strings.ToUpper(text)
	approve := containsAny(upper, approvalTokens)
	deny := containsAny(upper, denialTokens)
	if approve || deny {
		outcome := domain.OutcomeApproveRefund
		if deny {
			outcome = domain.OutcomeDenyRefund
		}
		return decision(outcome, extractConfidence(text), strings.TrimSpace(text))
	}

	for _, em := range evidenceMarkers {
		if strings.Contains(upper, em.marker) {
			req := em.request
			return ParseResult{Kind: ParseEvidenceRequest, Request: &req}
		}
	}

	return ParseResult{Kind: ParseInconclusive}
}

func decision(outcome domain.Outcome, confidence float64, justification string) ParseResult {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	if r := []rune(justification); len(r) > justificationLimit {
		justification = string(r[:justificationLimit])
	}
	return ParseResult{
		Kind: ParseDecision,
		Decision: &domain.Decision{
			Outcome:       outcome,
			Confidence:    confidence,
			Justification: justification,
		},
	}
}

// extractConfidence pulls a stated certainty percentage out of a
// natural-language verdict, falling back to 0.5 when none is stated.
func extractConfidence(text string) float64 {
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return fallbackConfidence
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil {
		return fallbackConfidence
	}
	confidence := float64(pct) / 100
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func containsAny(haystack string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}
