package dispute

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soyeahso/arbiter/internal/domain"
)

// systemPrompt tells the oracle which reply dialects the parser accepts.
const systemPrompt = `You are a payment dispute arbitrator for purchases made by autonomous agents on behalf of their users.

Weigh the claim against the available evidence and reply in exactly one of these forms:

1. Final ruling:
DECISION: APPROVE_REFUND or DENY_REFUND | CONFIDENCE: <0.0-1.0> | JUSTIFICATION: <one paragraph>

2. To see the user's original instruction to their agent, reply containing:
REQUEST_EVIDENCE:USER_PROMPT

3. To see the agent's purchase decision record, reply containing:
REQUEST_EVIDENCE:AGENT_DECISION

Request evidence at most twice, then you must rule. Confirmed delivery with a signature weighs strongly against "never received" claims; a failed or missing delivery weighs strongly in their favor. If you rule without the structured form, state your certainty as a percentage.`

// initialPrompt opens a dispute conversation with the claim and any
// shipment evidence already on file.
func initialPrompt(req domain.AnalyzeRequest, shipmentSummary string) string {
	tx := req.TransactionID
	if tx == "" {
		tx = "Not provided"
	}
	amount := "Not provided"
	if req.Amount > 0 {
		amount = fmt.Sprintf("$%.2f", req.Amount)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "DISPUTE CASE:\nTransaction: %s\nAmount: %s\nClaim: %s\n", tx, amount, req.DisputeDescription)
	if shipmentSummary != "" {
		b.WriteString("\n")
		b.WriteString(shipmentSummary)
		b.WriteString("\n")
	}
	b.WriteString("\nMake your decision with a certainty percentage. If your certainty is below 70%, request additional evidence (maximum 2 requests).")
	return b.String()
}

// evidencePrompt presents caller-supplied evidence on a follow-up turn.
// Keys are sorted so identical evidence yields an identical prompt.
func evidencePrompt(kind string, data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s EVIDENCE:\n", strings.ToUpper(kind))
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, data[k])
	}
	b.WriteString("\nNow make your final decision with a certainty percentage.")
	return b.String()
}
