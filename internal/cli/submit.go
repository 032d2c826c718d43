package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/arbiter/internal/domain"
)

// newSubmitCmd submits a dispute turn to a running arbiter, useful for
// manual testing and scripted follow-ups.
func newSubmitCmd() *cobra.Command {
	var (
		server       string
		token        string
		description  string
		transaction  string
		session      string
		evidenceKind string
		evidenceJSON string
		amount       float64
		recipient    string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a dispute analysis turn to a running arbiter",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.AnalyzeRequest{
				DisputeDescription: description,
				TransactionID:      transaction,
				SessionID:          session,
				Amount:             amount,
				RecipientAddress:   recipient,
			}

			if evidenceKind != "" {
				data := map[string]any{}
				if evidenceJSON != "" {
					if err := json.Unmarshal([]byte(evidenceJSON), &data); err != nil {
						return fmt.Errorf("parsing --evidence-data: %w", err)
					}
				}
				req.AdditionalEvidence = &domain.EvidencePayload{Kind: evidenceKind, Data: data}
			}

			payload, err := json.Marshal(req)
			if err != nil {
				return err
			}

			httpReq, err := http.NewRequest("POST", server+"/dispute/analyze", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")
			if token != "" {
				httpReq.Header.Set("Authorization", "Bearer "+token)
			}

			client := &http.Client{Timeout: 5 * time.Minute}
			resp, err := client.Do(httpReq)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, body, "", "  "); err != nil {
				fmt.Println(string(body))
			} else {
				fmt.Println(pretty.String())
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %s", resp.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://127.0.0.1:8750", "arbiter base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().StringVarP(&description, "description", "d", "", "dispute description (required)")
	cmd.Flags().StringVar(&transaction, "transaction", "", "transaction id")
	cmd.Flags().StringVar(&session, "session", "", "session id for a follow-up turn")
	cmd.Flags().StringVar(&evidenceKind, "evidence-kind", "", "kind of additional evidence")
	cmd.Flags().StringVar(&evidenceJSON, "evidence-data", "", "additional evidence as a JSON object")
	cmd.Flags().Float64Var(&amount, "amount", 0, "disputed amount in USD")
	cmd.Flags().StringVar(&recipient, "recipient", "", "refund recipient address")
	cmd.MarkFlagRequired("description")

	return cmd
}
