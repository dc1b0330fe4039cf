package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the knowledge base a question",
	Long: `Ask a question against the accumulated meeting knowledge base.

Examples:
  meetingd ask "What did we decide about the Q3 launch?"
  meetingd ask --server http://localhost:8090 "Who owns the migration?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// askRequest and askResponse match internal/server.
type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	payload, err := json.Marshal(askRequest{Question: strings.Join(args, " ")})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Post(serverURL+"/ask", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("asking question: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var result askResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	fmt.Println(result.Answer)
	return nil
}
