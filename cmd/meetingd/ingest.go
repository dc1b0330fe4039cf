package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Submit a meeting to the daemon",
	Long: `Submit a meeting JSON payload to the daemon's webhook endpoint.

The payload must carry at least an "id"; notes and transcript are fetched
from the note source when omitted.

Examples:
  # Submit a file
  meetingd ingest meeting.json

  # Submit from stdin
  cat meeting.json | meetingd ingest -`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

// ingestResponse matches internal/server MeetingResponse.
type ingestResponse struct {
	Status    string `json:"status"`
	MeetingID string `json:"meeting_id"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	var payload []byte
	var err error
	if args[0] == "-" {
		payload, err = io.ReadAll(os.Stdin)
	} else {
		payload, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Post(serverURL+"/webhooks/meetings", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("submitting meeting: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var result ingestResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	fmt.Printf("%s: %s\n", result.MeetingID, result.Status)
	return nil
}
