// Package main implements the meetingd daemon and its operator CLI.
//
// meetingd turns meeting notes into a searchable knowledge base: a webhook
// accepts finished meetings from the note-taking service, an LLM extracts a
// structured summary, and the result is persisted and indexed for retrieval
// QA over chat or HTTP.
//
// Usage:
//
//	# Start the daemon
//	meetingd serve --config ~/.config/meetingd/config.yaml
//
//	# Submit a meeting by hand
//	meetingd ingest meeting.json
//
//	# Ask the knowledge base a question
//	meetingd ask "What did we decide about the Q3 launch?"
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the YAML config file for serve.
	configPath string
	// serverURL is the daemon base URL used by the client commands.
	serverURL string
	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "meetingd",
	Short:   "Meeting notes knowledge base daemon",
	Long:    `meetingd ingests meeting notes, extracts structured summaries with an LLM, and answers questions over the accumulated knowledge base.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "meetingd server URL")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
}
