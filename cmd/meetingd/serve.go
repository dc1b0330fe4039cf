package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/meetingd/internal/chat"
	"github.com/fyrsmithlabs/meetingd/internal/config"
	"github.com/fyrsmithlabs/meetingd/internal/embeddings"
	"github.com/fyrsmithlabs/meetingd/internal/ledger"
	"github.com/fyrsmithlabs/meetingd/internal/logging"
	"github.com/fyrsmithlabs/meetingd/internal/metrics"
	"github.com/fyrsmithlabs/meetingd/internal/notesource"
	"github.com/fyrsmithlabs/meetingd/internal/notify"
	"github.com/fyrsmithlabs/meetingd/internal/pipeline"
	"github.com/fyrsmithlabs/meetingd/internal/provider"
	"github.com/fyrsmithlabs/meetingd/internal/qa"
	"github.com/fyrsmithlabs/meetingd/internal/server"
	"github.com/fyrsmithlabs/meetingd/internal/store"
	"github.com/fyrsmithlabs/meetingd/internal/summarizer"
	"github.com/fyrsmithlabs/meetingd/internal/vectorstore"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the meetingd daemon",
	Long: `Run the meetingd daemon: the meeting webhook, retrieval QA, the chat
mention handler, and the post-process summary hook.

Examples:
  # Start with defaults plus an API key
  MEETINGD_LLM_TOKEN=sk-... meetingd serve

  # Start from a config file
  meetingd serve --config ~/.config/meetingd/config.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Persistence.
	led, err := ledger.New(cfg.Ledger.Path, logger)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	recordStore, err := store.New(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("opening record store: %w", err)
	}

	// Models.
	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.LLM.Token,
	})
	if err != nil {
		return fmt.Errorf("building embedder: %w", err)
	}
	llm, err := summarizer.NewOpenAIService(summarizer.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.Token,
	}, logger)
	if err != nil {
		return fmt.Errorf("building summarizer: %w", err)
	}

	// Vector index.
	index, err := vectorstore.NewChromemIndex(vectorstore.ChromemConfig{
		Path:       cfg.VectorStore.Path,
		Collection: cfg.VectorStore.Collection,
	}, embedder, logger)
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}
	defer index.Close() //nolint:errcheck

	answerer := qa.New(index, llm, m, logger)

	// Note source is optional; intake may carry notes inline.
	var notes pipeline.NoteSource
	if cfg.NoteSource.URL != "" {
		client, err := notesource.Connect(ctx, notesource.Config{
			URL:   cfg.NoteSource.URL,
			Token: cfg.NoteSource.Token,
		}, logger)
		if err != nil {
			logger.Warn("note source unavailable, relying on inline notes", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			notes = client
		}
	}

	// Broker. Degrades to log-only notifications when unreachable.
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	var natsConn *nats.Conn
	if conn, err := nats.Connect(cfg.Chat.NATSURL, nats.Name("meetingd")); err != nil {
		logger.Warn("nats unavailable, chat disabled", zap.Error(err))
	} else {
		natsConn = conn
		defer conn.Close()
		n, err := notify.NewNATSNotifier(conn, cfg.Chat.NotifySubject, logger)
		if err != nil {
			return fmt.Errorf("building notifier: %w", err)
		}
		notifier = n
	}

	providers := buildProviders(ctx, cfg, logger)
	issues := provider.NewIssueCreator(llm, providers, notifier, logger)
	issueFn := chat.IssueCreatorFunc(func(ctx context.Context, providerName, text, channel, thread string) error {
		_, err := issues.CreateFromText(ctx, providerName, text, channel, thread)
		return err
	})

	pipe := pipeline.New(led, recordStore, llm, index, notes, m, logger)
	pipe.AddHook(chat.NewSummaryHook(chat.SummaryHookConfig{
		Channel:  cfg.Chat.SummaryChannel,
		Provider: cfg.Chat.Provider,
	}, notifier, issueFn, logger))

	// Chat mention handling rides on the broker connection. Thread
	// summarization needs a chat platform reader, which no bridge provides
	// yet; summarize mentions fall back to QA until one does.
	var transport *chat.Transport
	if natsConn != nil {
		logger.Info("thread summarization disabled, no thread reader configured")
		handler := chat.NewHandler(answerer, issueFn, nil, notifier, cfg.Chat.Provider, logger)
		transport, err = chat.NewTransport(natsConn, cfg.Chat.MentionSubject, handler, logger)
		if err != nil {
			return fmt.Errorf("building mention transport: %w", err)
		}
		if err := transport.Start(ctx); err != nil {
			return fmt.Errorf("starting mention transport: %w", err)
		}
		defer transport.Stop() //nolint:errcheck
	}

	srv, err := server.NewServer(server.Config{Port: cfg.Server.Port}, pipe, answerer, registry, logger)
	if err != nil {
		return fmt.Errorf("building http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// buildProviders initializes every configured action provider. A provider
// whose Init fails is left unregistered with a warning; the rest of the
// daemon keeps working without it.
func buildProviders(ctx context.Context, cfg *config.Config, logger *zap.Logger) *provider.Registry {
	registry := provider.NewRegistry(logger)

	if cfg.Providers.GitHub.Token != "" {
		gh := provider.NewGitHubProvider(provider.GitHubConfig{
			Token: cfg.Providers.GitHub.Token,
			Repo:  cfg.Providers.GitHub.Repo,
		}, logger)
		if err := gh.Init(ctx); err != nil {
			logger.Warn("github provider unavailable", zap.Error(err))
		} else {
			registry.Register(gh)
		}
	}

	if cfg.Providers.Linear.APIKey != "" {
		lin := provider.NewLinearProvider(provider.LinearConfig{
			APIKey: cfg.Providers.Linear.APIKey,
			TeamID: cfg.Providers.Linear.TeamID,
		}, logger)
		if err := lin.Init(ctx); err != nil {
			logger.Warn("linear provider unavailable", zap.Error(err))
		} else {
			registry.Register(lin)
		}
	}

	return registry
}
