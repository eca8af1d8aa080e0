package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docledger/docledger/internal/alert"
	"github.com/docledger/docledger/internal/config"
	"github.com/docledger/docledger/internal/docstore"
	"github.com/docledger/docledger/internal/ledger"
	"github.com/docledger/docledger/internal/server"
	"github.com/docledger/docledger/internal/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docledger",
	Short: "Docledger - Tamper-Evident Document Ledger",
	Long:  `An append-only hash chain recording document lifecycle events with verifiable provenance`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "docledger.yaml", "config file path")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(statusCmd)

	registerCmd.Flags().String("actor", "system", "identity registering the document")
	registerCmd.Flags().String("title", "", "document title for the archive")
	registerCmd.Flags().String("type", "", "document type for the archive")
	accessCmd.Flags().String("actor", "anonymous", "identity accessing the document")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("docledger v0.1.0")
		fmt.Println("Tamper-Evident Document Ledger")
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the ledger data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := os.MkdirAll(cfg.Ledger.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		led, err := ledger.New(store.New(cfg.Ledger.LedgerPath()), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize ledger: %w", err)
		}

		docs, err := docstore.New(cfg.Ledger.DocumentsPath())
		if err != nil {
			return fmt.Errorf("failed to initialize document archive: %w", err)
		}
		defer docs.Close()

		if err := docs.SetMetadata("initialized_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to write archive metadata: %w", err)
		}

		fmt.Printf("Initialized ledger with %d block(s)\n", led.Stats().TotalBlocks)
		fmt.Printf("Data directory: %s\n", cfg.Ledger.DataDir)
		fmt.Printf("Ledger file: %s\n", cfg.Ledger.LedgerPath())
		fmt.Printf("Document archive: %s\n", cfg.Ledger.DocumentsPath())

		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ledger HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		if err := os.MkdirAll(cfg.Ledger.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		alerts := alert.NewManager(cfg.Alerts.Enabled, cfg.Alerts.SlackWebhook)

		led, err := ledger.NewWithAlerts(store.New(cfg.Ledger.LedgerPath()), logger, alerts)
		if err != nil {
			return fmt.Errorf("failed to initialize ledger: %w", err)
		}

		docs, err := docstore.New(cfg.Ledger.DocumentsPath())
		if err != nil {
			return fmt.Errorf("failed to open document archive: %w", err)
		}
		defer docs.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		monitor := ledger.NewMonitor(led, cfg.Ledger.VerifyIntervalDuration(), alerts, logger)
		if err := monitor.Start(ctx); err != nil {
			return fmt.Errorf("failed to start integrity monitor: %w", err)
		}
		defer monitor.Stop()

		srv := server.New(led, docs, logger)
		s := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Handler(cfg.Server.AllowedOrigins),
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			logger.Info("Shutting down the http server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shutdown http server", zap.Error(err))
			}
		}()

		logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.Addr))
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}

		if err := led.Flush(); err != nil {
			logger.Error("Failed to flush ledger on shutdown", zap.Error(err))
		}

		logger.Info("Docledger stopped")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register [doc-id] [file]",
	Short: "Register a document on the ledger",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		docID := args[0]

		content, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}

		actor, _ := cmd.Flags().GetString("actor")
		title, _ := cmd.Flags().GetString("title")
		docType, _ := cmd.Flags().GetString("type")

		led, docs, cleanup, err := openLedger()
		if err != nil {
			return err
		}
		defer cleanup()

		block, err := led.Register(docID, string(content), actor)
		if err != nil {
			return fmt.Errorf("failed to register document: %w", err)
		}

		record := &docstore.Document{
			DocID:       docID,
			Title:       title,
			DocType:     docType,
			Content:     string(content),
			ContentHash: block.ContentHash,
			UploadedBy:  actor,
			CreatedAt:   block.Timestamp,
		}
		if err := docs.SaveDocument(record); err != nil {
			return fmt.Errorf("failed to archive document: %w", err)
		}

		fmt.Printf("Registered document: %s\n", docID)
		fmt.Printf("  Block index: %d\n", block.Index)
		fmt.Printf("  Content hash: %s\n", block.ContentHash)
		return nil
	},
}

var accessCmd = &cobra.Command{
	Use:   "access [doc-id]",
	Short: "Record a document access event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, _ := cmd.Flags().GetString("actor")

		led, _, cleanup, err := openLedger()
		if err != nil {
			return err
		}
		defer cleanup()

		block, err := led.RecordAccess(args[0], actor)
		if err != nil {
			return fmt.Errorf("failed to record access: %w", err)
		}

		fmt.Printf("Recorded access to %s by %s (block %d)\n", args[0], actor, block.Index)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [doc-id] [file]",
	Short: "Verify a document against its recorded provenance",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}

		led, _, cleanup, err := openLedger()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := led.Verify(args[0], string(content))
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		if result.IsValid {
			fmt.Printf("✅ %s: content matches the registered original\n", args[0])
		} else {
			fmt.Printf("❌ %s: MODIFICATION DETECTED\n", args[0])
			fmt.Printf("  Original hash: %s\n", result.OriginalHash)
			fmt.Printf("  Current hash:  %s\n", result.CurrentHash)
		}
		if result.ChainValid {
			fmt.Println("  Chain integrity: OK")
		} else {
			fmt.Println("  Chain integrity: COMPROMISED")
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [doc-id]",
	Short: "Print a document's event history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		led, _, cleanup, err := openLedger()
		if err != nil {
			return err
		}
		defer cleanup()

		history := led.History(args[0])
		if len(history) == 0 {
			fmt.Printf("No events recorded for %s\n", args[0])
			return nil
		}

		for _, entry := range history {
			fmt.Printf("  [%d] %s  %-8s  %s  %s\n",
				entry.BlockIndex,
				entry.Timestamp.Format(time.RFC3339),
				entry.Action,
				entry.Actor,
				entry.Hash)
		}
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit [doc-id]",
	Short: "Print a document's audit report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		led, _, cleanup, err := openLedger()
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := led.Report(args[0])
		if err != nil {
			return fmt.Errorf("failed to build audit report: %w", err)
		}

		fmt.Printf("Audit report for %s\n", report.DocID)
		fmt.Printf("  Registered on: %s\n", report.RegisteredOn.Format(time.RFC3339))
		fmt.Printf("  Registered by: %s\n", report.RegisteredBy)
		fmt.Printf("  Original hash: %s\n", report.OriginalHash)
		fmt.Printf("  Total accesses: %d\n", report.TotalAccesses)
		fmt.Printf("  Chain integrity: %s\n", report.ChainIntegrity)
		fmt.Printf("  Total events: %d\n", report.TotalEvents)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display ledger status",
	RunE: func(cmd *cobra.Command, args []string) error {
		led, _, cleanup, err := openLedger()
		if err != nil {
			return err
		}
		defer cleanup()

		stats := led.Stats()
		fmt.Printf("Total blocks: %d\n", stats.TotalBlocks)
		fmt.Printf("Documents: %d\n", stats.TotalDocuments)
		if stats.ChainValid {
			fmt.Println("Chain integrity: ✅ valid")
		} else {
			fmt.Println("Chain integrity: ❌ COMPROMISED")
		}
		if stats.LastBlockTime != nil {
			fmt.Printf("Last block: %s\n", stats.LastBlockTime.Format(time.RFC3339))
		}
		return nil
	},
}

// openLedger wires the ledger and archive for one-shot CLI commands.
func openLedger() (*ledger.Ledger, *docstore.Store, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, nil, err
	}

	alerts := alert.NewManager(cfg.Alerts.Enabled, cfg.Alerts.SlackWebhook)

	led, err := ledger.NewWithAlerts(store.New(cfg.Ledger.LedgerPath()), logger, alerts)
	if err != nil {
		logger.Sync()
		return nil, nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	docs, err := docstore.New(cfg.Ledger.DocumentsPath())
	if err != nil {
		logger.Sync()
		return nil, nil, nil, fmt.Errorf("failed to open document archive: %w", err)
	}

	cleanup := func() {
		docs.Close()
		logger.Sync()
	}

	return led, docs, cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
