package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/sessionbill/internal/config"
	"github.com/teemow/sessionbill/internal/instrumentation"
	"github.com/teemow/sessionbill/internal/server"
	"github.com/teemow/sessionbill/internal/tools/billing_tools"
)

func newServeCmd() *cobra.Command {
	var yolo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server on standard input/output so
that AI assistants can preview and generate invoices.

Safety Mode:
  By default, the server operates in read-only mode and only offers
  billing_preview. Use --yolo to enable billing_generate, which writes
  invoice files and can e-mail them.

The Google token must exist (run 'sessionbill auth' first) unless an
iCalendar export is configured with ics_file. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(settings, !yolo)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (billing_generate)")
	cmd.Flags().String("ics", "", "Read events from an iCalendar file instead of Google Calendar")

	return cmd
}

func runServe(s *config.Settings, readOnly bool) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := newProvider(shutdownCtx)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	serverContext, err := newServerContext(shutdownCtx, s, provider.Metrics())
	if err != nil {
		return err
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("sessionbill", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	logger.Info("starting MCP server", "transport", "stdio", "read_only", readOnly)
	return runStdioServer(mcpSrv)
}

func newServerContext(ctx context.Context, s *config.Settings, metrics *instrumentation.Metrics) (*server.ServerContext, error) {
	return server.NewServerContext(ctx, server.Options{
		Factory: func(ctx context.Context) (server.Runner, error) {
			svc, err := newService(ctx, s, metrics)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
		Location: s.Location(),
		OnError:  s.ErrorPolicy(),
		Logger:   logger,
		Metrics:  metrics,
	})
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Billing",
			register: func() error {
				return billing_tools.RegisterBillingTools(mcpSrv, sc, readOnly)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}
