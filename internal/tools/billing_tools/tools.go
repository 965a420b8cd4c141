package billing_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/sessionbill/internal/billing"
	"github.com/teemow/sessionbill/internal/invoicing"
	"github.com/teemow/sessionbill/internal/server"
	"github.com/teemow/sessionbill/internal/tools/common"
)

const (
	formatJSON = "json"
	formatText = "text"
)

// now is replaced in tests.
var now = time.Now

// RegisterBillingTools registers the billing tools with the MCP server.
// billing_generate writes files and may send mail, so it is left out in
// read-only mode.
func RegisterBillingTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	previewOpts := []mcp.ToolOption{
		mcp.WithDescription("Classify the calendar events of a period and show the invoices that would be generated, without writing anything"),
	}
	previewTool := mcp.NewTool("billing_preview", append(previewOpts, periodOptions()...)...)
	s.AddTool(previewTool, common.InstrumentedToolHandler("billing_preview", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRun(ctx, request, sc, true)
		}))

	if readOnly {
		return nil
	}

	generateOpts := []mcp.ToolOption{
		mcp.WithDescription("Generate the invoices of a period and write them to the output directory"),
	}
	generateOpts = append(generateOpts, periodOptions()...)
	generateOpts = append(generateOpts,
		mcp.WithBoolean("send",
			mcp.Description("E-mail each invoice to its recipient after writing it"),
		),
	)
	generateTool := mcp.NewTool("billing_generate", generateOpts...)
	s.AddTool(generateTool, common.InstrumentedToolHandler("billing_generate", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRun(ctx, request, sc, false)
		}))

	return nil
}

func periodOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("from",
			mcp.Description("First day of the period (YYYY-MM-DD). Defaults to the first day of last month."),
		),
		mcp.WithString("to",
			mcp.Description("Day after the last day of the period (YYYY-MM-DD, exclusive). Defaults to the end of the month of 'from'."),
		),
		mcp.WithString("clients",
			mcp.Description("Comma-separated list of client names to bill. Defaults to all clients."),
		),
		mcp.WithString("onAmbiguous",
			mcp.Description("What to do with events matching more than one client: 'skip' or 'abort'. Defaults to the configured policy."),
			mcp.Enum("skip", "abort"),
		),
		mcp.WithString("format",
			mcp.Description("Result format: 'json' (default) or 'text'"),
			mcp.Enum(formatJSON, formatText),
		),
	}
}

func handleRun(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, dryRun bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	opts, err := runOptionsFromArgs(args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts.DryRun = dryRun

	runner, err := sc.Runner()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to prepare billing run: %v", err)), nil
	}

	report, err := runner.Run(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Billing run failed: %v", err)), nil
	}

	if format, _ := args["format"].(string); format == formatText {
		return mcp.NewToolResultText(report.Summary()), nil
	}

	result, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

func runOptionsFromArgs(args map[string]interface{}, sc *server.ServerContext) (invoicing.RunOptions, error) {
	var opts invoicing.RunOptions

	from, _ := args["from"].(string)
	to, _ := args["to"].(string)
	period, err := billing.ParsePeriod(strings.TrimSpace(from), strings.TrimSpace(to), sc.Location(), now())
	if err != nil {
		return opts, err
	}
	opts.Period = period

	if clientsStr, ok := args["clients"].(string); ok && clientsStr != "" {
		for _, name := range strings.Split(clientsStr, ",") {
			if name = strings.TrimSpace(name); name != "" {
				opts.Clients = append(opts.Clients, name)
			}
		}
	}

	opts.OnError = sc.ErrorPolicy()
	if policy, ok := args["onAmbiguous"].(string); ok && policy != "" {
		if opts.OnError, err = billing.ParseErrorPolicy(policy); err != nil {
			return opts, err
		}
	}

	opts.Send, _ = args["send"].(bool)
	return opts, nil
}
