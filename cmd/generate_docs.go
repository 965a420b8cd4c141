package cmd

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/sessionbill/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		// Introspection needs no settings
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// The tools are only introspected, so the runner is never built
	serverContext, err := server.NewServerContext(context.Background(), server.Options{
		Factory: func(context.Context) (server.Runner, error) {
			return nil, errors.New("documentation server cannot run billing")
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("sessionbill", version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register write tools too so that every tool is documented
	if err := registerAllTools(mcpSrv, serverContext, false); err != nil {
		return err
	}

	// Get the list of tools
	serverTools := mcpSrv.ListTools()

	// Extract mcp.Tool from each ServerTool
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	// Generate markdown documentation
	markdown := generateToolsMarkdown(tools)

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// toolCategories maps tool name prefixes to documentation sections.
var toolCategories = map[string]string{
	"billing": "Billing Tools",
}

// argumentConventions is shared by every billing tool and documented once.
const argumentConventions = `## Argument Conventions

- Dates are calendar days in the configured time zone, written ` + "`YYYY-MM-DD`" + `.
- ` + "`to`" + ` is exclusive. A lone ` + "`from`" + ` bills to the end of its month; no dates bill the last full month.
- ` + "`clients`" + ` is a comma-separated list of names from clients.yaml, matched case-insensitively.
- ` + "`onAmbiguous`" + ` is ` + "`skip`" + ` or ` + "`abort`" + ` and overrides the configured policy for one call.
- Amounts are summed unrounded and rounded once per invoice.

`

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools available when running `sessionbill serve`. Generated from the tool definitions by `sessionbill generate-docs`.\n\n")

	sections := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := toolCategory(tool.Name)
		sections[category] = append(sections[category], tool)
	}
	categories := slices.Sorted(maps.Keys(sections))

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range categories {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", category, strings.ToLower(strings.ReplaceAll(category, " ", "-")))
	}
	sb.WriteString("\n")

	sb.WriteString("## Safety Mode\n\n")
	sb.WriteString("The server starts in read-only mode and only offers `billing_preview`. ")
	sb.WriteString("`billing_generate` writes invoice files and can e-mail them; it is registered with `--yolo`.\n\n")
	sb.WriteString(argumentConventions)

	for _, category := range categories {
		section := sections[category]
		slices.SortFunc(section, func(a, b mcp.Tool) int { return strings.Compare(a.Name, b.Name) })

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range section {
			writeToolMarkdown(&sb, tool)
		}
	}

	return sb.String()
}

func toolCategory(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	if category, ok := toolCategories[prefix]; ok {
		return category
	}
	return "Other"
}

func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) > 0 {
		sb.WriteString("**Arguments:**\n")
		for _, name := range slices.Sorted(maps.Keys(props)) {
			prop, ok := props[name].(map[string]any)
			if !ok {
				continue
			}
			presence := "optional"
			if slices.Contains(tool.InputSchema.Required, name) {
				presence = "required"
			}
			desc, _ := prop["description"].(string)
			if desc == "" {
				desc = propertyType(prop) + " parameter"
			}
			fmt.Fprintf(sb, "- `%s` (%s): %s\n", name, presence, desc)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func propertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
