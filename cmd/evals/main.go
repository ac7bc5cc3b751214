// Command evals checks the tool-selection suites against the registered
// toolkit tools and scores recorded assistant responses.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/olgasafonova/teacher-toolkit-mcp-server/evals"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/catalog"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/prefs"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/internal/toolkit"
	"github.com/olgasafonova/teacher-toolkit-mcp-server/tools"
)

type evalOptions struct {
	dir       string
	suite     string
	responses string
	verbose   bool
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &evalOptions{}
	cmd := &cobra.Command{
		Use:           "evals",
		Short:         "Validate and score toolkit tool-selection suites",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.SetOut(out)
	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory with suite JSON files (default: suites built into the binary)")
	cmd.Flags().StringVar(&opts.suite, "suite", "all", "suite to score: tool_selection, confusion_pairs, arguments or all")
	cmd.Flags().StringVar(&opts.responses, "responses", "", "JSON file of recorded responses keyed by input")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "list every test case")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts *evalOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch opts.suite {
	case "all", "tool_selection", "confusion_pairs", "arguments":
	default:
		return fmt.Errorf("unknown suite %q", opts.suite)
	}

	suites, err := loadSuites(opts.dir)
	if err != nil {
		return err
	}

	surface, err := toolSurface(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Registered tools: %d\n", len(surface))
	fmt.Fprintf(out, "Tool selection tests: %d\n", len(suites.ToolSelection.Tests))
	fmt.Fprintf(out, "Confusion pairs: %d\n", len(suites.ConfusionPairs.Pairs))
	fmt.Fprintf(out, "Argument tests: %d\n", len(suites.Arguments.Tests))

	if opts.verbose {
		printCases(out, suites)
	}

	if issues := suites.Validate(surface); len(issues) > 0 {
		fmt.Fprintln(out, "\nSuite problems:")
		for _, issue := range issues {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
		return fmt.Errorf("%d suite problems", len(issues))
	}
	fmt.Fprintln(out, "Suites match the registered tools.")

	if opts.responses == "" {
		return nil
	}
	selector, err := evals.LoadResponses(opts.responses)
	if err != nil {
		return fmt.Errorf("load responses: %w", err)
	}

	if opts.suite == "all" || opts.suite == "tool_selection" {
		m, _ := evals.EvaluateToolSelection(suites.ToolSelection, selector)
		fmt.Fprint(out, evals.FormatMetrics(m, suites.ToolSelection.Name))
	}
	if opts.suite == "all" || opts.suite == "confusion_pairs" {
		m, _ := evals.EvaluateConfusionPairs(suites.ConfusionPairs, selector)
		fmt.Fprint(out, evals.FormatMetrics(m, suites.ConfusionPairs.Name))
	}
	if opts.suite == "all" || opts.suite == "arguments" {
		m, _ := evals.EvaluateArguments(suites.Arguments, selector)
		fmt.Fprint(out, evals.FormatMetrics(m, suites.Arguments.Name))
	}
	return nil
}

func loadSuites(dir string) (*evals.Suites, error) {
	if dir == "" {
		return evals.LoadEmbedded()
	}
	return evals.LoadAllEvals(dir)
}

// toolSurface lists the tools of an in-memory server.
func toolSurface(ctx context.Context) (evals.ToolSurface, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := toolkit.New(cat, prefs.NewMemoryStore(), logger, toolkit.Options{})
	defer svc.Close()

	server := mcp.NewServer(&mcp.Implementation{Name: "teacher-toolkit-evals", Version: "eval"}, nil)
	tools.NewHandlerRegistry(svc, logger).RegisterAll(server)

	ct, st := mcp.NewInMemoryTransports()
	if _, err := server.Connect(ctx, st, nil); err != nil {
		return nil, fmt.Errorf("connect server: %w", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "evals", Version: "eval"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("connect client: %w", err)
	}
	defer session.Close()

	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return evals.SurfaceFromTools(res.Tools)
}

func printCases(out io.Writer, s *evals.Suites) {
	fmt.Fprintln(out, "\nTool selection:")
	for _, t := range s.ToolSelection.Tests {
		fmt.Fprintf(out, "  [%s] %q -> %s\n", t.ID, t.Input, t.ExpectedTool)
	}
	fmt.Fprintln(out, "\nConfusion pairs:")
	for _, p := range s.ConfusionPairs.Pairs {
		fmt.Fprintf(out, "  [%s] %v: %s\n", p.ID, p.Tools, p.Disambiguation)
	}
	fmt.Fprintln(out, "\nArguments:")
	for _, t := range s.Arguments.Tests {
		fmt.Fprintf(out, "  [%s] %s required=%v\n", t.ID, t.Tool, t.RequiredArgs)
	}
}
