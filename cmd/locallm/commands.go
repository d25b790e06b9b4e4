package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"locallm/pkg/types"
)

func newSetupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Install and start the engine, ensure a model and warm it up",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := a.consoleProgress()
			mgr, err := a.newManager(rep)
			if err != nil {
				rep.Close()
				return err
			}
			ok := mgr.SetupEnvironment(cmd.Context())
			rep.Close()
			if !ok {
				return fmt.Errorf("setup failed: %s", mgr.Status().LastError)
			}
			fmt.Fprintf(a.stdout, "ready: %s\n", mgr.CurrentModel())
			return nil
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	var (
		contextFile string
		asJSON      bool
		setup       bool
	)
	cmd := &cobra.Command{
		Use:     "ask <prompt>",
		Short:   "Answer a question, optionally about a document",
		Example: "  locallm ask \"Summarize the main points\" --context-file notes.txt",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc string
			if contextFile != "" {
				b, err := os.ReadFile(contextFile)
				if err != nil {
					return fmt.Errorf("context file: %w", err)
				}
				doc = string(b)
			}
			rep := a.consoleProgress()
			defer rep.Close()
			mgr, err := a.newManager(rep)
			if err != nil {
				return err
			}
			if setup && !mgr.SetupEnvironment(cmd.Context()) {
				return fmt.Errorf("setup failed: %s", mgr.Status().LastError)
			}
			env := mgr.Generate(cmd.Context(), strings.Join(args, " "), doc)
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(env)
			}
			fmt.Fprintln(a.stdout, env.Text)
			a.log.Debug().
				Str("model", env.Model).
				Str("outcome", string(env.Outcome)).
				Bool("truncated", env.WasTruncated).
				Int64("elapsed_ms", env.ElapsedMs).
				Msg("answer")
			if env.Outcome != types.OutcomeOK {
				return fmt.Errorf("no answer (%s)", env.Outcome)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contextFile, "context-file", "", "Text file to answer from")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response envelope as JSON")
	cmd.Flags().BoolVar(&setup, "setup", false, "Run setup (start engine, ensure model) before asking")
	return cmd
}

func newDiagCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diag",
		Short: "Check the engine and the selected model",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.newManager(nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, mgr.DiagnosticCheck(cmd.Context()))
			return nil
		},
	}
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known and installed models",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.newManager(nil)
			if err != nil {
				return err
			}
			resp := mgr.ListModels(cmd.Context())
			if resp.Error != "" {
				a.log.Warn().Str("error", resp.Error).Msg("engine not reachable; showing known models")
			}
			printModels(a.stdout, resp)
			return nil
		},
	}
}

func printModels(w io.Writer, resp types.ModelsResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tSIZE\tINSTALLED\tRECOMMENDED\tDESCRIPTION")
	for _, m := range resp.Models {
		size := "-"
		if m.SizeGB > 0 {
			size = humanize.Bytes(uint64(m.SizeGB * 1e9))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID, size, yesNo(m.Downloaded), yesNo(m.Recommended), m.Description)
	}
	_ = tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newStopCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Ask a running `locallm serve` to stop the engine it started",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Addr
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return postStop(ctx, http.DefaultClient, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Address of the running server (defaults LOCALLM_ADDR or 127.0.0.1:8085)")
	return cmd
}

func postStop(ctx context.Context, hc *http.Client, addr string) error {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/stop", nil)
	if err != nil {
		return err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("contact server at %s: %w", addr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e types.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("stop failed: %s (%d)", e.Error, resp.StatusCode)
	}
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "locallm %s\n", version)
			return nil
		},
	}
}
