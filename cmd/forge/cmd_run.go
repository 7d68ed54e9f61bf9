package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"forge/internal/chatclient"
	"forge/internal/config"
	"forge/internal/orchestrator"
	"forge/internal/predicate"
	"forge/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run <intent>",
	Short: "Run one intent through the full orchestration pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrchestration,
}

func runOrchestration(cmd *cobra.Command, args []string) error {
	intent := args[0]

	ws, err := resolveWorkspace()
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}

	cfg, err := config.Load(resolveConfigPath(ws))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if maxModules > 0 {
		cfg.Pipeline.MaxModules = maxModules
	}
	if parallelism > 0 {
		cfg.Pipeline.ParallelismPerLevel = parallelism
	}
	if maxRepairs > 0 {
		cfg.Pipeline.MaxRepairAttempts = maxRepairs
	}

	dbPath := ws + "/.forge/manifold.db"
	if err := os.MkdirAll(ws+"/.forge", 0o755); err != nil {
		return fmt.Errorf("create .forge dir: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open manifold store: %w", err)
	}
	defer st.Close()

	var chain []chatclient.Client
	if p := chatclient.ConfigPath(); p != "" {
		chain = loadProviderChain(p)
	} else {
		chain = chatclient.DefaultChain()
	}
	if len(chain) == 0 {
		return fmt.Errorf("no chat providers configured; set an API key env var or %s", chatclient.ConfigPathEnvVar)
	}
	router := chatclient.NewRouter(chain)

	generate := func(systemPrompt, userPrompt string) (string, error) {
		resp, err := router.ChatCompletion(cmd.Context(), systemPrompt, userPrompt)
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}

	var rootPredicates []predicate.Predicate
	for _, f := range successFiles {
		rootPredicates = append(rootPredicates, predicate.FileExists(f))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	session := orchestrator.NewSession(cfg, st, generate)
	report, err := session.Run(ctx, intent, rootPredicates, ws)
	if err != nil {
		fmt.Fprintf(os.Stderr, "session blocked: %v\n", err)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toReportJSON(report)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if !report.Success {
		os.Exit(1)
	}
	return nil
}

// reportJSON is the stable wire shape for `forge run`'s stdout report
// (spec.md §6).
type reportJSON struct {
	TotalModules   int              `json:"total_modules"`
	Passed         int              `json:"passed"`
	Failed         int              `json:"failed"`
	RepairAttempts int              `json:"repair_attempts"`
	DurationSecs   float64          `json:"duration_secs"`
	Success        bool             `json:"success"`
	Workspace      string           `json:"workspace"`
	Modules        []moduleJSON     `json:"modules"`
}

type moduleJSON struct {
	ModuleID         string   `json:"module_id"`
	Status           string   `json:"status"`
	Attempts         int      `json:"attempts"`
	FailedPredicates []string `json:"failed_predicates,omitempty"`
	SkipReason       string   `json:"skip_reason,omitempty"`
}

func toReportJSON(r orchestrator.Report) reportJSON {
	out := reportJSON{
		TotalModules:   r.TotalModules,
		Passed:         r.Passed,
		Failed:         r.Failed,
		RepairAttempts: r.RepairAttempts,
		DurationSecs:   r.DurationSecs,
		Success:        r.Success,
		Workspace:      r.Workspace,
	}
	for _, m := range r.Modules {
		out.Modules = append(out.Modules, moduleJSON{
			ModuleID:         m.ModuleID,
			Status:           m.Status,
			Attempts:         m.Attempts,
			FailedPredicates: m.FailedPredicates,
			SkipReason:       m.SkipReason,
		})
	}
	return out
}

// loadProviderChain reads a JSON array of chatclient.ProviderSpec from path.
func loadProviderChain(path string) []chatclient.Client {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to read provider config %s: %v\n", path, err)
		return chatclient.DefaultChain()
	}
	var specs []chatclient.ProviderSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to parse provider config %s: %v\n", path, err)
		return chatclient.DefaultChain()
	}
	return chatclient.BuildChain(specs)
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect the manifold store",
}

var storeInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the latest manifold snapshot and recent episodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := resolveWorkspace()
		if err != nil {
			return err
		}
		st, err := store.Open(ws + "/.forge/manifold.db")
		if err != nil {
			return fmt.Errorf("open manifold store: %w", err)
		}
		defer st.Close()

		snap, err := st.LoadLatestManifold()
		if err != nil {
			fmt.Println("no manifold snapshot recorded yet")
		} else {
			fmt.Printf("latest manifold (version %d, saved by %s):\n%s\n\n", snap.Version, snap.AgentID, snap.Payload)
		}

		episodes, err := st.RecentEpisodes(20)
		if err != nil {
			return fmt.Errorf("load episodes: %w", err)
		}
		fmt.Println(strings.Repeat("-", 40))
		fmt.Println("recent episodes:")
		for _, e := range episodes {
			fmt.Printf("  [%s] %s: %s\n", e.AgentID, e.EventType, e.Description)
		}
		return nil
	},
}
