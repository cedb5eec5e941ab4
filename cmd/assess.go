package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naaf-labs/naaf-cli/internal/model"
	"github.com/naaf-labs/naaf-cli/internal/stream"
)

var assessJSON bool

var assessCmd = &cobra.Command{
	Use:   "assess <country>",
	Short: "Run a full readiness assessment for a country",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		entityName := strings.Join(args, " ")
		run, err := env.Coordinator.NewRun(entityName)
		if err != nil {
			return err
		}

		// Print progress while the run executes.
		events, cancelSub := env.Broker.Subscribe(run.ID)
		defer cancelSub()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range events {
				printEvent(ev)
			}
		}()

		run, err = env.Coordinator.Execute(ctx, run)
		<-done
		if err != nil {
			return err
		}

		if assessJSON {
			return json.NewEncoder(os.Stdout).Encode(run)
		}
		printRun(run)
		return nil
	},
}

func printEvent(ev stream.Event) {
	if assessJSON {
		return
	}
	switch ev.Type {
	case stream.EventLayerComplete:
		score, _ := ev.Payload["score"].(float64)
		max, _ := ev.Payload["max_score"].(float64)
		status := fmt.Sprint(ev.Payload["status"])
		fmt.Printf("  layer %d %-38s %6.2f / %5.2f  [%s]\n", ev.Dimension, ev.Message, score, max, status)
	case stream.EventStatus, stream.EventScoringComplete, stream.EventError:
		fmt.Println(ev.Message)
	}
}

func printRun(run *model.Run) {
	fmt.Println()
	fmt.Printf("Run      %s\n", run.ID)
	fmt.Printf("Country  %s\n", run.Entity.Name)
	if run.Overall != nil {
		fmt.Printf("Overall  %.1f / 100\n", *run.Overall)
	}
	fmt.Printf("Tier     %s\n", run.Tier)
	fmt.Printf("Sources  %d cited\n", len(run.Sources))

	failed := 0
	for _, a := range run.Assessments {
		if a.Status == model.LayerStatusFailed {
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("Warning  %d of %d layers failed and scored zero\n", failed, len(run.Assessments))
	}
	zap.L().Info("assessment finished", zap.String("run_id", run.ID))
}

func init() {
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "emit the finalized run as JSON")
	rootCmd.AddCommand(assessCmd)
}
