package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicecast/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var skipLLM bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, the results database, and the inference backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			checks := preflight.RunAll(cmd.Context(), cfg, skipLLM)
			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				if err := writeJSON(out, checks); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(checks))
				for _, c := range checks {
					status := "ok"
					if !c.Passed {
						status = "FAIL"
					}
					rows = append(rows, []string{c.Name, status, c.Detail})
				}
				writeTable(out, []string{"Check", "Status", "Detail"}, rows, nil)
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(checks))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "Skip the inference backend health check")
	return cmd
}
