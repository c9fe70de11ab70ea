package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var envFlag string
	var jsonFlag bool

	ctx := newCommandContext(&configFlag, &logLevelFlag, &envFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "voicecast",
		Short:         "Cast synthesis voices for the characters of a book",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env-file", ".env", "Environment file loaded before the configuration")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print machine-readable JSON instead of tables")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newAnalyzeBookCommand(ctx))
	rootCmd.AddCommand(newCheckpointCommand(ctx))
	rootCmd.AddCommand(newSpeakersCommand(ctx))
	rootCmd.AddCommand(newResultsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}
