package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var indexFlag string

	ctx := newCommandContext(&configFlag, &indexFlag)

	rootCmd := &cobra.Command{
		Use:           "sprocket",
		Short:         "Sprocket derives creation instances from CSV manifests, editorial timelines, and file batches",
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
	rootCmd.PersistentFlags().StringVar(&indexFlag, "index", "", "Project index file (TOML) with folders and tasks")

	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newSessionCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
