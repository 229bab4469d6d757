package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fssp",
		Short:         "Search the FSSP enforcement proceedings registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.validateFormat()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	rootCmd.PersistentFlags().StringVarP(&ctx.format, "format", "f", formatHuman, "Output format (human|json)")

	rootCmd.AddCommand(newIPCommand(ctx))
	rootCmd.AddCommand(newPersonCommand(ctx))
	rootCmd.AddCommand(newINNCommand(ctx))

	return rootCmd
}
