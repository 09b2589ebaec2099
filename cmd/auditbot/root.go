package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/auditbot/app"
	"github.com/dmitrymomot/auditbot/core/command/builtin"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "auditbot",
		Short:         "Discord bot for AI audit operations",
		Long:          "auditbot runs the Discord bot: slash commands, rate limiting, metrics and health monitoring.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(), newRegisterCmd(), newCommandsCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve commands until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.NewApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Run(ctx)
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Publish the slash command catalog to the configured server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := app.Register(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Commands registered")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "registration timeout")
	return cmd
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the slash commands the bot provides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := builtin.NewRegistry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range reg.Descriptors() {
				suffix := ""
				if d.AdminOnly {
					suffix = " (admin)"
				}
				fmt.Fprintf(out, "/%-14s %s%s\n", d.Name, d.Description, suffix)
			}
			return nil
		},
	}
}
