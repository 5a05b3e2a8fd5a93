package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/faiyaz032/gobox/internal/client"
	"github.com/faiyaz032/gobox/internal/logging"
	"github.com/faiyaz032/gobox/internal/theme"
	"github.com/spf13/cobra"
)

func newDoctorCmd(opts *options) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the backend and this device's identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ok := lipgloss.NewStyle().Foreground(theme.ColorConnected).Render("✓")
			bad := lipgloss.NewStyle().Foreground(theme.ColorError).Render("✖")
			failed := false

			fmt.Fprintf(out, "%s endpoint %s\n", ok, cfg.Connect.Endpoint)

			base, err := client.HTTPBase(cfg.Connect.Endpoint)
			if err != nil {
				return err
			}
			h, err := client.NewHTTPClient(base, timeout).Health(cmd.Context())
			if err != nil {
				failed = true
				fmt.Fprintf(out, "%s backend %s: %v\n", bad, base, err)
			} else {
				fmt.Fprintf(out, "%s backend %s: %d %q in %s\n", ok, base, h.StatusCode, h.Message, h.Latency.Round(time.Millisecond))
			}

			token, err := newIdentity(cfg, logging.Nop()).Identity(cmd.Context())
			if err != nil {
				failed = true
				fmt.Fprintf(out, "%s identity: %v\n", bad, err)
			} else {
				fmt.Fprintf(out, "%s identity %s\n", ok, token)
			}

			if failed {
				return fmt.Errorf("doctor found problems")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "health check timeout")
	return cmd
}
