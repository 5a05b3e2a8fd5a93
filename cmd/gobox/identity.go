package main

import (
	"fmt"
	"strings"

	"github.com/faiyaz032/gobox/internal/identity"
	"github.com/faiyaz032/gobox/internal/logging"
	"github.com/spf13/cobra"
)

func newIdentityCmd(opts *options) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Print the device token this machine connects with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			provider := newIdentity(cfg, logging.Nop())
			token, err := provider.Identity(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)

			if verbose && cfg.Identity.Fingerprint == "" {
				parts, err := identity.NewHostFingerprinter(cfg.Identity.AppID).Components(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "components: %s\n", strings.Join(parts, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print the host components the token is derived from")
	return cmd
}
