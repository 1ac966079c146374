package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"portalgate/internal/portal"
)

// namespaceCmd prints which session namespace a route selects. It is handy
// when checking why a cookie is or is not picked up on a path.
func namespaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "namespace <path>",
		Short: "Show the session namespace a route path selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns := portal.Select(args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "namespace:     %s\n", ns.ID)
			fmt.Fprintf(out, "cookie:        %s\n", portal.CookieName(ns.ID))
			fmt.Fprintf(out, "medium:        %s\n", ns.Medium)
			fmt.Fprintf(out, "auto refresh:  %t\n", ns.AutoRefresh)
			fmt.Fprintf(out, "url hand-off:  %t\n", ns.URLSessionDetection)
			fmt.Fprintf(out, "login:         %s\n", portal.LoginPathFor(ns.ID))
			return nil
		},
	}
}
