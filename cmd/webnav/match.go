package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/espfs/webnav/internal/app"
	"github.com/espfs/webnav/pkg/routepath"
	"github.com/espfs/webnav/pkg/router"
	"github.com/espfs/webnav/pkg/server"
)

func matchCmd() *cobra.Command {
	var (
		asJSON  bool
		browser bool
	)

	cmd := &cobra.Command{
		Use:   "match <path>",
		Short: "Resolve a path against the route table",
		Long: `Resolve a path the way the router would.

The path is relative to the base unless --browser is given, in which
case the base is stripped first, as for a URL typed in the address bar.

Examples:
  webnav match /config
  webnav match --browser /app/config?tab=net`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg := app.Registry(cfg.Routes)
			m, err := router.NewMatcher(reg)
			if err != nil {
				return err
			}

			path := args[0]
			if browser {
				base, err := routepath.NormalizeBase(cfg.Base)
				if err != nil {
					return err
				}
				path = routepath.StripBase(base, path)
			}
			resolved := m.Match(path)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(server.RouteFrame(resolved))
			}

			if !resolved.Found() {
				fmt.Fprintf(out, "no route matches %s\n", resolved.FullPath)
				return nil
			}
			success(out, "%s → %s (view %s)", resolved.FullPath, resolved.Name(), resolved.View())
			keys := make([]string, 0, len(resolved.Params))
			for k := range resolved.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %s = %s\n", k, resolved.Params[k])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the resolved route as a bridge route frame")
	cmd.Flags().BoolVar(&browser, "browser", false, "Treat the path as browser-visible and strip the base")
	return cmd
}
