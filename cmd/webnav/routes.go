package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/espfs/webnav/internal/app"
	"github.com/espfs/webnav/pkg/routepath"
)

func routesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `List the route table in match order.

Routes come from the configuration file when it defines any, and from
the built-in table otherwise. The first matching route wins.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			reg := app.Registry(cfg.Routes)
			if err := reg.Validate(); err != nil {
				return err
			}
			base, err := routepath.NormalizeBase(cfg.Base)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reg.All())
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATTERN\tNAME\tVIEW\tURL")
			for _, r := range reg.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Path, r.Name, r.View, routepath.JoinBase(base, r.Path))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")
	return cmd
}
