package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newScopeCmd() *cobra.Command {
	var typesFile string
	cmd := &cobra.Command{
		Use:   "scope",
		Short: "List the types a declaration file binds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope, _, err := loadScope(typesFile)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tKIND\tSUBTYPES")
			for _, k := range scope.Keys() {
				t, _ := scope.Resolve(k)
				kind := "concrete"
				if scope.IsAbstract(t) {
					kind = "abstract"
				}
				subs := strings.Join(scope.Subtypes(t), ",")
				if subs == "" {
					subs = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k, kind, subs)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&typesFile, "types", "types.yaml", "type declaration file")
	return cmd
}
