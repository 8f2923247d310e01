package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	artisan "github.com/MasonMcGill/artisan"
	"github.com/MasonMcGill/artisan/jsonschema"
)

func newSchemaCmd() *cobra.Command {
	var (
		typesFile string
		target    string
		list      bool
		dict      bool
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of a target type or of the whole scope",
		Long: `Print the draft-07 JSON Schema describing valid specifications of a type.
Without --target the document accepts a specification of any declared type.

Examples:
  artisan schema --types types.yaml --target Job
  artisan schema --types types.yaml --target Job --list
  artisan schema --types types.yaml --dict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list && dict {
				return fmt.Errorf("--list and --dict are mutually exclusive")
			}
			scope, _, err := loadScope(typesFile)
			if err != nil {
				return err
			}
			ctx := artisan.WithScope(context.Background(), scope)
			var doc *jsonschema.Schema
			if target == "" {
				doc, err = scopeSchema(ctx, list, dict)
			} else {
				doc, err = targetSchema(ctx, scope, target, list, dict)
			}
			if err != nil {
				return err
			}
			b, err := jsonschema.MarshalIndent(doc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&typesFile, "types", "types.yaml", "type declaration file")
	cmd.Flags().StringVar(&target, "target", "", "type to describe (default: every scope type)")
	cmd.Flags().BoolVar(&list, "list", false, "describe a list of specifications")
	cmd.Flags().BoolVar(&dict, "dict", false, "describe a string-keyed map of specifications")
	return cmd
}

func targetSchema(ctx context.Context, scope *artisan.Scope, name string, list, dict bool) (*jsonschema.Schema, error) {
	t, err := scope.Resolve(name)
	if err != nil {
		return nil, err
	}
	switch {
	case list:
		return artisan.ListSchema(ctx, t)
	case dict:
		return artisan.DictSchema(ctx, t)
	}
	return artisan.DocumentSchema(ctx, t)
}

func scopeSchema(ctx context.Context, list, dict bool) (*jsonschema.Schema, error) {
	switch {
	case list:
		return artisan.ListScopeSchema(ctx)
	case dict:
		return artisan.DictScopeSchema(ctx)
	}
	return artisan.ScopeSchema(ctx)
}
