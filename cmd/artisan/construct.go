package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	artisan "github.com/MasonMcGill/artisan"
	"github.com/MasonMcGill/artisan/middleware"
	"github.com/MasonMcGill/artisan/source"
)

// errInvalid is returned after the issues have already been printed.
var errInvalid = errors.New("specification is invalid")

func newConstructCmd() *cobra.Command {
	var (
		typesFile string
		target    string
		specFile  string
		failFast  bool
	)
	cmd := &cobra.Command{
		Use:   "construct",
		Short: "Validate a specification and print its normalized form",
		Long: `Decode a JSON or YAML specification, resolve its type and validate it.

On success the normalized specification (defaults applied) is printed as JSON.
On failure the issues are printed and the command exits with status 1.

Examples:
  artisan construct --types types.yaml --target Job --spec job.yaml
  artisan construct --types types.yaml --target Job --spec job.json --fail-fast`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope, _, err := loadScope(typesFile)
			if err != nil {
				return err
			}
			t, err := lookupTarget(scope, target)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(specFile)
			if err != nil {
				return fmt.Errorf("read spec: %w", err)
			}
			ctx := artisan.WithFailFast(artisan.WithScope(context.Background(), scope), failFast)

			out := json.NewEncoder(cmd.OutOrStdout())
			out.SetIndent("", "  ")
			raw, err := source.Decode(data, source.FormatFromPath(specFile), source.Options{})
			var s *artisan.Spec
			if err == nil {
				s, err = artisan.Validate(ctx, t, raw)
			}
			if err != nil {
				iss, ok := artisan.AsIssues(err)
				if !ok {
					return err
				}
				_ = out.Encode(middleware.ErrorPayload(iss))
				return errInvalid
			}
			return out.Encode(s)
		},
	}
	cmd.Flags().StringVar(&typesFile, "types", "types.yaml", "type declaration file")
	cmd.Flags().StringVar(&target, "target", "", "type to construct")
	cmd.Flags().StringVar(&specFile, "spec", "", "specification file (.json, .yaml or .yml)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first issue")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}
