package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	artisan "github.com/MasonMcGill/artisan"
	"github.com/MasonMcGill/artisan/internal/typedef"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "artisan",
		Short: "Compile configuration schemas and construct objects from specifications",
		Long: `artisan reads YAML type declaration files and works with the types they declare.

Commands:
  artisan scope --types types.yaml                  # list bound types
  artisan schema --types types.yaml --target Job    # print a JSON Schema
  artisan construct --types types.yaml --target Job --spec job.json
  artisan serve --config artisan.yaml               # HTTP server with hot reload`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSchemaCmd(), newConstructCmd(), newScopeCmd(), newServeCmd())
	return root
}

// loadScope reads a declaration file and returns a scope binding its types.
func loadScope(path string) (*artisan.Scope, *typedef.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read types: %w", err)
	}
	res, err := typedef.Load(data, typedef.Options{})
	if err != nil {
		return nil, nil, fmt.Errorf("load types %s: %w", path, err)
	}
	return artisan.NewScope(res.Layer), res, nil
}

// lookupTarget resolves a target name in s.
func lookupTarget(s *artisan.Scope, name string) (*artisan.Type, error) {
	if name == "" {
		return nil, fmt.Errorf("--target is required (one of %v)", s.Keys())
	}
	return s.Resolve(name)
}
