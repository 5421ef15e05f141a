package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quatton/libra/pkg/lapi"
	"github.com/quatton/libra/pkg/lapi/routes"
	"github.com/spf13/cobra"
)

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Print the OpenAPI document",
	Long: `Prints the OpenAPI document of the libra API. Routes are registered
without services, so no database, valkey or secret is needed.

Examples:
	libracloud openapi --format yaml -o openapi.yaml
	libracloud openapi --downgrade=false | jq '.paths | keys'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := renderOpenAPI(openapiFormat, openapiDowngrade)
		if err != nil {
			return err
		}
		if openapiOutput == "" {
			_, err = cmd.OutOrStdout().Write(append(doc, '\n'))
			return err
		}
		if err := os.WriteFile(openapiOutput, doc, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", openapiOutput, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", openapiOutput)
		return nil
	},
}

var (
	openapiOutput    string
	openapiFormat    string
	openapiDowngrade bool
)

func init() {
	rootCmd.AddCommand(openapiCmd)
	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "", "Write to this file instead of stdout")
	openapiCmd.Flags().StringVar(&openapiFormat, "format", "json", "Document format: json or yaml")
	openapiCmd.Flags().BoolVar(&openapiDowngrade, "downgrade", true, "Emit OpenAPI 3.0 instead of 3.1")
}

func renderOpenAPI(format string, downgrade bool) ([]byte, error) {
	a := lapi.NewApi()
	routes.RegisterAPI(a.Api, nil)
	doc := a.Api.OpenAPI()

	switch {
	case format == "json" && downgrade:
		return doc.Downgrade()
	case format == "json":
		return json.MarshalIndent(doc, "", "  ")
	case format == "yaml" && downgrade:
		return doc.DowngradeYAML()
	case format == "yaml":
		return doc.YAML()
	}
	return nil, fmt.Errorf("unknown format %q (want json or yaml)", format)
}
