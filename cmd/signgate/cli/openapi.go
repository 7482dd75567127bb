package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signgate/signgate/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI specification",
		Long:  "Generate the OpenAPI 3.1 specification for the signgate REST API.",
		Example: `  signgate openapi                 # print to stdout
  signgate openapi -o openapi.json # write to file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write spec to file instead of stdout")

	return cmd
}

func runOpenAPI(outputFile string) error {
	doc := openapi.Generate("/")

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}

	if outputFile == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return fmt.Errorf("write spec: %w", err)
	}
	fmt.Printf("Wrote %s\n", outputFile)
	return nil
}
