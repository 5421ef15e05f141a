package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func addDocumentFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Read the document from a JSON or YAML file ('-' for stdin)")
	cmd.Flags().StringP("data", "d", "", "Inline JSON or YAML document")
}

// readDocument decodes --data or --file into v. Fields absent from the
// document keep their current value in v, so an update can start from the
// stored record.
func readDocument(cmd *cobra.Command, v any) error {
	data, _ := cmd.Flags().GetString("data")
	file, _ := cmd.Flags().GetString("file")

	var raw []byte
	switch {
	case data != "" && file != "":
		return errors.New("use either --data or --file, not both")
	case data != "":
		raw = []byte(data)
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		raw = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		raw = b
	default:
		return errors.New("a document is required: pass --data or --file")
	}

	// JSON is valid YAML, so one decoder serves both.
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}
	return nil
}
