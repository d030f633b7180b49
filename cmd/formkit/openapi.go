package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/pkg/document"
	"github.com/goliatone/go-formkit/pkg/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		submitPath string
		schemaOnly bool
		outPath    string
	)
	cmd := &cobra.Command{
		Use:   "openapi <document>",
		Short: "Print the submission contract of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := document.Load(args[0])
			if err != nil {
				return err
			}

			var value any = openapi.SubmissionSchema(schema)
			if !schemaOnly {
				if submitPath == "" {
					submitPath = "/api/forms/" + schema.ID + "/submissions"
				}
				doc := openapi.Document(schema, submitPath)
				if err := openapi.ValidateDocument(cmd.Context(), doc); err != nil {
					return err
				}
				value = doc
			}
			data, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outPath, append(data, '\n'))
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&submitPath, "path", "", "submission path of the generated operation")
	flags.BoolVar(&schemaOnly, "schema-only", false, "print only the request body schema")
	flags.StringVarP(&outPath, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
