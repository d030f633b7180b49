package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/pkg/document"
)

func newCheckCmd() *cobra.Command {
	var normalize bool
	cmd := &cobra.Command{
		Use:   "check <document>...",
		Short: "Validate form documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				schema, err := document.Load(path)
				if err != nil {
					failed++
					var docErr *document.Error
					if errors.As(err, &docErr) {
						for _, issue := range docErr.Issues {
							fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, issue)
						}
						continue
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				if normalize {
					data, err := document.Encode(schema, document.FormatFor(path))
					if err != nil {
						return err
					}
					if _, err := out.Write(data); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%s: ok (%s, version %d, %d fields)\n", path, schema.ID, schema.Version, len(schema.Fields))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents are invalid", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "print the canonical form of each document instead of a summary")
	return cmd
}
