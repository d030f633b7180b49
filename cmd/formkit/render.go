package main

import (
	"github.com/spf13/cobra"

	formkit "github.com/goliatone/go-formkit"
	"github.com/goliatone/go-formkit/pkg/document"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/renderers/html"
	"github.com/goliatone/go-formkit/pkg/validation"
)

func newRenderCmd() *cobra.Command {
	var (
		renderer    string
		answersPath string
		action      string
		outPath     string
		templates   string
		validate    bool
	)
	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render a form as HTML or as its JSON view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := document.Load(args[0])
			if err != nil {
				return err
			}
			answers, err := readAnswers(answersPath)
			if err != nil {
				return err
			}
			registry, err := formkit.NewRenderers(html.WithTemplatesDir(templates))
			if err != nil {
				return err
			}

			opts := []render.Option{render.WithAction(action)}
			if validate {
				opts = append(opts, render.WithReport(validation.Validate(schema, answers)))
			}
			data, _, err := formkit.Render(cmd.Context(), registry, renderer, schema, answers, opts...)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outPath, data)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&renderer, "renderer", "html", "renderer name: html or json")
	flags.StringVar(&answersPath, "answers", "", "JSON file with answers to prefill")
	flags.StringVar(&action, "action", "", "form action URL")
	flags.StringVar(&templates, "templates", "", "directory with form.tpl and field.tpl overriding the built-in templates")
	flags.BoolVar(&validate, "validate", false, "attach validation errors for the given answers")
	flags.StringVarP(&outPath, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
