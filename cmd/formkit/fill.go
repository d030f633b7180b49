package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/pkg/document"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/renderers/tui"
)

func newFillCmd() *cobra.Command {
	var (
		format      string
		answersPath string
		outPath     string
		maxRounds   int
	)
	cmd := &cobra.Command{
		Use:   "fill <document>",
		Short: "Fill a form interactively in the terminal",
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

			filler := tui.New(
				tui.WithPromptDriver(tui.NewSurveyDriver(cmd.ErrOrStderr())),
				tui.WithOutputFormat(tui.OutputFormat(format)),
				tui.WithMaxRounds(maxRounds),
				tui.WithTheme(tui.Theme{InfoPrefix: "== ", ErrorPrefix: "! "}),
			)
			sub, err := filler.Fill(cmd.Context(), render.NewInstance(schema, answers))
			if err != nil {
				return err
			}
			data, err := filler.Encode(sub)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outPath, data)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&format, "output-format", string(tui.OutputFormatJSON), "submission encoding: json, form or pretty")
	flags.StringVar(&answersPath, "answers", "", "JSON file with answers to start from")
	flags.StringVarP(&outPath, "output", "o", "", "write the submission to a file instead of stdout")
	flags.IntVar(&maxRounds, "max-rounds", 3, "how many times failing answers are asked again")
	return cmd
}
