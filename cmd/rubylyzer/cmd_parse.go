package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/rubylyzer/format"
	"github.com/dhamidi/rubylyzer/ruby/parser"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var context string
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a Ruby file and dump the syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			data, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("read ruby file: %w", err)
			}

			opts := []parser.Option{parser.WithFile(filename)}
			if context != "" {
				opts = append(opts, parser.WithContext(context))
			}
			if maxDepth > 0 {
				opts = append(opts, parser.WithMaxDepth(maxDepth))
			}

			prog, parseErr := parser.ParseProgram(data, opts...)

			var encoder format.Encoder
			switch outputFormat {
			case "json":
				encoder = format.NewASTJSONEncoder(os.Stdout)
			case "tree":
				encoder = format.NewTreeEncoder(os.Stdout)
			case "outline":
				encoder = format.NewOutlineEncoder(os.Stdout)
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			if err := encoder.Encode(prog.Root); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			if outputFormat == "json" {
				fmt.Println()
			}

			for _, d := range prog.Diagnostics {
				fmt.Fprintf(os.Stderr, "%s:%s\n", filename, d.Error())
			}
			if parseErr != nil {
				return fmt.Errorf("%d syntax error(s)", len(prog.Diagnostics))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, tree, outline)")
	cmd.Flags().StringVar(&context, "context", "", "evaluation context recorded in the output")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "override the nesting depth limit")

	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Parse Ruby files and report syntax errors only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, filename := range args {
				data, err := os.ReadFile(filename)
				if err != nil {
					return fmt.Errorf("read ruby file: %w", err)
				}
				prog, parseErr := parser.ParseProgram(data, parser.WithFile(filename))
				for _, d := range prog.Diagnostics {
					fmt.Fprintf(os.Stderr, "%s:%s\n", filename, d.Error())
				}
				if parseErr != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d file(s) with syntax errors", failed)
			}
			return nil
		},
	}
}
