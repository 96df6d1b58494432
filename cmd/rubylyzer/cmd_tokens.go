package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/rubylyzer/ruby/parser"
	"github.com/spf13/cobra"
)

func newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Dump the token stream of a Ruby file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			data, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("read ruby file: %w", err)
			}

			lex := parser.NewLexer(data, filename)
			for {
				tok := lex.NextToken()
				fmt.Printf("%s\t%s\t%q\n", tok.Span.Start, tok.Kind, tok.Literal)
				if tok.Kind == parser.TokenEOF {
					return nil
				}
			}
		},
	}
	return cmd
}
