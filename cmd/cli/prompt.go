package main

import (
	"io"

	"github.com/dvloznov/household-ledger/internal/pipeline"
	"github.com/dvloznov/household-ledger/internal/segment"
	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt [text...]",
	Short: "Print the extraction prompt sent to the model for a message",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		prompt := pipeline.BuildPrompt(segment.Segment(text).BankStatement)
		if outputFormat == formatText {
			_, err := io.WriteString(cmd.OutOrStdout(), prompt+"\n")
			return err
		}
		return writeOutput(cmd.OutOrStdout(), "", map[string]string{"prompt": prompt}, nil)
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
}
