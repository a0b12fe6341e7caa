package main

import (
	"strconv"

	"github.com/dvloznov/household-ledger/internal/segment"
	"github.com/spf13/cobra"
)

type segmentView struct {
	BankStatement string `json:"bank_statement" yaml:"bank_statement"`
	Description   string `json:"description" yaml:"description"`
	Payer         string `json:"payer" yaml:"payer"`
	IsStatement   bool   `json:"is_statement" yaml:"is_statement"`
}

var segmentCmd = &cobra.Command{
	Use:   "segment [text...]",
	Short: "Split a message into bank statement, note and payer",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		seg := segment.Segment(text)
		view := segmentView{
			BankStatement: seg.BankStatement,
			Description:   seg.UserDescription,
			Payer:         seg.Payer.String(),
			IsStatement:   segment.LooksLikeStatement(seg.BankStatement),
		}

		return writeOutput(cmd.OutOrStdout(), "Segmented message", view, []field{
			{"Statement", view.BankStatement},
			{"Description", view.Description},
			{"Payer", view.Payer},
			{"Notification", strconv.FormatBool(view.IsStatement)},
		})
	},
}

func init() {
	rootCmd.AddCommand(segmentCmd)
}
