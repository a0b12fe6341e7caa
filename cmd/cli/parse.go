package main

import (
	"strconv"
	"time"

	"github.com/dvloznov/household-ledger/internal/pipeline"
	"github.com/spf13/cobra"
)

type normalizedView struct {
	Date      string `json:"date" yaml:"date"`
	Direction string `json:"direction" yaml:"direction"`
	Canonical bool   `json:"direction_canonical" yaml:"direction_canonical"`
	Amount    int64  `json:"amount" yaml:"amount"`
}

var parseCmd = &cobra.Command{
	Use:   "parse [reply...]",
	Short: "Normalize a model reply the way the bot does",
	Long: `Parse a model reply (fenced or bare JSON) and print the normalized date,
direction and amount. Dates the reply does not carry resolve to today.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		n, err := pipeline.ParseAndNormalize(reply, time.Now())
		if err != nil {
			return err
		}

		view := normalizedView{
			Date:      n.Date,
			Direction: string(n.Direction),
			Canonical: n.Direction.IsCanonical(),
			Amount:    n.Amount,
		}
		fields := []field{
			{"Date", view.Date},
			{"Direction", view.Direction},
			{"Amount", strconv.FormatInt(view.Amount, 10)},
		}
		if !view.Canonical {
			fields = append(fields, field{"Warning", warnStyle.Render("direction is not Thu or Chi")})
		}
		return writeOutput(cmd.OutOrStdout(), "Normalized reply", view, fields)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
