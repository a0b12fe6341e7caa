package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dvloznov/household-ledger/internal/app"
	"github.com/dvloznov/household-ledger/internal/bot"
	"github.com/dvloznov/household-ledger/internal/config"
	"github.com/dvloznov/household-ledger/internal/logger"
	"github.com/dvloznov/household-ledger/internal/pipeline"
	"github.com/dvloznov/household-ledger/internal/segment"
	"github.com/spf13/cobra"
)

var (
	appendRows     bool
	extractTimeout time.Duration

	// connect is replaced in tests.
	connect = app.Connect
)

type recordView struct {
	Date        string `json:"date" yaml:"date"`
	Direction   string `json:"direction" yaml:"direction"`
	Amount      int64  `json:"amount" yaml:"amount"`
	Description string `json:"description" yaml:"description"`
	Payer       string `json:"payer" yaml:"payer"`
	PayerLabel  string `json:"payer_label" yaml:"payer_label"`
	Appended    bool   `json:"appended" yaml:"appended"`
}

// captureSink keeps the row instead of appending it, for dry runs.
type captureSink struct {
	mu  sync.Mutex
	row []interface{}
}

func (s *captureSink) AppendRow(ctx context.Context, row []interface{}) error {
	s.mu.Lock()
	s.row = row
	s.mu.Unlock()
	return nil
}

var extractCmd = &cobra.Command{
	Use:   "extract [text...]",
	Short: "Run the full extraction for a message",
	Long: `Segment the message, call the model and normalize its reply into a ledger row.
Without --append the row is only printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		seg := segment.Segment(text)
		if !segment.LooksLikeStatement(seg.BankStatement) {
			return fmt.Errorf("message does not look like a bank notification")
		}

		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if err := cfg.ValidateExtraction(appendRows); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
		defer cancel()
		ctx = logger.WithContext(ctx, log)

		upstream := connect(ctx, cfg, app.Components{Inference: true, Sink: appendRows}, log)
		defer upstream.Close()

		deps := upstream.Deps(app.Labels(cfg))
		if !appendRows {
			deps.Sink = &captureSink{}
		}

		processor := pipeline.NewProcessor(deps)
		if !processor.Ready() {
			return fmt.Errorf("extract: %w", pipeline.ErrUpstreamUnavailable)
		}

		rec, err := processor.Process(ctx, seg)
		if err != nil {
			log.Debug().Err(err).Msg("Extraction failed")
			return fmt.Errorf("%s: %w", bot.ErrorMessage(err), err)
		}

		view := recordView{
			Date:        rec.Date,
			Direction:   string(rec.Direction),
			Amount:      rec.Amount,
			Description: rec.Description,
			Payer:       rec.Payer.String(),
			PayerLabel:  processor.Labels().Label(rec.Payer),
			Appended:    appendRows,
		}

		title := "Dry run (not appended)"
		if appendRows {
			title = "Appended to ledger"
		}
		return writeOutput(cmd.OutOrStdout(), title, view, []field{
			{"Date", view.Date},
			{"Direction", view.Direction},
			{"Amount", bot.FormatAmount(view.Amount) + " VND"},
			{"Description", view.Description},
			{"Payer", view.PayerLabel},
			{"Appended", strconv.FormatBool(view.Appended)},
		})
	},
}

func init() {
	extractCmd.Flags().BoolVar(&appendRows, "append", false, "Append the row to the configured ledger")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 2*time.Minute, "Time limit for the model call and the append")
	rootCmd.AddCommand(extractCmd)
}
