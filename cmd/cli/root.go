package main

import (
	"fmt"
	"os"

	"github.com/dvloznov/household-ledger/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	envFile      string
	outputFormat string
	version      = "dev"

	log = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and replay bank notifications against the household ledger",
	Long: `ledger runs the same extraction the chat bot runs, from the terminal.

Paste a bank balance-change notification, optionally followed by a payer
marker (H. or L.) and a note, as an argument or on stdin:

  ledger segment "TK 0123 -50,000VND 16/06/2025 ... H. Tien an trua"
  ledger prompt  < notification.txt
  ledger parse   < reply.json
  ledger extract --format yaml "..."          # dry run
  ledger extract --append "..."               # append the row to the ledger`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case formatText, formatJSON, formatYAML:
		default:
			return fmt.Errorf("unknown output format %q (want %s, %s or %s)", outputFormat, formatText, formatJSON, formatYAML)
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		log = logger.Configure(logger.Options{Level: level, Writer: cmd.ErrOrStderr()})
		return nil
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", formatText, "Output format: text, json or yaml")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
