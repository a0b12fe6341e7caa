// Package app builds the long-lived upstream clients from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/household-ledger/internal/config"
	"github.com/dvloznov/household-ledger/internal/domain"
	"github.com/dvloznov/household-ledger/internal/gcs"
	"github.com/dvloznov/household-ledger/internal/gemini"
	infraBQ "github.com/dvloznov/household-ledger/internal/infra/bigquery"
	"github.com/dvloznov/household-ledger/internal/notion"
	"github.com/dvloznov/household-ledger/internal/pipeline"
	"github.com/dvloznov/household-ledger/internal/sheets"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Upstream holds the clients a Processor is built from.
// A nil Inference or Sink means that client failed to initialize.
type Upstream struct {
	Inference   pipeline.InferenceClient
	Sink        pipeline.LedgerSink
	Recorder    pipeline.RunRecorder
	Credentials []byte

	closers []func() error
}

// Components selects which clients Connect builds.
type Components struct {
	Inference bool
	Sink      bool
	Recorder  bool
}

// AllComponents is what the bot runs with.
var AllComponents = Components{Inference: true, Sink: true, Recorder: true}

// Connect builds the selected clients. Failures are logged and leave the
// corresponding field nil; the caller decides whether that is fatal.
func Connect(ctx context.Context, cfg *config.Config, want Components, log zerolog.Logger) *Upstream {
	u := &Upstream{}

	if want.Inference {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			u.Inference = client
			log.Info().Str("model", cfg.GeminiModel).Msg("Gemini client ready")
		}
	}

	if (want.Sink || want.Recorder) && cfg.NeedsServiceAccount() {
		creds, err := gcs.LoadCredentials(ctx, cfg.GoogleServiceAccount, gcs.NewStorageService())
		if err != nil {
			log.Error().Err(err).Msg("Failed to load Google service account")
		} else {
			u.Credentials = creds
			log.Debug().Str("client_email", gcs.ClientEmail(creds)).Msg("Loaded service account")
		}
	}

	if want.Sink {
		sink, err := u.openSink(ctx, cfg)
		if err != nil {
			log.Error().Err(err).Str("sink", cfg.LedgerSink).Msg("Failed to open ledger sink")
		} else {
			u.Sink = sink
			log.Info().Str("sink", cfg.LedgerSink).Msg("Ledger sink ready")
		}
	}

	if want.Recorder && cfg.AuditEnabled() {
		rec, err := u.openRecorder(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Extraction audit disabled")
		} else {
			u.Recorder = rec
			log.Info().
				Str("dataset", cfg.AuditDataset).
				Str("table", cfg.AuditTable).
				Msg("Extraction audit enabled")
		}
	}

	return u
}

func (u *Upstream) openSink(ctx context.Context, cfg *config.Config) (pipeline.LedgerSink, error) {
	switch cfg.LedgerSink {
	case config.SinkNotion:
		sink, err := notion.NewSink(ctx, notion.NewClient(cfg.NotionToken), cfg.NotionDatabaseID)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case config.SinkSheets:
		if u.Credentials == nil {
			return nil, fmt.Errorf("openSink: no service account credentials")
		}
		sink, err := sheets.Open(ctx, u.Credentials, sheets.Target{
			SpreadsheetID:   cfg.SheetID,
			SpreadsheetName: cfg.SheetName,
			Worksheet:       cfg.WorksheetName,
		})
		if err != nil {
			return nil, err
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("openSink: unknown ledger sink %q", cfg.LedgerSink)
	}
}

func (u *Upstream) openRecorder(ctx context.Context, cfg *config.Config) (pipeline.RunRecorder, error) {
	var opts []option.ClientOption
	if u.Credentials != nil {
		opts = append(opts, option.WithCredentialsJSON(u.Credentials))
	}

	rec, err := infraBQ.NewRunRecorder(ctx, cfg.AuditProjectID, cfg.AuditDataset, cfg.AuditTable, cfg.GeminiModel, opts...)
	if err != nil {
		return nil, err
	}
	if err := rec.EnsureTable(ctx); err != nil {
		rec.Close()
		return nil, err
	}
	u.closers = append(u.closers, rec.Close)
	return rec, nil
}

// Close releases the clients that hold connections.
func (u *Upstream) Close() error {
	var firstErr error
	for _, c := range u.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Deps returns processor dependencies for the connected clients.
func (u *Upstream) Deps(labels domain.PayerLabels) pipeline.Deps {
	return pipeline.Deps{
		Inference: u.Inference,
		Sink:      u.Sink,
		Recorder:  u.Recorder,
		Labels:    labels,
	}
}

// Labels returns the payer labels from configuration. Empty entries fall back to the tag name.
func Labels(cfg *config.Config) domain.PayerLabels {
	return domain.PayerLabels{
		domain.PayerPartyA:  cfg.PayerLabelA,
		domain.PayerPartyB:  cfg.PayerLabelB,
		domain.PayerUnknown: cfg.PayerLabelUnknown,
	}
}
