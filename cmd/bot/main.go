package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dvloznov/household-ledger/internal/api"
	"github.com/dvloznov/household-ledger/internal/app"
	"github.com/dvloznov/household-ledger/internal/bot"
	"github.com/dvloznov/household-ledger/internal/config"
	"github.com/dvloznov/household-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/household-ledger/internal/logger"
	"github.com/dvloznov/household-ledger/internal/pipeline"
	"github.com/dvloznov/household-ledger/internal/segment"
)

// jobHistory is how many finished jobs the status API keeps.
const jobHistory = 1000

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file loaded before reading the environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.Configure(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Fatal().Strs("missing", cfgErr.Missing).Err(err).Msg("Invalid configuration")
		}
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	upstream := app.Connect(ctx, cfg, app.AllComponents, log)
	defer func() {
		if err := upstream.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close upstream clients")
		}
	}()

	processor := pipeline.NewProcessor(upstream.Deps(app.Labels(cfg)))
	if !processor.Ready() {
		log.Warn().Msg("Upstream clients unavailable; eligible messages will get the not-ready reply")
	}

	segmenter := segment.New(segment.DefaultMarkers)

	jobStore := inmemory.NewStore(jobHistory)
	jobQueue := inmemory.NewQueue(inmemory.Options{
		BufferSize: cfg.QueueSize,
		Workers:    cfg.WorkerCount,
		JobTimeout: cfg.MessageTimeout,
	}, jobStore)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := bot.New(bot.Options{
		Sender:    session,
		Processor: processor,
		Publisher: jobQueue,
		Segmenter: segmenter,
		Prefix:    cfg.CommandPrefix,
		Logger:    log,
	})
	session.AddHandler(b.OnReady)
	session.AddHandler(b.OnMessageCreate)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.WorkerCount).Msg("Starting message workers")
	if err := jobQueue.Start(workerCtx, b.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start message workers")
	}

	if err := session.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Discord")
	}

	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.Deps{
			Processor: processor,
			Segmenter: segmenter,
			Jobs:      jobStore,
			APIToken:  cfg.APIToken,
			Logger:    log,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.MessageTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	if err := session.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Discord session")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// In-flight messages finish before the workers are cancelled.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Bot exited")
}
