// Package bot is the Discord front-end: it filters chat messages, acknowledges them and hands
// them to the job queue, then reports each outcome back to the channel.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/dvloznov/household-ledger/internal/domain"
	"github.com/dvloznov/household-ledger/internal/jobs"
	"github.com/dvloznov/household-ledger/internal/logger"
	"github.com/dvloznov/household-ledger/internal/segment"
	"github.com/rs/zerolog"
)

// SourceDiscord tags jobs created from Discord messages.
const SourceDiscord = "discord"

// Sender posts a message to a channel. *discordgo.Session satisfies it.
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Processor runs one segmented message through extraction and append.
type Processor interface {
	Ready() bool
	Labels() domain.PayerLabels
	Process(ctx context.Context, msg domain.SegmentedMessage) (*domain.LedgerRecord, error)
}

// Incoming is the part of a chat message the bot looks at.
type Incoming struct {
	ChannelID string
	MessageID string
	AuthorID  string
	Content   string
}

// Bot routes chat messages to commands or to the ledger pipeline.
type Bot struct {
	sender    Sender
	processor Processor
	publisher jobs.Publisher
	segmenter *segment.Segmenter
	prefix    string
	log       zerolog.Logger

	mu     sync.RWMutex
	selfID string
}

// Options are the collaborators of a Bot.
type Options struct {
	Sender    Sender
	Processor Processor
	Publisher jobs.Publisher
	Segmenter *segment.Segmenter // defaults to the H./L. marker table
	Prefix    string             // command prefix, defaults to "!"
	Logger    zerolog.Logger
}

// New creates a Bot.
func New(opts Options) *Bot {
	if opts.Segmenter == nil {
		opts.Segmenter = segment.New(segment.DefaultMarkers)
	}
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}
	return &Bot{
		sender:    opts.Sender,
		processor: opts.Processor,
		publisher: opts.Publisher,
		segmenter: opts.Segmenter,
		prefix:    opts.Prefix,
		log:       opts.Logger,
	}
}

// SetSelfID records the bot's own user id so its messages are ignored.
func (b *Bot) SetSelfID(id string) {
	b.mu.Lock()
	b.selfID = id
	b.mu.Unlock()
}

func (b *Bot) isSelf(authorID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selfID != "" && authorID == b.selfID
}

// OnReady is the discordgo Ready handler.
func (b *Bot) OnReady(s *discordgo.Session, r *discordgo.Ready) {
	b.SetSelfID(r.User.ID)
	b.log.Info().
		Str("bot_name", r.User.Username).
		Str("bot_id", r.User.ID).
		Int("guilds", len(r.Guilds)).
		Msg("Discord bot is ready")
}

// OnMessageCreate is the discordgo MessageCreate handler.
func (b *Bot) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	b.HandleMessage(context.Background(), Incoming{
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
	})
}

// HandleMessage decides what to do with one chat message. It never blocks on inference.
func (b *Bot) HandleMessage(ctx context.Context, in Incoming) {
	if b.isSelf(in.AuthorID) {
		return
	}

	log := logger.ForMessage(b.log, in.ChannelID, in.MessageID, in.AuthorID)
	ctx = logger.WithContext(ctx, log)

	content := strings.TrimSpace(in.Content)
	if strings.HasPrefix(content, b.prefix) {
		b.handleCommand(ctx, in.ChannelID, strings.TrimPrefix(content, b.prefix))
		return
	}

	seg := b.segmenter.Segment(content)
	if !segment.LooksLikeStatement(seg.BankStatement) {
		log.Debug().Msg("Ignoring short message")
		return
	}

	if !b.processor.Ready() {
		log.Warn().Msg("Message received while upstream clients are unavailable")
		b.reply(ctx, in.ChannelID, MsgNotReady)
		return
	}

	b.reply(ctx, in.ChannelID, MsgAck)

	job := &jobs.MessageJob{
		Source:    SourceDiscord,
		ChannelID: in.ChannelID,
		MessageID: in.MessageID,
		AuthorID:  in.AuthorID,
		Text:      content,
	}
	if err := b.publisher.PublishMessage(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to enqueue message")
		b.reply(ctx, in.ChannelID, MsgUnexpected)
		return
	}

	log.Info().
		Str("job_id", job.JobID).
		Str("payer", seg.Payer.String()).
		Msg("Message queued")
}

func (b *Bot) handleCommand(ctx context.Context, channelID, command string) {
	var name string
	if fields := strings.Fields(command); len(fields) > 0 {
		name = strings.ToLower(fields[0])
	}

	switch name {
	case "help":
		b.reply(ctx, channelID, HelpMessage(b.prefix))
	case "status":
		if b.processor.Ready() {
			b.reply(ctx, channelID, "✅ Bot đang hoạt động.")
		} else {
			b.reply(ctx, channelID, MsgNotReady)
		}
	default:
		log := logger.FromContext(ctx)
		log.Debug().Str("command", name).Msg("Unknown command")
	}
}

// HandleJob is the queue handler: it processes the job's message and reports the outcome
// to the originating channel. The returned error marks the job failed.
func (b *Bot) HandleJob(ctx context.Context, job jobs.Job) error {
	mj, ok := job.(*jobs.MessageJob)
	if !ok {
		return fmt.Errorf("HandleJob: unexpected job type %s", job.GetType())
	}

	log := logger.ForMessage(logger.FromContext(ctx), mj.ChannelID, mj.MessageID, mj.AuthorID)
	ctx = logger.WithContext(ctx, log)

	rec, err := b.processor.Process(ctx, b.segmenter.Segment(mj.Text))
	if err != nil {
		b.logFailure(log, err)
		b.reply(ctx, mj.ChannelID, ErrorMessage(err))
		return err
	}

	b.reply(ctx, mj.ChannelID, SuccessMessage(rec, b.processor.Labels().Label(rec.Payer)))
	return nil
}

func (b *Bot) logFailure(log zerolog.Logger, err error) {
	if isExpected(err) {
		log.Warn().Err(err).Msg("Message could not be recorded")
		return
	}
	log.Error().Err(err).Msg("Unexpected error while processing message")
}

func (b *Bot) reply(ctx context.Context, channelID, content string) {
	if _, err := b.sender.ChannelMessageSend(channelID, content); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to send reply")
	}
}

// isExpected reports whether err has a dedicated user message.
func isExpected(err error) bool {
	return ErrorMessage(err) != MsgUnexpected
}
