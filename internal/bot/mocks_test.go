package bot

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/dvloznov/household-ledger/internal/domain"
	"github.com/dvloznov/household-ledger/internal/jobs"
)

type sentMessage struct {
	ChannelID string
	Content   string
}

type mockSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (m *mockSender) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChannelID: channelID, Content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, m.err
}

func (m *mockSender) contents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.Content)
	}
	return out
}

type mockProcessor struct {
	ReadyFunc   func() bool
	ProcessFunc func(ctx context.Context, msg domain.SegmentedMessage) (*domain.LedgerRecord, error)
	labels      domain.PayerLabels
}

func (m *mockProcessor) Ready() bool {
	if m.ReadyFunc != nil {
		return m.ReadyFunc()
	}
	return true
}

func (m *mockProcessor) Labels() domain.PayerLabels {
	return m.labels
}

func (m *mockProcessor) Process(ctx context.Context, msg domain.SegmentedMessage) (*domain.LedgerRecord, error) {
	return m.ProcessFunc(ctx, msg)
}

type mockPublisher struct {
	PublishMessageFunc func(ctx context.Context, job *jobs.MessageJob) error
	published          []*jobs.MessageJob
}

func (m *mockPublisher) PublishMessage(ctx context.Context, job *jobs.MessageJob) error {
	if m.PublishMessageFunc != nil {
		if err := m.PublishMessageFunc(ctx, job); err != nil {
			return err
		}
	}
	job.JobID = "job-1"
	m.published = append(m.published, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }
