package pipeline

import (
	"context"
	"sync"
)

type mockInference struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *mockInference) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "", nil
}

func replyWith(text string) *mockInference {
	return &mockInference{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return text, nil
		},
	}
}

type mockSink struct {
	AppendRowFunc func(ctx context.Context, row []interface{}) error

	mu   sync.Mutex
	rows [][]interface{}
}

func (m *mockSink) AppendRow(ctx context.Context, row []interface{}) error {
	if m.AppendRowFunc != nil {
		if err := m.AppendRowFunc(ctx, row); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.rows = append(m.rows, row)
	m.mu.Unlock()
	return nil
}

type mockRecorder struct {
	RecordRunFunc func(ctx context.Context, run *ExtractionRun) error

	runs []*ExtractionRun
}

func (m *mockRecorder) RecordRun(ctx context.Context, run *ExtractionRun) error {
	m.runs = append(m.runs, run)
	if m.RecordRunFunc != nil {
		return m.RecordRunFunc(ctx, run)
	}
	return nil
}
