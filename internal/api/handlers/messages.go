package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dvloznov/household-ledger/internal/api/middleware"
	"github.com/dvloznov/household-ledger/internal/domain"
	"github.com/dvloznov/household-ledger/internal/logger"
	"github.com/dvloznov/household-ledger/internal/pipeline"
	"github.com/dvloznov/household-ledger/internal/segment"
)

// maxMessageBytes caps the request body; chat messages are far smaller.
const maxMessageBytes = 64 << 10

// Processor runs one segmented message through extraction and append.
type Processor interface {
	Ready() bool
	Labels() domain.PayerLabels
	Process(ctx context.Context, msg domain.SegmentedMessage) (*domain.LedgerRecord, error)
}

// MessagesHandler feeds chat-style messages to the pipeline synchronously.
type MessagesHandler struct {
	processor Processor
	segmenter *segment.Segmenter
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(processor Processor, segmenter *segment.Segmenter) *MessagesHandler {
	if segmenter == nil {
		segmenter = segment.New(segment.DefaultMarkers)
	}
	return &MessagesHandler{processor: processor, segmenter: segmenter}
}

type recordResponse struct {
	Date        string `json:"date"`
	Direction   string `json:"direction"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Payer       string `json:"payer"`
	PayerLabel  string `json:"payer_label"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

// CreateMessage handles POST /api/messages
func (h *MessagesHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	seg := h.segmenter.Segment(strings.TrimSpace(req.Text))
	if !segment.LooksLikeStatement(seg.BankStatement) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rec, err := h.processor.Process(ctx, seg)
	if err != nil {
		status, body := classify(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Message processing failed")
		} else {
			log.Warn().Err(err).Msg("Message rejected")
		}
		middleware.WriteJSON(w, status, body)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, recordResponse{
		Date:        rec.Date,
		Direction:   string(rec.Direction),
		Amount:      rec.Amount,
		Description: rec.Description,
		Payer:       rec.Payer.String(),
		PayerLabel:  h.processor.Labels().Label(rec.Payer),
	})
}

// classify maps a processing error to a status code and a body that never carries
// the text of unexpected errors.
func classify(err error) (int, errorResponse) {
	if errors.Is(err, pipeline.ErrUpstreamUnavailable) {
		return http.StatusServiceUnavailable, errorResponse{Error: "Upstream clients unavailable"}
	}

	var ee *pipeline.ExtractionError
	if errors.As(err, &ee) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error: "Could not extract a transaction from the message",
			Kind:  string(ee.Kind),
			Field: ee.Field,
		}
	}

	var se *pipeline.SinkError
	if errors.As(err, &se) {
		return http.StatusBadGateway, errorResponse{Error: se.Error()}
	}

	return http.StatusInternalServerError, errorResponse{Error: "Internal server error"}
}
