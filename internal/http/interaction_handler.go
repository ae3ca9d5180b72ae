package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/example/classroom-bot/internal/discord"
)

// maxInteractionBody caps the accepted request size.
const maxInteractionBody = 1 << 20

// finishTimeout bounds deferred work and the REST calls made after the
// response is written.
const finishTimeout = 5 * time.Minute

type interactionDispatcher interface {
	Handle(ctx context.Context, i *discordgo.Interaction) discord.Reply
}

// replyFinisher completes an interaction over REST once the HTTP response
// has been written.
type replyFinisher interface {
	Finish(ctx context.Context, i *discordgo.Interaction, reply discord.Reply) error
}

// FinisherFunc adapts a function to the finisher used by InteractionHandler.
type FinisherFunc func(ctx context.Context, i *discordgo.Interaction, reply discord.Reply) error

// Finish calls f.
func (f FinisherFunc) Finish(ctx context.Context, i *discordgo.Interaction, reply discord.Reply) error {
	return f(ctx, i, reply)
}

// InteractionHandler answers interactions delivered over HTTP.
type InteractionHandler struct {
	dispatcher interactionDispatcher
	finisher   replyFinisher
	responder  responder
	logger     *slog.Logger
	pending    sync.WaitGroup
}

// NewInteractionHandler constructs the handler. finisher may be nil, in
// which case deferred work and follow-up messages are dropped with a warning.
func NewInteractionHandler(dispatcher interactionDispatcher, finisher replyFinisher, logger *slog.Logger) *InteractionHandler {
	logger = defaultLogger(logger)
	return &InteractionHandler{
		dispatcher: dispatcher,
		finisher:   finisher,
		responder:  newResponder(logger),
		logger:     logger,
	}
}

func (h *InteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := handlerLogger(ctx, h.logger, "InteractionHandler", "Serve")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	var interaction discordgo.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		logger.DebugContext(ctx, "failed to decode interaction", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	ctx = ContextWithInteractionID(ctx, interaction.ID)
	logger = handlerLogger(ctx, h.logger, "InteractionHandler", "Serve", "type", int(interaction.Type))
	if interaction.Type == discordgo.InteractionPing {
		logger.DebugContext(ctx, "ping answered")
		h.responder.writeJSON(ctx, w, http.StatusOK, discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})
		return
	}

	reply := h.dispatcher.Handle(ctx, &interaction)
	if reply.Response == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, nil)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, reply.Response)

	if len(reply.Followups) == 0 && reply.Deferred == nil {
		return
	}
	if h.finisher == nil {
		logger.WarnContext(ctx, "deferred reply dropped", "followups", len(reply.Followups))
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
		defer cancel()
		// Discord accepts edits and follow-ups only after the initial response.
		if err := h.finisher.Finish(finishCtx, &interaction, reply); err != nil {
			logger.ErrorContext(finishCtx, "failed to finish interaction", "error", err)
		}
	}()
}

// Wait blocks until every pending interaction has been finished.
func (h *InteractionHandler) Wait() {
	h.pending.Wait()
}
