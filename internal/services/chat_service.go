// Package services – ChatService
//
// ChatService runs one chat turn end to end:
//
//  1. validate the message
//  2. resolve or create the conversation
//  3. store the user message
//  4. extract intent and entities
//  5. retrieve products or orders for the intent
//  6. generate the reply
//  7. store the reply with its metadata
//  8. title the conversation after its first exchange
//
// Steps run strictly in order on a context detached from the caller, so a
// client disconnect does not abort storage or model calls already under way.
// Model failures are absorbed by the extractor and generator; storage
// failures are returned and nothing already written is rolled back.
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-commerce-chat/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ConversationStore is the part of ConversationService a turn needs.
type ConversationStore interface {
	ResolveOrCreate(ctx context.Context, userID, conversationID string) (*domain.Conversation, bool, error)
	AppendMessage(ctx context.Context, conversationID, sender, content string, md *domain.MessageMetadata) (*domain.Message, error)
	CountMessages(ctx context.Context, conversationID string) (int64, error)
	UpdateTitleIfFirstExchange(ctx context.Context, conv *domain.Conversation, userMessage string) (bool, error)
}

// Extractor classifies a message.
type Extractor interface {
	Extract(ctx context.Context, text string) domain.IntentResult
}

// Retriever loads reference data for an intent.
type Retriever interface {
	Retrieve(ctx context.Context, ir domain.IntentResult) (*domain.ContextBundle, error)
}

// Generator writes the reply.
type Generator interface {
	Generate(ctx context.Context, text, intent string, entities domain.Entities, bundle *domain.ContextBundle) string
}

// TurnRequest is one inbound chat message.
type TurnRequest struct {
	Message        string
	ConversationID string
	UserID         string
}

// TurnMetadata describes how a reply was produced.
type TurnMetadata struct {
	Intent       string          `json:"intent"`
	Entities     domain.Entities `json:"entities"`
	ResponseTime int64           `json:"response_time"` // milliseconds
}

// TurnResult is the outcome of a completed turn.
type TurnResult struct {
	Reply          string       `json:"response"`
	ConversationID string       `json:"conversation_id"`
	Metadata       TurnMetadata `json:"metadata"`

	// MessageID is the stored reply; used for idempotency records.
	MessageID string `json:"-"`
}

// ChatService orchestrates chat turns.
type ChatService struct {
	Conversations ConversationStore
	Extractor     Extractor
	Retriever     Retriever
	Generator     Generator

	// MaxMessageRunes rejects longer messages when > 0.
	MaxMessageRunes int
}

// HandleTurn processes req and returns the generated reply. ErrEmptyMessage
// and ErrMessageTooLong are returned before anything is written.
func (s *ChatService) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "HandleTurn",
		trace.WithAttributes(
			attribute.String("user.id", req.UserID),
			attribute.String("conversation.id", req.ConversationID),
		),
	)
	defer span.End()

	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(text) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}

	ctx = context.WithoutCancel(ctx)
	lg := zerolog.Ctx(ctx)
	start := time.Now()

	conv, created, err := s.Conversations.ResolveOrCreate(ctx, req.UserID, req.ConversationID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("conversation.resolved_id", conv.ConversationID),
		attribute.Bool("conversation.created", created),
	)

	if _, err := s.Conversations.AppendMessage(ctx, conv.ConversationID, domain.SenderUser, text, nil); err != nil {
		return nil, err
	}

	ir := s.Extractor.Extract(ctx, text)

	bundle, err := s.Retriever.Retrieve(ctx, ir)
	if err != nil {
		return nil, err
	}

	reply := s.Generator.Generate(ctx, text, ir.Intent, ir.Entities, bundle)
	elapsed := time.Since(start)

	aiMsg, err := s.Conversations.AppendMessage(ctx, conv.ConversationID, domain.SenderAI, reply, &domain.MessageMetadata{
		QueryType:         ir.Intent,
		EntitiesExtracted: ir.Entities.Fields(),
		ResponseTime:      elapsed.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}

	if !conv.Titled {
		n, err := s.Conversations.CountMessages(ctx, conv.ConversationID)
		if err != nil {
			return nil, err
		}
		if n >= 2 {
			if _, err := s.Conversations.UpdateTitleIfFirstExchange(ctx, conv, text); err != nil {
				return nil, err
			}
		}
	}

	chatTurns.WithLabelValues(intentLabel(ir.Intent)).Inc()
	chatTurnDur.Observe(elapsed.Seconds())
	lg.Info().
		Str("conversation_id", conv.ConversationID).
		Bool("conversation_created", created).
		Str("intent", ir.Intent).
		Float64("confidence", ir.Confidence).
		Int64("response_time_ms", elapsed.Milliseconds()).
		Msg("chat turn completed")

	return &TurnResult{
		Reply:          reply,
		ConversationID: conv.ConversationID,
		Metadata: TurnMetadata{
			Intent:       ir.Intent,
			Entities:     ir.Entities,
			ResponseTime: elapsed.Milliseconds(),
		},
		MessageID: aiMsg.ID,
	}, nil
}
