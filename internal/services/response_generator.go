// Package services – ResponseGenerator
//
// ResponseGenerator writes the user-facing reply. It folds the intent, the
// extracted entities and any retrieved products or orders into one prompt
// and asks the model for a natural-language answer. Failures degrade to a
// fixed apology; Generate never returns an error.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Canned replies.
const (
	ReplyOnFailure = "I apologize, but I encountered an error. Please try again later."
	ReplyOnEmpty   = "I apologize, but I encountered an error. Please try again."
)

// DefaultPersona is the style instruction that opens every reply prompt.
const DefaultPersona = "You are a helpful customer service AI for an e-commerce clothing website. " +
	"Be friendly, professional, and concise. Help users with product searches, order inquiries, and general questions."

// contextItemLimit caps how many products or orders are listed in a prompt.
const contextItemLimit = 5

// GeneratorConfig holds the sampling parameters and persona for replies.
type GeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Persona     string
	Locale      language.Tag
}

// DefaultGeneratorConfig favours natural phrasing with a larger budget than
// the extractor.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Model:       llm.DefaultModel,
		Temperature: 0.7,
		MaxTokens:   1000,
		Timeout:     30 * time.Second,
		Persona:     DefaultPersona,
		Locale:      language.AmericanEnglish,
	}
}

// ResponseGenerator produces replies with the model.
type ResponseGenerator struct {
	LLM    llm.Completer
	Config GeneratorConfig
}

// NewResponseGenerator constructs a ResponseGenerator.
func NewResponseGenerator(c llm.Completer, cfg GeneratorConfig) *ResponseGenerator {
	return &ResponseGenerator{LLM: c, Config: cfg}
}

// Generate returns the reply to text. bundle may be nil.
func (g *ResponseGenerator) Generate(ctx context.Context, text, intent string, entities domain.Entities, bundle *domain.ContextBundle) string {
	tr := otel.Tracer("services/ResponseGenerator")
	ctx, span := tr.Start(ctx, "Generate")
	span.SetAttributes(attribute.String("intent", intent))
	defer span.End()

	out, err := g.complete(ctx, g.BuildPrompt(text, intent, entities, bundle))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reply generation failed")
		llmFallbacks.WithLabelValues(opReply).Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Msg("reply generation failed, using fallback")
		return ReplyOnFailure
	}
	if strings.TrimSpace(out) == "" {
		llmFallbacks.WithLabelValues(opReply).Inc()
		return ReplyOnEmpty
	}
	return out
}

func (g *ResponseGenerator) complete(ctx context.Context, prompt string) (string, error) {
	if g.LLM == nil {
		return "", errors.New("no completer configured")
	}
	if g.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Config.Timeout)
		defer cancel()
	}
	out, err := g.LLM.Complete(ctx, llm.Request{
		Model:       g.Config.Model,
		Messages:    []llm.Message{{Role: llm.RoleSystem, Content: prompt}},
		Temperature: g.Config.Temperature,
		MaxTokens:   g.Config.MaxTokens,
	})
	if err != nil {
		llmRequests.WithLabelValues(opReply, "error").Inc()
		return "", err
	}
	llmRequests.WithLabelValues(opReply, "ok").Inc()
	return out, nil
}

// BuildPrompt lays out persona, intent, entities, context and the message:
//
//	<persona>
//
//	User Intent: <intent>
//	Extracted Info: <entities as JSON>
//	<context lines>
//
//	User Message: <text>
func (g *ResponseGenerator) BuildPrompt(text, intent string, entities domain.Entities, bundle *domain.ContextBundle) string {
	persona := g.Config.Persona
	if persona == "" {
		persona = DefaultPersona
	}
	info, err := json.Marshal(entities)
	if err != nil {
		info = []byte("{}")
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nUser Intent: ")
	b.WriteString(intent)
	b.WriteString("\nExtracted Info: ")
	b.Write(info)
	b.WriteString("\n")
	g.writeContext(&b, bundle)
	b.WriteString("\n\nUser Message: ")
	b.WriteString(text)
	return b.String()
}

func (g *ResponseGenerator) writeContext(b *strings.Builder, bundle *domain.ContextBundle) {
	if bundle == nil {
		return
	}
	tag := g.Config.Locale
	if tag == language.Und {
		tag = language.AmericanEnglish
	}
	p := message.NewPrinter(tag)

	if len(bundle.Products) > 0 {
		b.WriteString("\nHere are relevant products I found:\n")
		for i, pr := range bundle.Products {
			if i == contextItemLimit {
				break
			}
			fmt.Fprintf(b, "%d. %s by %s - $%s (%s)\n", i+1, pr.Name, pr.Brand, p.Sprintf("%.2f", pr.RetailPrice), pr.Category)
		}
	}
	if len(bundle.Orders) > 0 {
		b.WriteString("\nHere are your recent orders:\n")
		for i, o := range bundle.Orders {
			if i == contextItemLimit {
				break
			}
			// ids stay unformatted; the printer would group their digits
			fmt.Fprintf(b, "%d. Order #%d - Status: %s, Items: %d, Date: %s\n",
				i+1, o.OrderID, o.Status, o.NumOfItem, o.CreatedAt.UTC().Format("1/2/2006"))
		}
	}
}
