// Package services – IntentExtractor
//
// IntentExtractor asks the model to classify a user message and pull out
// structured entities. The model is instructed to answer with a single JSON
// object; the parser tolerates code fences and chatter around it. Any
// transport or parse failure degrades to a low-confidence general_help
// result so the turn can continue.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-commerce-chat/internal/domain"
	"github.com/tbourn/go-commerce-chat/internal/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// FallbackConfidence is reported when the model output could not be used.
const FallbackConfidence = 0.1

// intentInstruction is the fixed system prompt for classification.
const intentInstruction = `You are an AI assistant for an e-commerce clothing website. Analyze the user's message and extract:
1. Intent (one of: %s)
2. Entities (product category, name, brand, department, price range, order number, user id)
3. Information still required to help the user

Respond with a single JSON object and nothing else:
{
  "intent": "intent_type",
  "entities": {
    "category": "category_if_mentioned",
    "name": "product_name_if_mentioned",
    "brand": "brand_if_mentioned",
    "department": "department_if_mentioned",
    "price_range": {"min": number, "max": number},
    "order_id": "order_id_if_mentioned",
    "user_id": "user_id_if_mentioned"
  },
  "missing_info": ["list_of_missing_required_info"],
  "confidence": 0.9
}
Leave out any entity that is not mentioned.`

// ExtractorConfig holds the sampling parameters for intent classification.
type ExtractorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultExtractorConfig favours deterministic, short output.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Model:       llm.DefaultModel,
		Temperature: 0.1,
		MaxTokens:   500,
		Timeout:     15 * time.Second,
	}
}

// IntentExtractor classifies user messages with the model.
type IntentExtractor struct {
	LLM    llm.Completer
	Config ExtractorConfig
}

// NewIntentExtractor constructs an IntentExtractor.
func NewIntentExtractor(c llm.Completer, cfg ExtractorConfig) *IntentExtractor {
	return &IntentExtractor{LLM: c, Config: cfg}
}

// FallbackIntent is the result used whenever extraction fails.
func FallbackIntent() domain.IntentResult {
	return domain.IntentResult{
		Intent:      domain.IntentGeneralHelp,
		Entities:    domain.Entities{},
		MissingInfo: []string{},
		Confidence:  FallbackConfidence,
	}
}

// Extract classifies text. It never fails; on error it returns
// FallbackIntent and logs the cause.
func (e *IntentExtractor) Extract(ctx context.Context, text string) domain.IntentResult {
	tr := otel.Tracer("services/IntentExtractor")
	ctx, span := tr.Start(ctx, "Extract")
	defer span.End()

	res, err := e.extract(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "intent extraction failed")
		llmFallbacks.WithLabelValues(opIntent).Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Msg("intent extraction failed, using fallback")
		return FallbackIntent()
	}
	span.SetAttributes(
		attribute.String("intent", res.Intent),
		attribute.Float64("intent.confidence", res.Confidence),
	)
	return res
}

func (e *IntentExtractor) extract(ctx context.Context, text string) (domain.IntentResult, error) {
	if e.LLM == nil {
		return domain.IntentResult{}, errors.New("no completer configured")
	}
	if e.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Config.Timeout)
		defer cancel()
	}

	out, err := e.LLM.Complete(ctx, llm.Request{
		Model: e.Config.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fmt.Sprintf(intentInstruction, strings.Join(domain.KnownIntents, ", "))},
			{Role: llm.RoleUser, Content: text},
		},
		Temperature: e.Config.Temperature,
		MaxTokens:   e.Config.MaxTokens,
	})
	if err != nil {
		llmRequests.WithLabelValues(opIntent, "error").Inc()
		return domain.IntentResult{}, err
	}
	llmRequests.WithLabelValues(opIntent, "ok").Inc()
	return ParseIntent(out)
}

// ParseIntent decodes a model answer into an IntentResult. The JSON object
// may be wrapped in a markdown fence or surrounded by prose. A missing
// intent label is an error; confidence is clamped to [0,1] and placeholder
// entity values are dropped.
func ParseIntent(raw string) (domain.IntentResult, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return domain.IntentResult{}, err
	}

	var res domain.IntentResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return domain.IntentResult{}, fmt.Errorf("decode intent: %w", err)
	}
	res.Intent = strings.TrimSpace(res.Intent)
	if res.Intent == "" {
		return domain.IntentResult{}, errors.New("decode intent: empty intent label")
	}
	res.Entities = res.Entities.Normalize()
	if res.MissingInfo == nil {
		res.MissingInfo = []string{}
	}
	switch {
	case res.Confidence < 0:
		res.Confidence = 0
	case res.Confidence > 1:
		res.Confidence = 1
	}
	return res, nil
}

// extractJSONObject returns the span from the first '{' to the last '}'.
func extractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return "", errors.New("decode intent: no JSON object in model output")
	}
	return raw[start : end+1], nil
}
