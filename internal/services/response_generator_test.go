package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-commerce-chat/internal/domain"
)

func TestBuildPrompt_ProductsLayout(t *testing.T) {
	g := NewResponseGenerator(nil, DefaultGeneratorConfig())
	bundle := &domain.ContextBundle{Products: []domain.Product{
		{Name: "Slim Jean", Brand: "Levi's", RetailPrice: 59.5, Category: "Jeans"},
		{Name: "Big Coat", Brand: "North", RetailPrice: 1234.5, Category: "Outerwear"},
	}}
	got := g.BuildPrompt("show me jeans", domain.IntentProductSearch, domain.Entities{Category: "jeans"}, bundle)

	want := DefaultPersona + "\n\n" +
		"User Intent: product_search\n" +
		`Extracted Info: {"category":"jeans"}` + "\n" +
		"\nHere are relevant products I found:\n" +
		"1. Slim Jean by Levi's - $59.50 (Jeans)\n" +
		"2. Big Coat by North - $1,234.50 (Outerwear)\n" +
		"\n\nUser Message: show me jeans"
	if got != want {
		t.Fatalf("prompt mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestBuildPrompt_OrdersAndCap(t *testing.T) {
	g := NewResponseGenerator(nil, DefaultGeneratorConfig())
	created := time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC)
	var orders []domain.Order
	for i := 0; i < 7; i++ {
		orders = append(orders, domain.Order{OrderID: int64(10000 + i), Status: "Shipped", NumOfItem: 2, CreatedAt: created})
	}
	got := g.BuildPrompt("my orders", domain.IntentOrderInquiry, domain.Entities{UserID: "42"}, &domain.ContextBundle{Orders: orders})

	if !strings.Contains(got, "\nHere are your recent orders:\n1. Order #10000 - Status: Shipped, Items: 2, Date: 3/7/2024\n") {
		t.Fatalf("order line missing:\n%s", got)
	}
	if strings.Contains(got, "6. Order") {
		t.Fatalf("more than five orders listed:\n%s", got)
	}
	if !strings.Contains(got, `Extracted Info: {"user_id":"42"}`) {
		t.Fatalf("entities not serialised:\n%s", got)
	}
}

func TestBuildPrompt_NoBundle(t *testing.T) {
	g := NewResponseGenerator(nil, GeneratorConfig{Persona: "P"})
	got := g.BuildPrompt("hi", domain.IntentGeneralHelp, domain.Entities{}, nil)
	want := "P\n\nUser Intent: general_help\nExtracted Info: {}\n\n\nUser Message: hi"
	if got != want {
		t.Fatalf("got %q; want %q", got, want)
	}
}

func TestGenerate_ReturnsCompletionWithReplyParams(t *testing.T) {
	fc := &fakeCompleter{reply: "Here are some jeans."}
	g := NewResponseGenerator(fc, DefaultGeneratorConfig())
	if got := g.Generate(context.Background(), "jeans?", domain.IntentProductSearch, domain.Entities{}, nil); got != "Here are some jeans." {
		t.Fatalf("Generate = %q", got)
	}
	r := fc.requests()[0]
	if r.Temperature != 0.7 || r.MaxTokens != 1000 || len(r.Messages) != 1 {
		t.Fatalf("request: %+v", r)
	}
}

func TestGenerate_Fallbacks(t *testing.T) {
	ctx := context.Background()
	failing := NewResponseGenerator(&fakeCompleter{replyErr: errors.New("timeout")}, DefaultGeneratorConfig())
	if got := failing.Generate(ctx, "x", "general_help", domain.Entities{}, nil); got != ReplyOnFailure {
		t.Fatalf("failure fallback: %q", got)
	}
	empty := NewResponseGenerator(&fakeCompleter{reply: "  "}, DefaultGeneratorConfig())
	if got := empty.Generate(ctx, "x", "general_help", domain.Entities{}, nil); got != ReplyOnEmpty {
		t.Fatalf("empty fallback: %q", got)
	}
}
