package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"
)

// mockGenerator is a mock implementation of generator for testing.
type mockGenerator struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.GenerateContentFunc(ctx, model, contents, config)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func replying(text string) *Client {
	return &Client{
		model: DefaultModelName,
		models: &mockGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse(text), nil
			},
		},
	}
}

func TestClient_NoAPIKey(t *testing.T) {
	c, err := NewClient(context.Background(), "", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Configured() {
		t.Fatal("client without key should not be configured")
	}
	if _, err := c.Categorize(context.Background(), "TESCO", -12.5); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Categorize err = %v, want ErrNoAPIKey", err)
	}
	if _, err := c.AdviseTransaction(context.Background(), "TESCO", -12.5, ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("AdviseTransaction err = %v, want ErrNoAPIKey", err)
	}
}

func TestClient_Categorize(t *testing.T) {
	var gotConfig *genai.GenerateContentConfig
	var gotPrompt, gotModel string
	c := &Client{
		model: "test-model",
		models: &mockGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				gotModel = model
				gotConfig = config
				gotPrompt = contents[0].Parts[0].Text
				return textResponse("```json\n{\"merchant\":\"Tesco\",\"category\":\"Groceries\",\"subcategory\":null," +
					"\"is_subscription\":false,\"notes\":null,\"spending_class\":\"need\"}\n```"), nil
			},
		},
	}

	got, err := c.Categorize(context.Background(), "TESCO STORES 3021", -42.1)
	if err != nil {
		t.Fatalf("Categorize: %v", err)
	}
	if gotModel != "test-model" {
		t.Errorf("model = %q, want test-model", gotModel)
	}
	if gotConfig.ResponseMIMEType != "application/json" || gotConfig.ResponseSchema == nil {
		t.Error("categorization should request structured JSON output")
	}
	if gotConfig.SystemInstruction == nil {
		t.Error("system instruction not set")
	}
	if !strings.Contains(gotPrompt, "TESCO STORES 3021") || !strings.Contains(gotPrompt, "-42.1") {
		t.Errorf("prompt missing transaction details: %q", gotPrompt)
	}
	if got.Merchant == nil || *got.Merchant != "Tesco" {
		t.Errorf("merchant = %v, want Tesco", got.Merchant)
	}
	if got.Confidence != nil {
		t.Errorf("missing confidence should stay nil, got %v", *got.Confidence)
	}
	if got.SpendingClass == nil || *got.SpendingClass != "need" {
		t.Errorf("spending_class = %v, want need", got.SpendingClass)
	}
}

func TestClient_CategorizeMalformed(t *testing.T) {
	_, err := replying("I think this is groceries.").Categorize(context.Background(), "TESCO", -1)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestClient_CategorizeAPIError(t *testing.T) {
	c := &Client{
		model: DefaultModelName,
		models: &mockGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, &genai.APIError{Code: 429, Message: "quota exceeded"}
			},
		},
	}
	_, err := c.Categorize(context.Background(), "TESCO", -1)
	var apiErr *genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 429 {
		t.Errorf("err = %v, want wrapped APIError 429", err)
	}
}

func TestClient_FindCheaperAlternative(t *testing.T) {
	got, err := replying("  Try CheapTV at 7.99 EUR.  ").FindCheaperAlternative(context.Background(), "streamflix", 12.99)
	if err != nil {
		t.Fatalf("FindCheaperAlternative: %v", err)
	}
	if got != "Try CheapTV at 7.99 EUR." {
		t.Errorf("got %q", got)
	}

	got, err = replying("").FindCheaperAlternative(context.Background(), "streamflix", 12.99)
	if err != nil || got != "" {
		t.Errorf("empty reply: got (%q, %v), want empty text and no error", got, err)
	}
}

func TestClient_SuggestRecipe(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantErr    bool
		wantViable bool
	}{
		{
			name:       "viable defaults to true",
			reply:      `{"title":"Home latte","ingredients":["coffee","milk"],"method":["brew","steam","pour"],"est_cost_per_serving":0.6,"time_minutes":5}`,
			wantViable: true,
		},
		{
			name:  "explicitly not viable",
			reply: `Sure! {"title":"n/a","ingredients":[],"method":[],"est_cost_per_serving":0,"time_minutes":0,"is_viable":false}`,
		},
		{
			name:    "missing title",
			reply:   `{"ingredients":[]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			reply:   "just buy less coffee",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := replying(tt.reply).SuggestRecipe(context.Background(), "latte from Costa", "Costa")
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("err = %v, want ErrMalformedResponse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SuggestRecipe: %v", err)
			}
			if card.IsViable != tt.wantViable {
				t.Errorf("IsViable = %v, want %v", card.IsViable, tt.wantViable)
			}
		})
	}
}

func TestClient_EmptyResponse(t *testing.T) {
	_, err := replying("   ").AdviseTransaction(context.Background(), "Netflix", -12.99, "Netflix")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here you go: {\"a\":1} hope that helps", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{-42.1: "-42.1", 10: "10", 9.99: "9.99", 0: "0"}
	for in, want := range tests {
		if got := formatAmount(in); got != want {
			t.Errorf("formatAmount(%v) = %q, want %q", in, got, want)
		}
	}
}
