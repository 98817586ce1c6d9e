// Package ai wraps the Gemini API calls used to categorize transactions and
// produce advice text.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model.
const DefaultModelName = "gemini-2.5-flash"

var (
	// ErrNoAPIKey is returned by every call when no API key was configured.
	ErrNoAPIKey = errors.New("ai: API key not configured")

	// ErrEmptyResponse is returned when the model replied with no text.
	ErrEmptyResponse = errors.New("ai: empty response from model")

	// ErrMalformedResponse is returned when a structured reply cannot be decoded.
	ErrMalformedResponse = errors.New("ai: malformed response from model")
)

// generator is the subset of genai.Models used here. It allows mocking in tests.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client issues prompts to a Gemini model.
type Client struct {
	models generator
	model  string
}

// NewClient creates a Gemini client. An empty apiKey yields a client whose calls
// all fail with ErrNoAPIKey.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if model == "" {
		model = DefaultModelName
	}
	if apiKey == "" {
		return &Client{model: model}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewClient: create genai client: %w", err)
	}
	return &Client{models: client.Models, model: model}, nil
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c != nil && c.models != nil
}

// Categorization is the structured reply for one transaction. Fields the model
// left out stay nil so the caller can apply defaults.
type Categorization struct {
	Merchant       *string  `json:"merchant"`
	Category       *string  `json:"category"`
	Subcategory    *string  `json:"subcategory"`
	IsSubscription bool     `json:"is_subscription"`
	Confidence     *float64 `json:"confidence"`
	Notes          *string  `json:"notes"`
	SpendingClass  *string  `json:"spending_class"`
}

var categorizationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"merchant":        {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"category":        {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"subcategory":     {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"is_subscription": {Type: genai.TypeBoolean},
		"confidence":      {Type: genai.TypeNumber, Minimum: genai.Ptr(0.0), Maximum: genai.Ptr(1.0)},
		"notes":           {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"spending_class": {
			Type:     genai.TypeString,
			Nullable: genai.Ptr(true),
			Enum:     []string{"need", "want", "savings"},
		},
	},
	Required: []string{"merchant", "category", "is_subscription", "confidence", "notes"},
}

var recipeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":                {Type: genai.TypeString},
		"ingredients":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"method":               {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"est_cost_per_serving": {Type: genai.TypeNumber},
		"time_minutes":         {Type: genai.TypeNumber},
		"is_viable":            {Type: genai.TypeBoolean},
	},
	Required: []string{"title", "ingredients", "method", "est_cost_per_serving", "time_minutes"},
}

// Categorize asks the model for structured labels for a transaction.
func (c *Client) Categorize(ctx context.Context, description string, amount float64) (*Categorization, error) {
	raw, err := c.generate(ctx, categorizeSystemPrompt, buildCategorizePrompt(description, amount), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   categorizationSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("Categorize: %w", err)
	}

	var out Categorization
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("Categorize: %w: %v", ErrMalformedResponse, err)
	}
	return &out, nil
}

// FindCheaperAlternative asks for cheaper alternatives to a recurring service.
// The reply is free text; NoAlternativesText signals that none exist.
func (c *Client) FindCheaperAlternative(ctx context.Context, service string, monthlyPrice float64) (string, error) {
	text, err := c.generate(ctx, alternativeSystemPrompt, buildAlternativePrompt(service, monthlyPrice), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
	})
	if errors.Is(err, ErrEmptyResponse) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("FindCheaperAlternative: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// SuggestRecipe asks for a short recipe card for making item at home.
func (c *Client) SuggestRecipe(ctx context.Context, item, brandHint string) (domain.RecipeCard, error) {
	raw, err := c.generate(ctx, recipeSystemPrompt, buildRecipePrompt(item, brandHint), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   recipeSchema,
	})
	if err != nil {
		return domain.RecipeCard{}, fmt.Errorf("SuggestRecipe: %w", err)
	}

	var card struct {
		domain.RecipeCard
		IsViable *bool `json:"is_viable"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &card); err != nil {
		return domain.RecipeCard{}, fmt.Errorf("SuggestRecipe: %w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(card.Title) == "" {
		return domain.RecipeCard{}, fmt.Errorf("SuggestRecipe: %w: missing title", ErrMalformedResponse)
	}

	out := card.RecipeCard
	out.IsViable = card.IsViable == nil || *card.IsViable
	return out, nil
}

// AdviseTransaction returns short advice for a single transaction.
func (c *Client) AdviseTransaction(ctx context.Context, description string, amount float64, merchant string) (string, error) {
	text, err := c.generate(ctx, adviceSystemPrompt, buildAdvicePrompt(description, amount, merchant), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
	})
	if err != nil {
		return "", fmt.Errorf("AdviseTransaction: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) generate(ctx context.Context, system, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if !c.Configured() {
		return "", ErrNoAPIKey
	}

	config.SystemInstruction = &genai.Content{
		Parts: []*genai.Part{{Text: system}},
	}
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
