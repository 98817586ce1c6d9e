// Package categorizer turns a transaction description and amount into labels,
// memoizing successful AI results and absorbing AI failures into safe defaults.
package categorizer

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/dvloznov/finance-advisor/internal/ai"
	"github.com/dvloznov/finance-advisor/internal/cache"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"
)

const cacheKeyPrefix = "cat_v1:"

const (
	fallbackCategory   = "Groceries"
	fallbackConfidence = 0.5
	fallbackNotes      = "AI API key missing; returned fallback."
	defaultConfidence  = 0.5
)

// Labeler is the AI call the categorizer wraps.
type Labeler interface {
	Categorize(ctx context.Context, description string, amount float64) (*ai.Categorization, error)
}

// Categorizer produces labels for transactions. It never returns an error.
type Categorizer struct {
	labeler Labeler
	store   cache.Store
	group   singleflight.Group
	log     zerolog.Logger
}

// New creates a categorizer. store may be nil to disable caching.
func New(labeler Labeler, store cache.Store, log zerolog.Logger) *Categorizer {
	if store == nil {
		store = cache.Noop{}
	}
	return &Categorizer{labeler: labeler, store: store, log: log}
}

// CacheKey returns the cache key for a (description, amount) pair.
func CacheKey(description string, amount float64) string {
	sum := sha1.Sum([]byte(description + "|" + strconv.FormatFloat(amount, 'f', -1, 64)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Categorize returns labels from cache, from the AI service, or a fallback.
// Concurrent calls for the same pair share one AI request.
func (c *Categorizer) Categorize(ctx context.Context, description string, amount float64) domain.Labels {
	key := CacheKey(description, amount)

	if raw, ok := c.store.Get(ctx, key); ok {
		var cached domain.Labels
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached
		}
		c.log.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	}

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		return c.categorizeUncached(ctx, key, description, amount), nil
	})
	return v.(domain.Labels)
}

func (c *Categorizer) categorizeUncached(ctx context.Context, key, description string, amount float64) domain.Labels {
	if c.labeler == nil {
		return fallbackLabels()
	}

	res, err := c.labeler.Categorize(ctx, description, amount)
	if errors.Is(err, ai.ErrNoAPIKey) {
		return fallbackLabels()
	}
	if err != nil {
		c.log.Warn().Err(err).Str("description", description).Msg("Categorization failed")
		return errorLabels(describeError(err))
	}

	labels := normalize(res)
	if raw, err := json.Marshal(labels); err == nil {
		c.store.Set(ctx, key, raw)
	}
	return labels
}

func normalize(res *ai.Categorization) domain.Labels {
	labels := domain.Labels{
		Merchant:       nonEmpty(res.Merchant),
		Category:       nonEmpty(res.Category),
		Subcategory:    nonEmpty(res.Subcategory),
		IsSubscription: res.IsSubscription,
		Confidence:     defaultConfidence,
		Notes:          nonEmpty(res.Notes),
	}
	if res.Confidence != nil {
		labels.Confidence = clamp(*res.Confidence)
	}
	if res.SpendingClass != nil {
		labels.SpendingClass = domain.ParseSpendingClass(*res.SpendingClass)
	}
	return labels
}

func fallbackLabels() domain.Labels {
	return domain.Labels{
		Category:   domain.StringPtr(fallbackCategory),
		Confidence: fallbackConfidence,
		Notes:      domain.StringPtr(fallbackNotes),
	}
}

func errorLabels(msg string) domain.Labels {
	return domain.Labels{Notes: domain.StringPtr(msg)}
}

// describeError maps an AI failure to the note stored with the error labels.
func describeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "AI connection/timeout error."
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "AI connection/timeout error."
	}

	if code, msg, ok := apiError(err); ok {
		switch code {
		case 429:
			return "Rate limited by AI service; check quota/billing."
		case 400:
			return fmt.Sprintf("AI bad request: %s", msg)
		}
		return fmt.Sprintf("AI error: %s", msg)
	}

	if errors.Is(err, ai.ErrMalformedResponse) || errors.Is(err, ai.ErrEmptyResponse) {
		return "Model did not return a usable categorization."
	}
	return fmt.Sprintf("AI error: %v", rootCause(err))
}

// rootCause strips the operation prefixes added while the error travelled up.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func apiError(err error) (int, string, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v.Code, v.Message, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return p.Code, p.Message, true
	}
	return 0, "", false
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
