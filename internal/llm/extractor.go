package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stockdesk-app/stockdesk/internal/common"
)

// Use-case temperatures: the purchase schema is the largest and most
// failure-prone, so it runs coldest.
const (
	tempDocument float32 = 0.2
	tempProduct  float32 = 0.1
	tempPurchase float32 = 0.05
)

// defaultPurchaseAttempts bounds the retry loop for the purchase use case;
// all other use cases get a single attempt. No backoff between attempts.
const defaultPurchaseAttempts = 2

// Extractor coordinates one extraction end-to-end: model call, repair,
// normalization, and fallback. It is stateless across calls and safe for
// concurrent use; the only mutable state (the API key) lives in the provider.
type Extractor struct {
	gen              Generator
	logger           *slog.Logger
	purchaseAttempts int
}

type ExtractorOption func(*Extractor)

// WithPurchaseAttempts overrides the purchase retry bound. Values below 1
// are clamped to a single attempt.
func WithPurchaseAttempts(n int) ExtractorOption {
	return func(e *Extractor) {
		if n < 1 {
			n = 1
		}
		e.purchaseAttempts = n
	}
}

func NewExtractor(gen Generator, logger *slog.Logger, opts ...ExtractorOption) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{gen: gen, logger: logger, purchaseAttempts: defaultPurchaseAttempts}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AnalyzeDocument extracts generic receipt/invoice fields from an image.
// Failures after the credential check are absorbed into fallback; only a
// missing credential is returned as an error.
func (e *Extractor) AnalyzeDocument(ctx context.Context, image []byte, mimeType string) (DocumentAnalysis, error) {
	raw, err := e.run(ctx, UseCaseDocument, image, mimeType, 1, func(repaired []byte) ([]byte, error) {
		doc, nerr := NormalizeDocument(repaired)
		if nerr != nil {
			return nil, nerr
		}
		return validated(BuildDocumentSchema(), doc)
	})
	if err != nil {
		if errors.Is(err, common.ErrNoAPIKey) {
			return DocumentAnalysis{}, err
		}
		return FallbackDocument(""), nil
	}
	var out DocumentAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return FallbackDocument(""), nil
	}
	return out, nil
}

// ExtractProduct extracts a single product from an image. The zero-value
// fallback product is returned when every stage fails.
func (e *Extractor) ExtractProduct(ctx context.Context, image []byte, mimeType string) (ProductExtraction, error) {
	raw, err := e.run(ctx, UseCaseProduct, image, mimeType, 1, func(repaired []byte) ([]byte, error) {
		p, nerr := NormalizeProduct(repaired)
		if nerr != nil {
			return nil, nerr
		}
		return validated(BuildProductSchema(), p)
	})
	if err != nil {
		if errors.Is(err, common.ErrNoAPIKey) {
			return ProductExtraction{}, err
		}
		return FallbackProduct(), nil
	}
	var out ProductExtraction
	if err := json.Unmarshal(raw, &out); err != nil {
		return FallbackProduct(), nil
	}
	return out, nil
}

// ExtractPurchase extracts a purchase invoice with line items. The whole
// model call is retried once before giving up; the optional filename feeds
// the heuristic fallback.
func (e *Extractor) ExtractPurchase(ctx context.Context, image []byte, mimeType, filename string) (PurchaseExtraction, error) {
	raw, err := e.run(ctx, UseCasePurchase, image, mimeType, e.purchaseAttempts, func(repaired []byte) ([]byte, error) {
		p, nerr := NormalizePurchase(repaired)
		if nerr != nil {
			return nil, nerr
		}
		return validated(BuildPurchaseSchema(), p)
	})
	if err != nil {
		if errors.Is(err, common.ErrNoAPIKey) {
			return PurchaseExtraction{}, err
		}
		return FallbackPurchase(filename), nil
	}
	var out PurchaseExtraction
	if err := json.Unmarshal(raw, &out); err != nil {
		return FallbackPurchase(filename), nil
	}
	return out, nil
}

// run drives the bounded attempt loop: model call, repair, then the
// normalize callback. A normalization failure counts as a failed attempt,
// same as a transport failure. Returns the normalized result bytes of the
// first attempt that succeeds.
func (e *Extractor) run(ctx context.Context, useCase UseCase, image []byte, mimeType string, attempts int, normalize func([]byte) ([]byte, error)) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	e.logger.Info("llm.extract.start",
		"req_id", rid, "use_case", string(useCase),
		"mime_type", mimeType, "image_bytes", len(image), "attempts", attempts,
	)

	prompt := BuildPrompt(useCase)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := e.gen.Generate(ctx, GenerateRequest{
			Image:       image,
			MimeType:    mimeType,
			Prompt:      prompt,
			Temperature: temperatureFor(useCase),
		})
		if err != nil {
			if errors.Is(err, common.ErrNoAPIKey) {
				e.logger.Warn("llm.extract.no_api_key", "req_id", rid, "use_case", string(useCase))
				return nil, err
			}
			e.logger.Warn("llm.extract.attempt_failed",
				"req_id", rid, "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		result, err := normalize([]byte(Repair(text)))
		if err != nil {
			e.logger.Warn("llm.extract.normalize_failed",
				"req_id", rid, "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		e.logger.Info("llm.extract.ok",
			"req_id", rid, "use_case", string(useCase), "attempt", attempt,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return result, nil
	}

	e.logger.Warn("llm.extract.fallback",
		"req_id", rid, "use_case", string(useCase), "error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if lastErr == nil {
		lastErr = common.ErrMalformedResponse
	}
	return nil, lastErr
}

// validated marshals a normalized result and gates it against its schema, so
// nothing outside the strict shapes escapes the normalizer boundary.
func validated(schema map[string]any, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	if err := ValidateJSONAgainstSchema(schema, b); err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrMalformedResponse)
	}
	return b, nil
}

func temperatureFor(useCase UseCase) float32 {
	switch useCase {
	case UseCaseProduct:
		return tempProduct
	case UseCasePurchase:
		return tempPurchase
	default:
		return tempDocument
	}
}
