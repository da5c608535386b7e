package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/catalog-assets/internal/ai"
	"github.com/spigell/catalog-assets/internal/catalog"
	"github.com/spigell/catalog-assets/internal/logger"
	"github.com/spigell/catalog-assets/internal/utils"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Advisor asks Gemini to pick an image for a product out of a candidate list.
type Advisor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Advisor = (*Advisor)(nil)

func NewAdvisor(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Advisor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

type answer struct {
	File       string  `mapstructure:"file"`
	Confidence float64 `mapstructure:"confidence"`
	Reason     string  `mapstructure:"reason"`
}

func (a *Advisor) Suggest(ctx context.Context, product *catalog.Product, candidates []string) (*ai.Suggestion, error) {
	if product == nil {
		return nil, errors.New("product is required")
	}
	if len(candidates) == 0 {
		return &ai.Suggestion{}, nil
	}

	payload := map[string]any{
		"id":              product.ID,
		"nombre":          product.Name,
		"color":           product.Color,
		"caracteristicas": product.Features,
	}
	productJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal product payload: %w", err)
	}

	prompt := buildPrompt(string(productJSON), candidates)
	log := logger.WithProduct(a.logger, string(product.ID), product.Name)

	log.Debug("gemini generate content request",
		zap.Int("candidates", len(candidates)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	log.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	suggestion, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	suggestion.Raw = raw
	return suggestion, nil
}

func buildPrompt(productJSON string, candidates []string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Product:\n{{PRODUCT_JSON}}\n\nCandidate files:\n{{CANDIDATES}}\n\nJSON Response:"
	}

	var list strings.Builder
	for i, c := range candidates {
		if i > 0 {
			list.WriteString("\n")
		}
		list.WriteString("- ")
		list.WriteString(c)
	}

	prompt := strings.ReplaceAll(template, "{{PRODUCT_JSON}}", productJSON)
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATES}}", list.String())
	return prompt
}

func parseResponse(raw string) (*ai.Suggestion, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var out answer
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	return &ai.Suggestion{
		File:       strings.TrimSpace(out.File),
		Confidence: out.Confidence,
		Reason:     strings.TrimSpace(out.Reason),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
