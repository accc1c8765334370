package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/relevance"
)

const classifierSystemPrompt = `You classify Wikipedia articles for a real-estate search platform covering Utah and California.
Identify the single primary geographic entity the article is about and answer with one JSON object:
{
  "name": string,            // entity name, "" if the article is not about a place
  "type": string,            // free-form kind: city, neighborhood, county, park, ski resort, ...
  "city": string,            // containing city, "" if none or unknown
  "county": string,          // containing county without the word "County", "" if unknown
  "state": string,           // full US state name, "" if unknown
  "confidence": number,      // 0..1
  "is_utah_california": boolean,
  "should_flag": boolean,    // true when the article is useless for real-estate context
  "key_topics": [string],    // up to 5 short topics
  "reasoning": string        // one sentence
}`

// ClassifierConfig holds the chat model settings for location classification.
type ClassifierConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float32
	MaxExcerptChars int
	Logger          *zap.Logger
}

// Classifier asks a chat model for an article's primary location.
type Classifier struct {
	client      *openai.Client
	model       string
	temperature float32
	maxExcerpt  int
	logger      *zap.Logger
}

// NewClassifier creates an OpenAI-compatible location classifier.
func NewClassifier(cfg *ClassifierConfig) *Classifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	maxExcerpt := cfg.MaxExcerptChars
	if maxExcerpt <= 0 {
		maxExcerpt = 2000
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxExcerpt:  maxExcerpt,
		logger:      logger,
	}
}

// Classify returns the location classification of an article. Every failure wraps domain.ErrLLM.
func (c *Classifier) Classify(ctx context.Context, a relevance.Article) (relevance.LocationClassification, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: c.prompt(a)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return relevance.LocationClassification{}, wrapAPIError("classification", err, domain.ErrLLM)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return relevance.LocationClassification{}, fmt.Errorf("empty classification response: %w", domain.ErrLLM)
	}

	cls, err := ParseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		return relevance.LocationClassification{}, err
	}

	c.logger.Debug("Article classified",
		zap.String("article_id", a.ID),
		zap.String("location", cls.Name),
		zap.String("type", string(cls.Type)),
		zap.Float64("confidence", cls.Confidence),
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return cls, nil
}

func (c *Classifier) prompt(a relevance.Article) string {
	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(a.Title)
	b.WriteString("\n\nExcerpt:\n")
	b.WriteString(excerpt(a.Content, c.maxExcerpt))
	if hints := strings.TrimSpace(a.HTMLHints); hints != "" {
		b.WriteString("\n\nPage hints (infobox, coordinates):\n")
		b.WriteString(excerpt(hints, c.maxExcerpt/4))
	}
	b.WriteString("\n\nRespond with valid JSON only.")
	return b.String()
}

// excerpt cuts s to at most n runes on a word boundary.
func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndexAny(cut, " \n\t"); i > n/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

type rawClassification struct {
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	City             string          `json:"city"`
	County           string          `json:"county"`
	State            string          `json:"state"`
	Confidence       json.RawMessage `json:"confidence"`
	IsUtahCalifornia bool            `json:"is_utah_california"`
	ShouldFlag       bool            `json:"should_flag"`
	KeyTopics        []string        `json:"key_topics"`
	Reasoning        string          `json:"reasoning"`
}

// ParseClassification decodes model output, repairing truncated or sloppy JSON first.
// Confidence may arrive as a number or a numeric string and is clamped to [0,1].
func ParseClassification(content string) (relevance.LocationClassification, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		repaired = content
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return relevance.LocationClassification{}, fmt.Errorf("decode classification: %w: %w", domain.ErrLLM, err)
	}

	return relevance.LocationClassification{
		Name:             strings.TrimSpace(raw.Name),
		Type:             relevance.NormalizeLocationType(raw.Type),
		City:             strings.TrimSpace(raw.City),
		County:           strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw.County), " County")),
		State:            relevance.CanonicalState(raw.State),
		Confidence:       parseConfidence(raw.Confidence),
		IsUtahCalifornia: raw.IsUtahCalifornia,
		ShouldFlag:       raw.ShouldFlag,
		KeyTopics:        raw.KeyTopics,
		Reasoning:        raw.Reasoning,
	}, nil
}

func parseConfidence(raw json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return max(0, min(1, f))
}
