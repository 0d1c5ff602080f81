// Package ai implements selector discovery against the OpenAI API. The
// model is shown a bounded sample of the index page's markup and asked for
// a CSS selector per article field; the response is treated as untrusted
// JSON and validated by the caller before use.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"newsharvest/scraper"
)

const systemPrompt = "You are a helpful assistant that analyzes HTML and returns precise CSS selectors."

// Client calls the OpenAI chat completions API to identify selectors.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a discovery client for the given model.
func NewClient(apiKey, model string) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client, model: model}
}

// IdentifySelectors asks the model for one CSS selector per article field.
// The returned candidate is unvalidated; callers decide whether to trust
// it. Implements scraper.SelectorFinder.
func (c *Client) IdentifySelectors(ctx context.Context, markupSample string) (*scraper.SelectorCandidate, error) {
	prompt := buildPrompt(markupSample)

	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(500),
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	candidate, err := ParseCandidate(response.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

// ParseCandidate extracts the JSON object from a model response and
// unmarshals it. The model sometimes wraps the JSON in prose, so parsing
// starts at the first brace and ends at the last.
func ParseCandidate(content string) (*scraper.SelectorCandidate, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var candidate scraper.SelectorCandidate
	if err := json.Unmarshal([]byte(content[start:end+1]), &candidate); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &candidate, nil
}

// buildPrompt assembles the discovery prompt around the markup sample.
func buildPrompt(markupSample string) string {
	var sb strings.Builder
	sb.WriteString("You are an expert web scraper. Analyze this HTML from a news index page and identify CSS selectors for the following elements:\n\n")
	sb.WriteString("1. Article container: The div or element that contains each news article\n")
	sb.WriteString("2. Title: The title or headline of each article\n")
	sb.WriteString("3. Kicker: The text above the main headline (might be a category or short summary)\n")
	sb.WriteString("4. Image: The main image of the article\n")
	sb.WriteString("5. Link: The URL to the full article\n\n")
	sb.WriteString("The title, kicker, image, and link selectors must be relative to the article container.\n\n")
	sb.WriteString(`Format your response as JSON with keys: "article_selector", "title_selector", "kicker_selector", "image_selector", "link_selector", and a "confidence" between 0.0 and 1.0.`)
	sb.WriteString("\n\nHere's the sample HTML:\n")
	sb.WriteString(markupSample)
	return sb.String()
}
