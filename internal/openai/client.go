// Package openai adapts the OpenAI API to the generator's provider
// interfaces.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the model used for generating embeddings.
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the dimension of DefaultEmbeddingModel.
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel backs question generation, answering and NER.
	DefaultChatModel = openai.GPT4oMini

	embeddingBatchSize = 100
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when embedding has wrong dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrEmptyResponse is returned when the API returns no usable content
	ErrEmptyResponse = errors.New("empty response from model")
)

// EmbeddingAPI creates one embedding per input, in input order.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatAPI runs a single JSON-mode chat completion.
type ChatAPI interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// OpenAIAdapter implements EmbeddingAPI and ChatAPI over go-openai.
type OpenAIAdapter struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	dimensions     int
	chatModel      string
}

// NewOpenAIAdapter creates an adapter from cfg, filling default models.
func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	return &OpenAIAdapter{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: embeddingModel,
		dimensions:     dimensions,
		chatModel:      chatModel,
	}
}

// CreateEmbeddings calls the OpenAI embeddings endpoint.
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      a.embeddingModel,
		Dimensions: a.dimensions,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

// CompleteJSON calls the chat completions endpoint in JSON mode.
func (a *OpenAIAdapter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.chatModel,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
}

// Client implements the embedding, question generation, answering and
// entity recognition capabilities.
type Client struct {
	embeddings EmbeddingAPI
	chat       ChatAPI
	dimensions int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	adapter := NewOpenAIAdapter(cfg)
	return newClient(adapter, adapter, cfg.EmbeddingDimensions)
}

func newClient(embeddings EmbeddingAPI, chat ChatAPI, dimensions int) *Client {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{embeddings: embeddings, chat: chat, dimensions: dimensions}
}

// Dimensions reports the expected embedding size.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Embed generates an embedding for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch generates embeddings for texts, splitting large inputs into
// several API calls.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, ErrEmptyText
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := min(start+embeddingBatchSize, len(texts))

		batch, err := c.embeddings.CreateEmbeddings(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding: %w", err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("failed to create embedding: expected %d vectors, got %d", end-start, len(batch))
		}
		for _, e := range batch {
			if len(e) != c.dimensions {
				return nil, fmt.Errorf("%w: got %d, expected %d", ErrWrongDimensions, len(e), c.dimensions)
			}
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) completeInto(ctx context.Context, system, user string, dst any) error {
	raw, err := c.chat.CompleteJSON(ctx, system, user)
	if err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode model response: %w", err)
	}
	return nil
}
