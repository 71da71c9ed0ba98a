package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"codeatlas/pkg/logger"
)

// LLMAdapter handles communication with the LLM via LiteLLM
type LLMAdapter struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter
func NewLLMAdapter(baseURL, apiKey, modelID string) *LLMAdapter {
	// For LiteLLM, we can use a dummy API key if not provided
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"

	return &LLMAdapter{
		client: openai.NewClientWithConfig(config),
		model:  modelID,
		logger: logger.Get(),
	}
}

// Tool represents a function that can be called by the LLM
type Tool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition defines a function that can be called
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ChatMessage is one turn of a conversation handed to the LLM
type ChatMessage struct {
	Role       string
	Content    string
	ToolCallID string     // set on tool-result messages
	Calls      []ToolCall // set on assistant messages that invoked tools
}

// Response represents the LLM's response
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolCall represents a function call from the LLM
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
	// RawArguments preserves the argument JSON so the call can be replayed
	// into a follow-up conversation turn untouched
	RawArguments string
}

// Chat sends a multi-turn conversation to the LLM and returns the response.
// tools may be empty for plain completions.
func (a *LLMAdapter) Chat(ctx context.Context, messages []ChatMessage, tools []Tool) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: 0.7,
	}
	if len(tools) > 0 {
		openaiTools := make([]openai.Tool, 0, len(tools))
		for _, tool := range tools {
			openaiTools = append(openaiTools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        tool.Function.Name,
					Description: tool.Function.Description,
					Parameters:  tool.Function.Parameters,
				},
			})
		}
		req.Tools = openaiTools
	}

	resp, err := a.completeWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseResponse(a.logger, resp)
}

// Generate sends a single system+user exchange to the LLM
func (a *LLMAdapter) Generate(ctx context.Context, systemPrompt, userMsg string, tools []Tool) (*Response, error) {
	return a.Chat(ctx, []ChatMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userMsg},
	}, tools)
}

// Complete runs a plain single-prompt completion and returns the text
func (a *LLMAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.Chat(ctx, []ChatMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// CompleteJSON runs a completion in JSON mode and unmarshals the result into
// out
func (a *LLMAdapter) CompleteJSON(ctx context.Context, prompt string, out interface{}) error {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := a.completeWithRetry(ctx, req)
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no choices in LLM response")
	}
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse LLM JSON response: %w", err)
	}
	return nil
}

// completeWithRetry calls the LLM with bounded exponential backoff. The
// backoff wait is context-aware so cancellation propagates between attempts.
func (a *LLMAdapter) completeWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var resp openai.ChatCompletionResponse
	var err error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			a.logger.Warn("Retrying LLM request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return resp, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err = a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return resp, ctx.Err()
		}

		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.String("model", req.Model),
		)
	}
	return resp, fmt.Errorf("failed to generate response after %d attempts: %w", maxRetries, err)
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, call := range m.Calls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: call.RawArguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func parseResponse(log *zap.Logger, resp openai.ChatCompletionResponse) (*Response, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in LLM response")
	}

	choice := resp.Choices[0].Message
	response := &Response{Content: choice.Content}

	for _, call := range choice.ToolCalls {
		args := make(map[string]interface{})
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				log.Warn("Failed to parse tool call arguments",
					zap.String("tool", call.Function.Name),
					zap.Error(err),
				)
				continue
			}
		}
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			ID:           call.ID,
			Name:         call.Function.Name,
			Arguments:    args,
			RawArguments: call.Function.Arguments,
		})
	}

	return response, nil
}
