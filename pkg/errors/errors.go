package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeLLM represents LLM provider errors
	ErrorTypeLLM ErrorType = "llm"
	// ErrorTypeEmbedding represents embedding provider errors
	ErrorTypeEmbedding ErrorType = "embedding"
	// ErrorTypeExplore represents exploration loop errors
	ErrorTypeExplore ErrorType = "explore"
	// ErrorTypeCache represents hint cache errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Category returns the error's type. Promoted into every wrapper struct that
// embeds BaseError, so category checks work without knowing the concrete type.
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrNodeNotFound is returned when a node cannot be resolved in the graph
type ErrNodeNotFound struct {
	*BaseError
	Name string
	Kind string
}

func NewNodeNotFound(name, kind string) *ErrNodeNotFound {
	return &ErrNodeNotFound{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("node not found: %s (%s)", name, kind), nil),
		Name:      name,
		Kind:      kind,
	}
}

// LLM Errors

// ErrLLMRequestFailed is returned when an LLM request fails after retries
type ErrLLMRequestFailed struct {
	*BaseError
	Model     string
	Attempts  int
	Retryable bool
}

func NewLLMRequestFailed(model string, attempts int, retryable bool, err error) *ErrLLMRequestFailed {
	return &ErrLLMRequestFailed{
		BaseError: NewBaseError(ErrorTypeLLM, fmt.Sprintf("LLM request failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
		Retryable: retryable,
	}
}

// ErrLLMNoResponse is returned when the LLM returns an empty response
var ErrLLMNoResponse = NewBaseError(ErrorTypeLLM, "no response from LLM", nil)

// Embedding Errors

// ErrEmbeddingFailed is returned when the embedding provider fails
type ErrEmbeddingFailed struct {
	*BaseError
	Model string
}

func NewEmbeddingFailed(model string, err error) *ErrEmbeddingFailed {
	return &ErrEmbeddingFailed{
		BaseError: NewBaseError(ErrorTypeEmbedding, "failed to embed text", err),
		Model:     model,
	}
}

// Explore Errors

// ErrExploreMaxSteps is returned when the exploration loop hits its step bound
type ErrExploreMaxSteps struct {
	*BaseError
	Steps int
}

func NewExploreMaxSteps(steps int) *ErrExploreMaxSteps {
	return &ErrExploreMaxSteps{
		BaseError: NewBaseError(ErrorTypeExplore, fmt.Sprintf("exploration exceeded %d steps without a final answer", steps), nil),
		Steps:     steps,
	}
}

// Cache Errors

// ErrHintCreateFailed is returned when persisting a hint fails
type ErrHintCreateFailed struct {
	*BaseError
	Question string
}

func NewHintCreateFailed(question string, err error) *ErrHintCreateFailed {
	return &ErrHintCreateFailed{
		BaseError: NewBaseError(ErrorTypeCache, "failed to persist hint", err),
		Question:  question,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// ErrContextTimeout is returned when context times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), nil),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if categorized, ok := err.(interface{ Category() ErrorType }); ok {
		return categorized.Category() == errType
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	if llmErr, ok := err.(*ErrLLMRequestFailed); ok {
		return llmErr.Retryable
	}
	// Graph connection errors are retryable
	if IsErrorType(err, ErrorTypeGraph) {
		return true
	}
	return false
}
