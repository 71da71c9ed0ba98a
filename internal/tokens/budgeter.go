package tokens

import (
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"codeatlas/pkg/logger"
)

// Counter counts tokens for a piece of text. Tree labels and snippet bundles
// are annotated through this so callers can budget LLM context up front.
type Counter interface {
	Count(text string) int
}

// Budgeter is a tiktoken-backed Counter
type Budgeter struct {
	encoding *tiktoken.Tiktoken
	logger   *zap.Logger
}

// NewBudgeter creates a Counter for the given tiktoken encoding name
// (e.g. "cl100k_base"). If the encoding cannot be loaded it falls back to a
// character-ratio estimator rather than failing; token counts are advisory.
func NewBudgeter(encodingName string) Counter {
	if encodingName == "" {
		encodingName = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		logger.Get().Warn("Failed to load tiktoken encoding, falling back to estimation",
			zap.String("encoding", encodingName),
			zap.Error(err),
		)
		return &estimateCounter{}
	}
	return &Budgeter{
		encoding: enc,
		logger:   logger.Get(),
	}
}

// Count returns the number of tokens in text
func (b *Budgeter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(b.encoding.Encode(text, nil, nil))
}

// CountBundle returns the aggregate token total of a produced snippet bundle
// or rendered map
func CountBundle(c Counter, bundle string) int {
	return c.Count(bundle)
}

// estimateCounter approximates tokens as len/4, the usual English-prose ratio
type estimateCounter struct{}

func (e *estimateCounter) Count(text string) int {
	return len(text) / 4
}
