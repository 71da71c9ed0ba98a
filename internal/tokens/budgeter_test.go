package tokens

import (
	"strings"
	"testing"
)

func TestNewBudgeter_UnknownEncodingFallsBack(t *testing.T) {
	c := NewBudgeter("no-such-encoding")
	if c == nil {
		t.Fatal("Expected a counter, got nil")
	}

	// The estimator approximates four characters per token
	if got := c.Count(strings.Repeat("a", 40)); got != 10 {
		t.Errorf("Expected 10 tokens for 40 chars, got %d", got)
	}
	if got := c.Count(""); got != 0 {
		t.Errorf("Expected 0 tokens for empty text, got %d", got)
	}
}

func TestCountBundle(t *testing.T) {
	c := NewBudgeter("no-such-encoding")
	bundle := strings.Repeat("b", 100)
	if got := CountBundle(c, bundle); got != c.Count(bundle) {
		t.Errorf("Expected bundle count to match direct count, got %d", got)
	}
}

func TestCount_Monotonic(t *testing.T) {
	c := NewBudgeter("no-such-encoding")
	short := c.Count("func main() {}")
	long := c.Count(strings.Repeat("func main() {}\n", 50))
	if long <= short {
		t.Errorf("Expected longer text to count more tokens: %d vs %d", short, long)
	}
}
