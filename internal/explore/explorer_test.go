package explore

import (
	"context"
	"errors"
	"testing"
	"time"

	"codeatlas/internal/adapter"
	"codeatlas/internal/graph"
	apperrors "codeatlas/pkg/errors"
)

// Mock implementations for testing

type mockGraphReader struct {
	traversal graph.Traversal
	repos     []graph.Node
}

func (m *mockGraphReader) PathExpand(ctx context.Context, opts graph.ExpandOptions) (graph.Traversal, error) {
	return m.traversal, nil
}

func (m *mockGraphReader) FileMap(ctx context.Context, filePath string) (graph.Traversal, error) {
	return m.traversal, nil
}

func (m *mockGraphReader) NodesByType(ctx context.Context, kind graph.NodeKind) ([]graph.Node, error) {
	return m.repos, nil
}

type mockLLM struct {
	chatFunc func(ctx context.Context, messages []adapter.ChatMessage, tools []adapter.Tool) (*adapter.Response, error)
}

func (m *mockLLM) Chat(ctx context.Context, messages []adapter.ChatMessage, tools []adapter.Tool) (*adapter.Response, error) {
	return m.chatFunc(ctx, messages, tools)
}

func finalAnswerResponse(answer string) *adapter.Response {
	return &adapter.Response{
		ToolCalls: []adapter.ToolCall{
			{ID: "call-1", Name: ToolFinalAnswer, Arguments: map[string]interface{}{"answer": answer}},
		},
	}
}

func TestExplore_FinalAnswer(t *testing.T) {
	llm := &mockLLM{
		chatFunc: func(ctx context.Context, messages []adapter.ChatMessage, tools []adapter.Tool) (*adapter.Response, error) {
			return finalAnswerResponse("The server lives in cmd/server"), nil
		},
	}

	e := NewExplorer(&mockGraphReader{}, llm, nil, Options{})
	answer, err := e.Explore(context.Background(), "Where is the server?", nil)
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if answer != "The server lives in cmd/server" {
		t.Errorf("Expected final answer, got '%s'", answer)
	}
}

func TestExplore_ToolResultsFedBack(t *testing.T) {
	callCount := 0
	var toolResult string
	llm := &mockLLM{
		chatFunc: func(ctx context.Context, messages []adapter.ChatMessage, tools []adapter.Tool) (*adapter.Response, error) {
			callCount++
			if callCount == 1 {
				return &adapter.Response{
					ToolCalls: []adapter.ToolCall{
						{ID: "call-1", Name: ToolRepoOverview, Arguments: map[string]interface{}{}},
					},
				}, nil
			}
			// Second call should see the tool result in history
			last := messages[len(messages)-1]
			if last.ToolCallID == "call-1" {
				toolResult = last.Content
			}
			return finalAnswerResponse("done"), nil
		},
	}

	repo := graph.Node{ID: "n0", Kind: graph.KindRepository, Name: "atlas"}
	reader := &mockGraphReader{
		repos:     []graph.Node{repo},
		traversal: graph.Traversal{Start: &repo, Nodes: []graph.Node{repo}},
	}

	e := NewExplorer(reader, llm, nil, Options{})
	if _, err := e.Explore(context.Background(), "overview please", nil); err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if callCount != 2 {
		t.Fatalf("Expected 2 LLM calls, got %d", callCount)
	}
	if toolResult == "" {
		t.Error("Expected tool result appended to the conversation")
	}
}

func TestExplore_MaxStepsCeiling(t *testing.T) {
	llm := &mockLLM{
		chatFunc: func(ctx context.Context, messages []adapter.ChatMessage, tools []adapter.Tool) (*adapter.Response, error) {
			// Never finishes; keeps calling tools forever
			return &adapter.Response{
				ToolCalls: []adapter.ToolCall{
					{ID: "loop", Name: ToolRepoOverview, Arguments: map[string]interface{}{}},
				},
			}, nil
		},
	}

	e := NewExplorer(&mockGraphReader{}, llm, nil, Options{MaxSteps: 3})
	_, err := e.Explore(context.Background(), "question", nil)
	if err == nil {
		t.Fatal("Expected step ceiling error")
	}
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeExplore) {
		t.Errorf("Expected explore error type, got %v", err)
	}
}

func TestExplore_PlainTextFallback(t *testing.T) {
	llm := &mockLLM{
		chatFunc: func(ctx context.Context, messages []adapter.ChatMessage, tools []adapter.Tool) (*adapter.Response, error) {
			return &adapter.Response{Content: "just some prose"}, nil
		},
	}

	e := NewExplorer(&mockGraphReader{}, llm, nil, Options{})
	answer, err := e.Explore(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("Explore failed: %v", err)
	}
	if answer != "just some prose" {
		t.Errorf("Expected plain text fallback, got '%s'", answer)
	}
}

func TestExplore_PriorTurnsReplayed(t *testing.T) {
	var seenMessages []adapter.ChatMessage
	llm := &mockLLM{
		chatFunc: func(ctx context.Context, messages []adapter.ChatMessage, tools []adapter.Tool) (*adapter.Response, error) {
			seenMessages = messages
			return finalAnswerResponse("ok"), nil
		},
	}

	e := NewExplorer(&mockGraphReader{}, llm, nil, Options{})
	prior := []Turn{{Question: "old question", Answer: "old answer"}}
	if _, err := e.Explore(context.Background(), "new question", prior); err != nil {
		t.Fatalf("Explore failed: %v", err)
	}

	// system, prior user, prior assistant, new user
	if len(seenMessages) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(seenMessages))
	}
	if seenMessages[1].Content != "old question" || seenMessages[2].Content != "old answer" {
		t.Error("Expected prior turn replayed before the new question")
	}
	if seenMessages[3].Content != "new question" {
		t.Errorf("Expected new question last, got '%s'", seenMessages[3].Content)
	}
}

func TestExplore_ContextCancellation(t *testing.T) {
	llm := &mockLLM{
		chatFunc: func(ctx context.Context, messages []adapter.ChatMessage, tools []adapter.Tool) (*adapter.Response, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	e := NewExplorer(&mockGraphReader{}, llm, nil, Options{Timeout: 10 * time.Millisecond})
	_, err := e.Explore(context.Background(), "question", nil)
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}
