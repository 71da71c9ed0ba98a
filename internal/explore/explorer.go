package explore

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"codeatlas/internal/adapter"
	"codeatlas/internal/codemap"
	"codeatlas/internal/constants"
	"codeatlas/internal/graph"
	"codeatlas/internal/tokens"
	apperrors "codeatlas/pkg/errors"
	"codeatlas/pkg/logger"
)

// Tool names exposed to the model
const (
	ToolRepoOverview = "repo_overview"
	ToolFileSummary  = "file_summary"
	ToolFeatureMap   = "feature_map"
	ToolFinalAnswer  = "final_answer"
)

// fileSummaryMaxLines bounds how much of each function body a file summary
// shows
const fileSummaryMaxLines = 10

// LLM is the slice of the LLM adapter the explorer needs
type LLM interface {
	Chat(ctx context.Context, messages []adapter.ChatMessage, tools []adapter.Tool) (*adapter.Response, error)
}

// GraphReader is the slice of the graph repository the explorer's tools need
type GraphReader interface {
	PathExpand(ctx context.Context, opts graph.ExpandOptions) (graph.Traversal, error)
	FileMap(ctx context.Context, filePath string) (graph.Traversal, error)
	NodesByType(ctx context.Context, kind graph.NodeKind) ([]graph.Node, error)
}

// Turn is a prior question/answer exchange replayed ahead of a new question
// so a partial cache reuse blends old context with fresh investigation
type Turn struct {
	Question string
	Answer   string
}

// Options bounds one exploration
type Options struct {
	MaxSteps int
	Timeout  time.Duration
}

// Explorer runs a bounded LLM tool-calling loop over the code graph. Unlike
// leaving termination to the model, both a step ceiling and a wall-clock
// timeout are enforced here.
type Explorer struct {
	graphRepo GraphReader
	llm       LLM
	counter   tokens.Counter
	maxSteps  int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewExplorer creates an explorer. Zero option values fall back to defaults.
func NewExplorer(graphRepo GraphReader, llm LLM, counter tokens.Counter, opts Options) *Explorer {
	if opts.MaxSteps < 1 {
		opts.MaxSteps = constants.DefaultExploreMaxSteps
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultExploreTimeoutSeconds * time.Second
	}
	return &Explorer{
		graphRepo: graphRepo,
		llm:       llm,
		counter:   counter,
		maxSteps:  opts.MaxSteps,
		timeout:   opts.Timeout,
		logger:    logger.Get(),
	}
}

// Explore answers a question by navigating the code graph, returning the
// model's final free-text answer. prior turns, if any, are replayed first.
func (e *Explorer) Explore(ctx context.Context, question string, prior []Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	messages := []adapter.ChatMessage{
		{Role: openai.ChatMessageRoleSystem, Content: ExplorerPrompt},
	}
	for _, turn := range prior {
		messages = append(messages,
			adapter.ChatMessage{Role: openai.ChatMessageRoleUser, Content: turn.Question},
			adapter.ChatMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.Answer},
		)
	}
	messages = append(messages, adapter.ChatMessage{Role: openai.ChatMessageRoleUser, Content: question})

	lastText := ""
	for step := 0; step < e.maxSteps; step++ {
		resp, err := e.llm.Chat(ctx, messages, e.tools())
		if err != nil {
			return "", err
		}

		if strings.TrimSpace(resp.Content) != "" {
			lastText = strings.TrimSpace(resp.Content)
		}

		if len(resp.ToolCalls) == 0 {
			// Model answered in plain text without calling final_answer
			if lastText != "" {
				e.logger.Warn("Exploration ended without final_answer call, using last text",
					zap.Int("steps", step+1),
				)
				return lastText, nil
			}
			return "", apperrors.ErrLLMNoResponse
		}

		messages = append(messages, adapter.ChatMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: resp.Content,
			Calls:   resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			if call.Name == ToolFinalAnswer {
				if answer, ok := call.Arguments["answer"].(string); ok && answer != "" {
					e.logger.Debug("Exploration finished",
						zap.Int("steps", step+1),
					)
					return answer, nil
				}
			}

			result := e.execute(ctx, call)
			messages = append(messages, adapter.ChatMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	if lastText != "" {
		e.logger.Warn("Exploration hit step ceiling, using last reasoning text",
			zap.Int("max_steps", e.maxSteps),
		)
		return lastText, nil
	}
	return "", apperrors.NewExploreMaxSteps(e.maxSteps)
}

func (e *Explorer) execute(ctx context.Context, call adapter.ToolCall) string {
	switch call.Name {
	case ToolRepoOverview:
		return e.repoOverview(ctx)
	case ToolFileSummary:
		filePath, _ := call.Arguments["file_path"].(string)
		return e.fileSummary(ctx, filePath)
	case ToolFeatureMap:
		name, _ := call.Arguments["starting_node"].(string)
		depth := 1
		if d, ok := call.Arguments["depth"].(float64); ok && d >= 1 {
			depth = int(d)
		}
		return e.featureMap(ctx, name, depth)
	default:
		return "unknown tool: " + call.Name
	}
}

func (e *Explorer) repoOverview(ctx context.Context) string {
	repos, err := e.graphRepo.NodesByType(ctx, graph.KindRepository)
	if err != nil || len(repos) == 0 {
		return "Could not retrieve repository map"
	}
	tr, err := e.graphRepo.PathExpand(ctx, graph.ExpandOptions{
		Kind:      graph.KindRepository,
		Name:      repos[0].Name,
		Direction: graph.DirectionDown,
		Depth:     5,
	})
	if err != nil {
		return "Could not retrieve repository map"
	}
	return codemap.Render(codemap.BuildTree(tr, e.counter))
}

func (e *Explorer) fileSummary(ctx context.Context, filePath string) string {
	if filePath == "" {
		return "Bad file path"
	}
	tr, err := e.graphRepo.FileMap(ctx, filePath)
	if err != nil || len(tr.Nodes) == 0 {
		return "Bad file path"
	}

	// Show each contained entity with only the head of its body; the model
	// should follow up with feature_map if it needs full flow
	trimmed := make([]graph.Node, 0, len(tr.Nodes))
	for _, n := range tr.Nodes {
		if n.Kind == graph.KindFile {
			continue
		}
		n.Body = headLines(n.Body, fileSummaryMaxLines)
		trimmed = append(trimmed, n)
	}
	if len(trimmed) == 0 {
		return "File has no indexed components"
	}
	return codemap.ExtractSnippets(trimmed, codemap.SnippetOptions{IncludeTests: true})
}

func (e *Explorer) featureMap(ctx context.Context, name string, depth int) string {
	if name == "" {
		return "Could not identify starting node"
	}
	tr, err := e.graphRepo.PathExpand(ctx, graph.ExpandOptions{
		Kind:      graph.KindFunction,
		Name:      name,
		Direction: graph.DirectionDown,
		Depth:     depth,
	})
	if err != nil || len(tr.Nodes) == 0 {
		return "Could not identify starting node"
	}
	return codemap.Render(codemap.BuildTree(tr, e.counter))
}

func headLines(body string, n int) string {
	lines := strings.Split(body, "\n")
	if len(lines) <= n {
		return body
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}

func (e *Explorer) tools() []adapter.Tool {
	return []adapter.Tool{
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolRepoOverview,
				Description: "Get a high-level view of the codebase architecture and structure. Use this to orient yourself in an unfamiliar codebase or locate which directories/files might contain relevant code. Don't call this if you already know which files to examine.",
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": map[string]interface{}{},
				},
			},
		},
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolFileSummary,
				Description: "Get a summary of what a specific file contains: its functions and top-level entities with the first few lines of each. Call this with a hypothesis like 'this file probably handles user authentication'. Don't call this to browse random files.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"file_path": map[string]interface{}{
							"type":        "string",
							"description": "Path to the file to summarize",
						},
						"hypothesis": map[string]interface{}{
							"type":        "string",
							"description": "What you think this file might contain, based on its name/location",
						},
					},
					"required": []string{"file_path", "hypothesis"},
				},
			},
		},
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolFeatureMap,
				Description: "Discover how a function connects to related code to form a complete feature. Only works for Function nodes. This is expensive - don't use it for general exploration.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"starting_node": map[string]interface{}{
							"type":        "string",
							"description": "Name of the function to examine",
						},
						"depth": map[string]interface{}{
							"type":        "number",
							"description": "How many levels of connections to explore. Default 1",
						},
						"hypothesis": map[string]interface{}{
							"type":        "string",
							"description": "What feature/workflow you think this reveals",
						},
					},
					"required": []string{"starting_node", "hypothesis"},
				},
			},
		},
		{
			Type: "function",
			Function: adapter.FunctionDefinition{
				Name:        ToolFinalAnswer,
				Description: "Provide the final answer to the user. ALWAYS include relevant files or function names in the answer. These hints will be used by the next model to actually build the feature.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"answer": map[string]interface{}{
							"type": "string",
						},
					},
					"required": []string{"answer"},
				},
			},
		},
	}
}
