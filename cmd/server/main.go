package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"codeatlas/internal/adapter"
	"codeatlas/internal/codemap"
	"codeatlas/internal/explore"
	"codeatlas/internal/graph"
	"codeatlas/internal/intelligence"
	"codeatlas/internal/store"
	"codeatlas/internal/tokens"
	"codeatlas/pkg/config"
	"codeatlas/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting code graph API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Initialize dependencies
	graphRepo := graph.NewRepository(driver)
	llmAdapter := adapter.NewLLMAdapter(cfg.LiteLLMURL, cfg.OpenRouterAPIKey, cfg.ModelID)
	embedder := adapter.NewEmbeddingAdapter(cfg.LiteLLMURL, cfg.OpenRouterAPIKey, cfg.EmbeddingModel)
	counter := tokens.NewBudgeter("cl100k_base")
	explorer := explore.NewExplorer(graphRepo, llmAdapter, counter, explore.Options{
		MaxSteps: cfg.ExploreMaxSteps,
		Timeout:  time.Duration(cfg.ExploreTimeoutSeconds) * time.Second,
	})
	cache := intelligence.NewCache(graphRepo, embedder, explorer, llmAdapter)
	jobs := store.NewJobStore(0)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Token-annotated tree view of a subgraph
	router.GET("/map", func(c *gin.Context) {
		opts, err := expandOptionsFromQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		traversal, err := graphRepo.PathExpand(c.Request.Context(), opts)
		if err != nil {
			log.Error("Failed to expand paths", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build map"})
			return
		}

		tree := codemap.BuildTree(traversal, counter)
		c.JSON(http.StatusOK, gin.H{
			"map":          codemap.Render(tree),
			"total_tokens": tree.TotalTokens,
		})
	})

	// Concatenated source snippets for a subgraph
	router.GET("/code", func(c *gin.Context) {
		opts, err := expandOptionsFromQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		traversal, err := graphRepo.PathExpand(c.Request.Context(), opts)
		if err != nil {
			log.Error("Failed to expand paths", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to extract code"})
			return
		}

		// Import sections ride along with the components that use them
		nodes := traversal.Nodes
		if imports, err := graphRepo.ImportsForFiles(c.Request.Context(), touchedFiles(nodes)); err != nil {
			log.Warn("Failed to fetch imports for code bundle", zap.Error(err))
		} else {
			nodes = append(nodes, imports...)
		}

		snippets := codemap.ExtractSnippets(nodes, codemap.SnippetOptions{
			IncludeTests: c.Query("tests") == "true",
		})
		c.JSON(http.StatusOK, gin.H{
			"code":        snippets,
			"token_count": counter.Count(snippets),
		})
	})

	// Resolve durable ref ids back to source snippets
	router.GET("/nodes", func(c *gin.Context) {
		refIDs := splitNonEmpty(c.Query("ref_ids"))
		if len(refIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ref_ids is required"})
			return
		}

		nodes, err := graphRepo.NodesByRefIDs(c.Request.Context(), refIDs)
		if err != nil {
			log.Error("Failed to resolve ref ids", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve nodes"})
			return
		}

		snippets := codemap.ExtractSnippets(nodes, codemap.SnippetOptions{IncludeTests: true})
		c.JSON(http.StatusOK, gin.H{"code": snippets})
	})

	// Fulltext search over entity bodies, or vector search with ?similarity=true
	router.GET("/search", func(c *gin.Context) {
		query := c.Query("query")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
			return
		}

		limit := 10
		if l := c.Query("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		var kinds []graph.NodeKind
		if nodeType := c.Query("node_type"); nodeType != "" {
			kinds = append(kinds, graph.KindFromLabels([]string{nodeType}))
		}

		var nodes []graph.Node
		var err error
		if c.Query("similarity") == "true" {
			var embedding []float32
			embedding, err = embedder.Embed(c.Request.Context(), query)
			if err == nil {
				nodes, err = graphRepo.VectorSearch(c.Request.Context(), kinds, embedding, 0, limit)
			}
		} else {
			nodes, err = graphRepo.FulltextSearch(c.Request.Context(), query, kinds, limit)
		}
		if err != nil {
			log.Error("Search failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"results": nodes})
	})

	// Ask runs asynchronously; poll /status/:id for the answer
	router.POST("/ask", func(c *gin.Context) {
		var req struct {
			Question  string  `json:"question" binding:"required"`
			Persona   string  `json:"persona"`
			Threshold float64 `json:"threshold"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		threshold := req.Threshold
		if threshold == 0 {
			threshold = cfg.SimilarityThreshold
		}

		jobID := jobs.Create()
		go func() {
			jobs.SetRunning(jobID)
			answer, err := cache.Ask(context.Background(), req.Question, intelligence.AskOptions{
				SimilarityThreshold: threshold,
				Persona:             req.Persona,
			})
			if err != nil {
				log.Error("Ask failed", zap.String("job_id", jobID), zap.Error(err))
				jobs.Fail(jobID, err)
				return
			}
			jobs.Complete(jobID, answer)
		}()

		c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
	})

	// Decompose a change request and answer its questions concurrently
	router.POST("/decompose", func(c *gin.Context) {
		var req struct {
			Prompt    string  `json:"prompt" binding:"required"`
			Threshold float64 `json:"threshold"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		threshold := req.Threshold
		if threshold == 0 {
			threshold = cfg.SimilarityThreshold
		}

		jobID := jobs.Create()
		go func() {
			jobs.SetRunning(jobID)
			result, err := cache.DecomposeAndAsk(context.Background(), req.Prompt, threshold)
			if err != nil {
				log.Error("Decompose failed", zap.String("job_id", jobID), zap.Error(err))
				jobs.Fail(jobID, err)
				return
			}
			jobs.Complete(jobID, result)
		}()

		c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
	})

	// Generate persona siblings for hints that lack them
	router.POST("/persona_variants", func(c *gin.Context) {
		jobID := jobs.Create()
		go func() {
			jobs.SetRunning(jobID)
			created, err := cache.GeneratePersonaVariants(context.Background())
			if err != nil {
				log.Error("Persona variant pass failed", zap.String("job_id", jobID), zap.Error(err))
				jobs.Fail(jobID, err)
				return
			}
			jobs.Complete(jobID, gin.H{"created": created})
		}()

		c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
	})

	// Seed the hint base with canonical architecture questions
	router.POST("/seed", func(c *gin.Context) {
		jobID := jobs.Create()
		go func() {
			jobs.SetRunning(jobID)
			answers, err := cache.Seed(context.Background(), cfg.SimilarityThreshold)
			if err != nil {
				log.Error("Seed failed", zap.String("job_id", jobID), zap.Error(err))
				jobs.Fail(jobID, err)
				return
			}
			jobs.Complete(jobID, answers)
		}()

		c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
	})

	// Poll job state
	router.GET("/status/:id", func(c *gin.Context) {
		job, ok := jobs.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusOK, job)
	})

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// touchedFiles collects the distinct file paths referenced by a node set
func touchedFiles(nodes []graph.Node) []string {
	seen := make(map[string]bool)
	var files []string
	for _, n := range nodes {
		if n.File != "" && !seen[n.File] {
			seen[n.File] = true
			files = append(files, n.File)
		}
	}
	return files
}

func splitNonEmpty(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// expandOptionsFromQuery parses the shared start-node query parameters used
// by /map and /code
func expandOptionsFromQuery(c *gin.Context) (graph.ExpandOptions, error) {
	opts := graph.ExpandOptions{
		Name:  c.Query("name"),
		RefID: c.Query("ref_id"),
	}

	if nodeType := c.Query("node_type"); nodeType != "" {
		opts.Kind = graph.KindFromLabels([]string{nodeType})
	}
	if opts.RefID == "" && (opts.Kind == "" || opts.Name == "") {
		return opts, fmt.Errorf("either ref_id or node_type+name is required")
	}

	opts.Direction = graph.DirectionDown
	if c.Query("direction") == string(graph.DirectionUp) {
		opts.Direction = graph.DirectionUp
	}

	if depth := c.Query("depth"); depth != "" {
		d, err := strconv.Atoi(depth)
		if err != nil || d < 1 {
			return opts, fmt.Errorf("invalid depth %q", depth)
		}
		opts.Depth = d
	}

	return opts, nil
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
