package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"codeatlas/internal/graph"
)

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
}

func TestAskEndpoint_InvalidRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Mock endpoint
	router.POST("/ask", func(c *gin.Context) {
		var req struct {
			Question string `json:"question" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"job_id": "x"})
	})

	// Test missing fields
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/ask", bytes.NewBuffer([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpandOptionsFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	makeContext := func(query string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request, _ = http.NewRequest("GET", "/map?"+query, nil)
		return c
	}

	opts, err := expandOptionsFromQuery(makeContext("node_type=Function&name=handler&depth=3"))
	assert.NoError(t, err)
	assert.Equal(t, graph.KindFunction, opts.Kind)
	assert.Equal(t, "handler", opts.Name)
	assert.Equal(t, 3, opts.Depth)
	assert.Equal(t, graph.DirectionDown, opts.Direction)

	opts, err = expandOptionsFromQuery(makeContext("ref_id=abc&direction=up"))
	assert.NoError(t, err)
	assert.Equal(t, "abc", opts.RefID)
	assert.Equal(t, graph.DirectionUp, opts.Direction)

	// Missing start node entirely
	_, err = expandOptionsFromQuery(makeContext("depth=2"))
	assert.Error(t, err)

	// Bad depth
	_, err = expandOptionsFromQuery(makeContext("ref_id=abc&depth=zero"))
	assert.Error(t, err)
}

func TestSplitNonEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitNonEmpty("a, b"))
	assert.Equal(t, []string{"a"}, splitNonEmpty("a,,"))
	assert.Nil(t, splitNonEmpty(""))
}

func TestTouchedFiles(t *testing.T) {
	files := touchedFiles([]graph.Node{
		{File: "a.go"},
		{File: "b.go"},
		{File: "a.go"},
		{File: ""},
	})
	assert.Equal(t, []string{"a.go", "b.go"}, files)
}

func TestStatusEndpoint_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Mock endpoint
	router.GET("/status/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/status/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
