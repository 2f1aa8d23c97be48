package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ExtractRequest represents a document submitted for field extraction
type ExtractRequest struct {
	Filename      string `json:"filename" binding:"required"`
	ContentBase64 string `json:"content_base64" binding:"required"`
}

// ExtractResponse represents the extracted invoice fields
type ExtractResponse struct {
	IsInvoice   bool      `json:"is_invoice"`
	Issuer      string    `json:"issuer"`
	Amount      string    `json:"amount"`
	Date        string    `json:"date"`
	Currency    string    `json:"currency"`
	Reason      string    `json:"reason,omitempty"`
	ProviderID  string    `json:"provider_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status      string    `json:"status"`
	ProviderID  string    `json:"provider_id"`
	Timestamp   time.Time `json:"timestamp"`
	SuccessRate float64   `json:"success_rate"`
}

// MockExtractor simulates a document extraction provider. It runs a crude
// text scan over the payload so responses stay deterministic for a given
// document, with configurable latency and failure rate on top.
type MockExtractor struct {
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	providerID  string
	rng         *rand.Rand
}

var (
	amountPattern   = regexp.MustCompile(`(?i)(?:total|amount|due)[^0-9]{0,10}([0-9]+(?:[.,][0-9]{2})?)`)
	datePattern     = regexp.MustCompile(`\b([0-9]{4}-[0-9]{2}-[0-9]{2}|[0-9]{2}/[0-9]{2}/[0-9]{4})\b`)
	currencyPattern = regexp.MustCompile(`\b(GBP|EUR|USD|CHF)\b`)
	issuerPattern   = regexp.MustCompile(`(?i)(?:from|issued by|supplier)[:\s]+([A-Za-z][A-Za-z0-9 &.\-]{2,40})`)
)

// NewMockExtractor creates a new mock extractor instance
func NewMockExtractor(successRate float64, minDelay, maxDelay time.Duration) *MockExtractor {
	return &MockExtractor{
		successRate: successRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		providerID:  "MOCK_EXTRACTOR_" + uuid.New().String()[:8],
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// extract simulates the document analysis process
func (m *MockExtractor) extract(req *ExtractRequest, content []byte) *ExtractResponse {
	// Simulate provider latency
	time.Sleep(m.randomDelay())

	text := string(content)
	response := &ExtractResponse{
		ProviderID:  m.providerID,
		ProcessedAt: time.Now(),
	}

	if !strings.Contains(strings.ToLower(text), "invoice") {
		response.Reason = "document does not look like an invoice"
		log.Info().
			Str("filename", req.Filename).
			Msg("Document rejected, no invoice markers")
		return response
	}

	response.IsInvoice = true

	if match := issuerPattern.FindStringSubmatch(text); match != nil {
		response.Issuer = strings.TrimSpace(match[1])
	} else {
		response.Issuer = "Unknown"
	}
	if match := amountPattern.FindStringSubmatch(text); match != nil {
		response.Amount = strings.ReplaceAll(match[1], ",", ".")
	}
	if match := datePattern.FindStringSubmatch(text); match != nil {
		response.Date = match[1]
	}
	if match := currencyPattern.FindStringSubmatch(text); match != nil {
		response.Currency = match[1]
	}

	log.Info().
		Str("filename", req.Filename).
		Str("issuer", response.Issuer).
		Str("amount", response.Amount).
		Msg("Document extracted")

	return response
}

func (m *MockExtractor) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	randomDelta := time.Duration(m.rng.Int63n(int64(delta)))
	return m.minDelay + randomDelta
}

func (m *MockExtractor) shouldSucceed() bool {
	return m.rng.Float64() < m.successRate
}

// Handler struct holds the mock extractor and routes
type Handler struct {
	extractor *MockExtractor
}

func NewHandler(extractor *MockExtractor) *Handler {
	return &Handler{extractor: extractor}
}

// Extract handles document extraction requests
func (h *Handler) Extract(c *gin.Context) {
	var req ExtractRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": "content_base64 is not valid base64",
		})
		return
	}

	log.Info().
		Str("filename", req.Filename).
		Int("size", len(content)).
		Msg("Received extraction request")

	// Simulate transient provider failures
	if !h.extractor.shouldSucceed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Extraction backend temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, h.extractor.extract(&req, content))
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	// Simulate 5% downtime
	if h.extractor.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Extractor temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		ProviderID:  h.extractor.providerID,
		Timestamp:   time.Now(),
		SuccessRate: h.extractor.successRate,
	})
}

// UpdateConfig allows changing extractor configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		SuccessRate *float64 `json:"success_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.SuccessRate != nil {
		if *config.SuccessRate >= 0 && *config.SuccessRate <= 1.0 {
			h.extractor.successRate = *config.SuccessRate
			log.Info().Float64("rate", *config.SuccessRate).Msg("Updated success rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Configuration updated",
		"success_rate": h.extractor.successRate,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/documents/extract", handler.Extract)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	// Root health check
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8081")
	successRate := getEnvFloat("SUCCESS_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 200*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 2*time.Second)

	log.Info().
		Str("port", port).
		Float64("success_rate", successRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mock Document Extractor")

	// Create mock extractor
	extractor := NewMockExtractor(successRate, minDelay, maxDelay)
	handler := NewHandler(extractor)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
