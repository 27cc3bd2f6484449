package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/wealthai-labs/crm-gateway/internal/db"
	"github.com/wealthai-labs/crm-gateway/internal/llm"
	"github.com/wealthai-labs/crm-gateway/internal/prompt"
	"github.com/wealthai-labs/crm-gateway/internal/registry"
	"github.com/wealthai-labs/crm-gateway/internal/tools"
)

// main is the composition root: it loads configuration, constructs every
// service with its dependencies injected, registers the tool pipelines,
// and runs the HTTP server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := GetBuildInfo()
	log.Printf("Starting CRM Gateway | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Configuration error: %v", err)
	}
	log.Println("Configuration loaded.")

	// Prompt cache is optional; the prompt store works uncached without it.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("FATAL: Could not connect to Redis: %v", err)
		}
		log.Println("Redis prompt cache connected.")
	}

	executor, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer executor.Close()
	log.Println("Database connected.")

	llmClient, err := initializeLLMClient(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	gateway := llm.NewGateway(llmClient, llm.GatewayConfig{
		Timeout:     cfg.LLMTimeout(),
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	promptStore := prompt.NewStore(cfg.PromptStoreURL, rdb)

	manager := initializeToolManager(tools.Deps{
		LLM:     gateway,
		Prompts: promptStore,
		DB:      executor,
	}, cfg)

	var reg *registry.Client
	if cfg.RegistryURL != "" {
		reg = registry.NewClient(cfg.RegistryURL, cfg.Server.Name)
	}

	handler := NewGatewayHandler(manager, reg, cfg)
	log.Println("All services initialized.")

	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := gin.Default()
	engine.POST("/mcp", handler.HandleMCP)
	engine.GET("/health", handler.HandleHealth)
	engine.GET("/tools", handler.HandleTools)
	engine.GET("/tools/descriptions", handler.HandleToolDescriptions)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(srv)
}

// initializeLLMClient selects the provider client from config.
func initializeLLMClient(cfg *AppConfig) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "bedrock":
		return llm.NewBedrockClient(context.Background(), llm.BedrockConfig{
			Region:          cfg.BedrockRegion,
			ModelID:         cfg.BedrockModelID,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
			SessionToken:    cfg.AWSSessionToken,
		})
	case "gemini":
		return llm.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModelID)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLMProvider)
	}
}

// initializeToolManager registers the four CRM tool pipelines.
func initializeToolManager(deps tools.Deps, cfg *AppConfig) *tools.Manager {
	manager := tools.NewManager()
	manager.Register(tools.NewBondMaturitySearch(deps))
	manager.Register(tools.NewCustomerHoldings(deps))
	manager.Register(tools.NewCashInflowPrediction(deps, cfg.Fanout.Concurrency))
	manager.Register(tools.NewProductCustomers(deps))
	log.Printf("Tool manager initialized with %d tools.", manager.Count())
	return manager
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("Gateway is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server shutdown failed:", err)
	}
	log.Println("Server exited gracefully.")
}
