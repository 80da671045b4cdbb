package routes

import (
	"log"
	"os"
	"strconv"
	"time"

	_ "urbanstyle_assistant/docs" // This will be auto-generated
	"urbanstyle_assistant/internal/adapter/http/handlers"
	"urbanstyle_assistant/internal/adapter/persistence/memory"
	repository2 "urbanstyle_assistant/internal/adapter/persistence/repository"
	"urbanstyle_assistant/internal/infrastructure/database"
	"urbanstyle_assistant/internal/infrastructure/llm"
	"urbanstyle_assistant/internal/infrastructure/rates"
	"urbanstyle_assistant/internal/usecase"
	"urbanstyle_assistant/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var router = gin.Default()

const PORT = 8080

// Run will start the server
func Run() {
	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	getRoutes()

	err := router.Run(":" + strconv.Itoa(PORT))
	if err != nil {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

func getRoutes() {
	ddb := database.ConnectDynamoDB()
	invoiceRepo := repository2.NewInvoiceDynamoRepository(ddb)

	var gateway interfaces.ICompletionGateway
	llmGateway, err := llm.NewCompletionGateway(llm.ConfigFromEnv())
	if err != nil {
		log.Printf("Completion gateway not configured: %v", err)
	} else {
		gateway = llmGateway
	}

	var rateSource interfaces.IRateSource
	ratesGateway, err := rates.NewExchangeRateGateway(os.Getenv("RATES_ENDPOINT"))
	if err != nil {
		log.Printf("Exchange rate gateway not configured: %v", err)
	} else {
		rateSource = ratesGateway
	}

	sessions := memory.NewSessionStore(envMinutes("SESSION_TTL_MINUTES", 30))
	currency := usecase.NewCurrencyUseCase(rateSource, envMinutes("RATE_TTL_MINUTES", 30))
	retriever := usecase.NewKnowledgeRetriever(usecase.DefaultFAQCorpus())
	extractor := usecase.NewFieldExtractor(gateway)

	assistant := usecase.NewAssistantUseCase(sessions, extractor, gateway, retriever, currency, invoiceRepo, usecase.AssistantConfig{
		BaseCurrency: getenvDefault("BASE_CURRENCY", "INR"),
	})

	assistantHandler := handlers.NewAssistantHandler(assistant)

	// Public routes
	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addAssistantRoutes(v1, assistantHandler)
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}

func envMinutes(key string, def int) time.Duration {
	if v, err := strconv.Atoi(getenvDefault(key, "")); err == nil && v > 0 {
		return time.Duration(v) * time.Minute
	}
	return time.Duration(def) * time.Minute
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
