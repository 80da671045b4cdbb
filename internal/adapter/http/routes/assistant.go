package routes

import (
	"urbanstyle_assistant/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathChat = "/chat"
)

func addAssistantRoutes(rg *gin.RouterGroup, assistantHandler *handlers.AssistantHandler) {
	chat := rg.Group(PathChat)
	{
		chat.POST("", assistantHandler.Chat)
		chat.DELETE("/:session_id", assistantHandler.ResetSession)
	}
}
