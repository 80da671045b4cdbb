package handlers

import (
	"errors"
	"net/http"

	request "urbanstyle_assistant/internal/adapter/http/dto/request"
	response "urbanstyle_assistant/internal/adapter/http/dto/response"
	"urbanstyle_assistant/internal/usecase"
	"urbanstyle_assistant/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidChatPayload = pkg.NewDomainErrorSimple("INVALID_CHAT_INPUT", "Message is required", http.StatusBadRequest)
)

// AssistantHandler handles HTTP requests for the conversational assistant.

type AssistantHandler struct {
	usecase usecase.IAssistantUseCase
}

func NewAssistantHandler(uc usecase.IAssistantUseCase) *AssistantHandler {
	return &AssistantHandler{usecase: uc}
}

// Chat handles one conversational turn.
//
//	@Summary      Send a chat message
//	@Description  Classifies the message, updates the session's invoice draft or answers FAQ/currency questions, and returns the assistant reply.
//	@Tags         chat
//	@Accept       json
//	@Produce      json
//	@Param        payload  body      request.ChatRequest  true  "chat turn"
//	@Success      200      {object}  response.ChatResponse
//	@Failure      400      {object}  pkg.HTTPError
//	@Failure      500      {object}  pkg.HTTPError
//	@Router       /chat [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	var payload request.ChatRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidChatPayload.HTTPStatus, errInvalidChatPayload.ToHTTPError())
		return
	}

	reply, err := h.usecase.HandleMessage(c.Request.Context(), payload.ResolveSessionID(), payload.ResolveMessage())
	if err != nil {
		appErr := mapAssistantError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromReply(reply))
}

// ResetSession clears the session's invoice draft, keeping its history.
//
//	@Summary      Reset the invoice draft
//	@Tags         chat
//	@Produce      json
//	@Param        session_id  path      string  true  "session id"
//	@Success      204         "cleared"
//	@Failure      400         {object}  pkg.HTTPError
//	@Router       /chat/{session_id} [delete]
func (h *AssistantHandler) ResetSession(c *gin.Context) {
	if err := h.usecase.ResetSession(c.Param("session_id")); err != nil {
		appErr := mapAssistantError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.Status(http.StatusNoContent)
}

func mapAssistantError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidSessionID), errors.Is(err, usecase.ErrEmptyMessage):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
