// File: internal/chat/handler.go
package chat

import (
	"errors"

	"startdrive_backend/internal/common"
	"startdrive_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for chat handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new chat handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for chat operations. All of them require
// authentication.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	chatGroup := router.Group("/chats")
	chatGroup.Use(authMW)
	{
		chatGroup.POST("", h.startChat)
		chatGroup.GET("", h.getInbox)
		chatGroup.GET("/:chat_id", h.getConversation)
		chatGroup.POST("/:chat_id/messages", h.sendMessage)
	}
}

func (h *Handler) startChat(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req StartChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("car_id is required."))
		return
	}

	summary, err := h.service.StartChat(c.Request.Context(), userID, req.CarID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Chat ready.", summary)
}

func (h *Handler) getInbox(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	inbox, err := h.service.GetInbox(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Chats retrieved successfully.", inbox)
}

func (h *Handler) getConversation(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid chat ID format."))
		return
	}

	conversation, err := h.service.GetConversation(c.Request.Context(), chatID, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Conversation retrieved successfully.", conversation)
}

func (h *Handler) sendMessage(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	chatID, err := uuid.Parse(c.Param("chat_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid chat ID format."))
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("message is required."))
		return
	}

	conversation, err := h.service.SendMessage(c.Request.Context(), chatID, userID, req.Message)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Message sent.", conversation)
}
