// File: internal/favorite/handler.go
package favorite

import (
	"startdrive_backend/internal/common"
	"startdrive_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for favorite handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new favorite handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for favorite operations. Every route
// requires authentication; anonymous visitors get 401 and the client shows
// its sign-in prompt.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	favoriteGroup := router.Group("/favorites")
	favoriteGroup.Use(authMW)
	{
		favoriteGroup.GET("", h.getFavorites)
		favoriteGroup.GET("/ids", h.getFavoriteIDs)
		favoriteGroup.POST("/:car_id/toggle", h.toggleFavorite)
	}
}

func (h *Handler) toggleFavorite(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	carID, err := uuid.Parse(c.Param("car_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid car ID format."))
		return
	}

	result, err := h.service.Toggle(c.Request.Context(), userID, carID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, result.Message, result)
}

func (h *Handler) getFavoriteIDs(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	ids, err := h.service.GetFavoriteCarIDs(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Favorite car IDs retrieved successfully.", gin.H{"car_ids": ids})
}

func (h *Handler) getFavorites(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var pq common.PaginationQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid pagination parameters."))
		return
	}

	favorites, pagination, err := h.service.GetFavorites(c.Request.Context(), userID, pq.Page, pq.Limit())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Favorites retrieved successfully.", favorites, pagination)
}
