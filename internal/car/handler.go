// File: internal/car/handler.go
package car

import (
	"errors"
	"strconv"
	"strings"

	"startdrive_backend/internal/common"
	"startdrive_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for car handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new car handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for car listing operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	carGroup := router.Group("/cars")
	{
		carGroup.GET("", h.searchCars)
		carGroup.GET("/recent", h.getRecentCars)
		carGroup.GET("/compare", h.compareCars)
		carGroup.GET("/:car_id", h.getCarByID)

		authedCarGroup := carGroup.Group("")
		authedCarGroup.Use(authMW)
		{
			authedCarGroup.POST("", h.createCar)
			authedCarGroup.PUT("/:car_id", h.updateCar)
			authedCarGroup.POST("/:car_id/mark-sold", h.markCarSold)
			authedCarGroup.POST("/:car_id/images", h.uploadCarImages)
			authedCarGroup.GET("/my-cars", h.getMyCars)
		}
	}
}

func (h *Handler) searchCars(c *gin.Context) {
	var query CarSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid search parameters."))
		return
	}

	cars, pagination, err := h.service.SearchCars(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Cars retrieved successfully.", h.service.ToResponses(cars), pagination)
}

func (h *Handler) getRecentCars(c *gin.Context) {
	limit := common.DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid limit parameter."))
			return
		}
		limit = parsed
	}

	cars, err := h.service.GetRecentCars(c.Request.Context(), limit)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Recent cars retrieved successfully.", h.service.ToResponses(cars))
}

// compareCars accepts a comma-separated ids query parameter and returns the
// requested cars in the order they were asked for.
func (h *Handler) compareCars(c *gin.Context) {
	rawIDs := strings.Split(c.Query("ids"), ",")
	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid car ID format: "+raw))
			return
		}
		ids = append(ids, id)
	}

	cars, err := h.service.CompareCars(c.Request.Context(), ids)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Cars retrieved for comparison.", h.service.ToResponses(cars))
}

func (h *Handler) getCarByID(c *gin.Context) {
	carID, err := uuid.Parse(c.Param("car_id"))
	if err != nil {
		// Fall back to slug lookup for pretty URLs.
		foundCar, slugErr := h.service.GetCarBySlug(c.Request.Context(), c.Param("car_id"))
		if slugErr != nil {
			common.RespondWithError(c, common.ErrNotFound.WithDetails("Car listing not found."))
			return
		}
		resp := h.service.ToResponse(foundCar)
		common.RespondOK(c, "Car retrieved successfully.", resp)
		return
	}

	foundCar, err := h.service.GetCarByID(c.Request.Context(), carID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Car retrieved successfully.", h.service.ToResponse(foundCar))
}

func (h *Handler) createCar(c *gin.Context) {
	sellerID := middleware.GetUserIDFromContext(c)
	if sellerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req CreateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	createdCar, err := h.service.CreateCar(c.Request.Context(), sellerID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Car listing created successfully.", h.service.ToResponse(createdCar))
}

func (h *Handler) updateCar(c *gin.Context) {
	sellerID := middleware.GetUserIDFromContext(c)
	if sellerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	carID, err := uuid.Parse(c.Param("car_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid car ID format."))
		return
	}

	var req UpdateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	updatedCar, err := h.service.UpdateCar(c.Request.Context(), carID, sellerID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Car listing updated successfully.", h.service.ToResponse(updatedCar))
}

func (h *Handler) markCarSold(c *gin.Context) {
	sellerID := middleware.GetUserIDFromContext(c)
	if sellerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	carID, err := uuid.Parse(c.Param("car_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid car ID format."))
		return
	}

	soldCar, err := h.service.MarkCarSold(c.Request.Context(), carID, sellerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Car listing marked as sold.", h.service.ToResponse(soldCar))
}

func (h *Handler) uploadCarImages(c *gin.Context) {
	sellerID := middleware.GetUserIDFromContext(c)
	if sellerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	carID, err := uuid.Parse(c.Param("car_id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid car ID format."))
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid multipart form."))
		return
	}
	files := form.File["images"]

	updatedCar, err := h.service.AddCarImages(c.Request.Context(), carID, sellerID, files)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Images uploaded successfully.", h.service.ToResponse(updatedCar))
}

func (h *Handler) getMyCars(c *gin.Context) {
	sellerID := middleware.GetUserIDFromContext(c)
	if sellerID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var pq common.PaginationQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid pagination parameters."))
		return
	}

	cars, pagination, err := h.service.GetSellerCars(c.Request.Context(), sellerID, pq.Page, pq.Limit())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Your listings retrieved successfully.", h.service.ToResponses(cars), pagination)
}
