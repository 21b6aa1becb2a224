package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/httpresp"
	"github.com/appointly/scheduler/internal/middleware"
	"github.com/appointly/scheduler/internal/models"
)

type MeHandler struct {
	db   *gorm.DB
	repo domain.Repository
}

func NewMeHandler(db *gorm.DB, repo domain.Repository) *MeHandler {
	return &MeHandler{db: db, repo: repo}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	userIDVal, exists := c.Get(middleware.ContextUserID)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_not_in_context"})
		return
	}

	userID, ok := userIDVal.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_user_id_type"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user_not_found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":          user.ID,
			"name":        user.Name,
			"email":       user.Email,
			"role":        user.Role,
			"customer_id": user.CustomerID,
			"provider_id": user.ProviderID,
		},
	})
}

// GetBookings lists the requesting customer's own bookings.
func (h *MeHandler) GetBookings(c *gin.Context) {
	customerID := middleware.RequesterCustomerID(c)
	if customerID == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "customer_token_required"})
		return
	}

	bookings, err := h.repo.ListCustomerBookings(c.Request.Context(), *customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "bookings_list_failed"})
		return
	}

	httpresp.List(c, bookings)
}
