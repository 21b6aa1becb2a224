package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/appointly/scheduler/internal/domain/entities"
	"github.com/appointly/scheduler/internal/httperr"
	"github.com/appointly/scheduler/internal/httpresp"
	entitiesuc "github.com/appointly/scheduler/internal/usecase/entities"
)

// ======================================================
// HANDLER
// ======================================================

type EntitiesHandler struct {
	entities *entitiesuc.GetEntities
}

func NewEntitiesHandler(uc *entitiesuc.GetEntities) *EntitiesHandler {
	return &EntitiesHandler{entities: uc}
}

// List serves the browse catalog filtered by an optional selection. Every
// query parameter is optional; an empty selection returns everything
// bookable.
func (h *EntitiesHandler) List(c *gin.Context) {
	sel := entities.Selection{
		CategoryID: uintQuery(c, "category_id"),
		ServiceID:  uintQuery(c, "service_id"),
		ProviderID: uintQuery(c, "provider_id"),
		LocationID: uintQuery(c, "location_id"),
	}

	result, err := h.entities.Execute(c.Request.Context(), entitiesuc.GetEntitiesInput{
		Selection:       sel,
		IncludePackages: c.Query("packages") == "true" || c.Query("packages") == "1",
	})
	if err != nil {
		httperr.Internal(c, "entities_failed", "failed to load entities")
		return
	}

	httpresp.OK(c, result)
}

func uintQuery(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(value)
	return &id
}
