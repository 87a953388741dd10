package handlers

import (
	"net/http"

	"car_repair_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// ComponentHandler serves the spare-part catalog.
type ComponentHandler struct {
	components services.ComponentService
	workflow   services.WorkflowService
}

// NewComponentHandler creates a new ComponentHandler.
func NewComponentHandler(cs services.ComponentService, ws services.WorkflowService) *ComponentHandler {
	return &ComponentHandler{components: cs, workflow: ws}
}

// GetComponents handles fetching all active components.
func (h *ComponentHandler) GetComponents(c *gin.Context) {
	components, err := h.components.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetComponents", "Failed to fetch components.")
		return
	}
	c.JSON(http.StatusOK, components)
}

// GetComponentByID handles fetching a single active component.
func (h *ComponentHandler) GetComponentByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	component, err := h.components.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetComponentByID", "Failed to fetch component.")
		return
	}
	c.JSON(http.StatusOK, component)
}

// CreateComponent handles creation of a new component.
func (h *ComponentHandler) CreateComponent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req services.CreateComponentRequest
	if !bindJSON(c, &req, "CreateComponent") {
		return
	}
	component, err := h.components.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateComponent", "Failed to create component.")
		return
	}
	c.JSON(http.StatusCreated, component)
}

// UpdateComponent handles updating an existing component.
func (h *ComponentHandler) UpdateComponent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateComponentRequest
	if !bindJSON(c, &req, "UpdateComponent") {
		return
	}
	component, err := h.components.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateComponent", "Failed to update component.")
		return
	}
	c.JSON(http.StatusOK, component)
}

// DeleteComponent soft-deletes a component. Past line items keep referencing it.
func (h *ComponentHandler) DeleteComponent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.components.Delete(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, err, "DeleteComponent", "Failed to delete component.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Component deleted successfully"})
}

// RestockComponent adds stock by name, creating the component if needed.
func (h *ComponentHandler) RestockComponent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req services.RestockRequest
	if !bindJSON(c, &req, "RestockComponent") {
		return
	}
	component, err := h.workflow.RestockComponent(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "RestockComponent", "Failed to restock component.")
		return
	}
	c.JSON(http.StatusOK, component)
}

// BatchUpdatePrices reprices several components at once.
func (h *ComponentHandler) BatchUpdatePrices(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req services.BatchPriceUpdateRequest
	if !bindJSON(c, &req, "BatchUpdatePrices") {
		return
	}
	updated, err := h.components.BatchUpdatePrices(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "BatchUpdatePrices", "Failed to update prices.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
