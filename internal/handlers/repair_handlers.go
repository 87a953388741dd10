package handlers

import (
	"net/http"

	"car_repair_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// RepairHandler serves the technician screens.
type RepairHandler struct {
	workflow services.WorkflowService
}

// NewRepairHandler creates a new RepairHandler.
func NewRepairHandler(ws services.WorkflowService) *RepairHandler {
	return &RepairHandler{workflow: ws}
}

// TechnicianBoard returns the queue and the caller's repairs.
// Optional query: status=repairing|completed.
func (h *RepairHandler) TechnicianBoard(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	board, err := h.workflow.TechnicianBoard(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		respondServiceError(c, err, "TechnicianBoard", "Failed to load technician board.")
		return
	}
	c.JSON(http.StatusOK, board)
}

// StartRepair opens a repair for the intake in the path.
func (h *RepairHandler) StartRepair(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	intakeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	repair, err := h.workflow.StartRepair(c.Request.Context(), actor, intakeID)
	if err != nil {
		respondServiceError(c, err, "StartRepair", "Failed to start repair.")
		return
	}
	c.JSON(http.StatusCreated, repair)
}

func (h *RepairHandler) GetRepair(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	repairID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	repair, err := h.workflow.GetRepair(c.Request.Context(), actor, repairID)
	if err != nil {
		respondServiceError(c, err, "GetRepair", "Failed to fetch repair.")
		return
	}
	c.JSON(http.StatusOK, repair)
}

func (h *RepairHandler) AddLineItem(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	repairID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.LineItemRequest
	if !bindJSON(c, &req, "AddLineItem") {
		return
	}
	item, err := h.workflow.AddLineItem(c.Request.Context(), actor, repairID, req)
	if err != nil {
		respondServiceError(c, err, "AddLineItem", "Failed to add line item.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *RepairHandler) UpdateLineItem(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateLineItemRequest
	if !bindJSON(c, &req, "UpdateLineItem") {
		return
	}
	item, err := h.workflow.UpdateLineItem(c.Request.Context(), actor, itemID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateLineItem", "Failed to update line item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *RepairHandler) DeleteLineItem(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	repairID, err := h.workflow.DeleteLineItem(c.Request.Context(), actor, itemID)
	if err != nil {
		respondServiceError(c, err, "DeleteLineItem", "Failed to delete line item.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Line item deleted successfully", "repair_slip_id": repairID})
}

func (h *RepairHandler) FinishRepair(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	repairID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	repair, err := h.workflow.FinishRepair(c.Request.Context(), actor, repairID)
	if err != nil {
		respondServiceError(c, err, "FinishRepair", "Failed to finish repair.")
		return
	}
	c.JSON(http.StatusOK, repair)
}
