package handlers

import (
	"net/http"

	"car_repair_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// IntakeHandler serves the reception desk.
type IntakeHandler struct {
	workflow services.WorkflowService
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(ws services.WorkflowService) *IntakeHandler {
	return &IntakeHandler{workflow: ws}
}

// ListIntakes returns every intake plus today's count against the daily cap.
func (h *IntakeHandler) ListIntakes(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	dashboard, err := h.workflow.ListIntakes(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err, "ListIntakes", "Failed to fetch intakes.")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// CreateIntake registers an arriving car.
func (h *IntakeHandler) CreateIntake(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req services.IntakeRequest
	if !bindJSON(c, &req, "CreateIntake") {
		return
	}
	slip, err := h.workflow.CreateIntake(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, err, "CreateIntake", "Failed to create intake.")
		return
	}
	c.JSON(http.StatusCreated, slip)
}

// GetIntake returns an intake with its repair and line items.
func (h *IntakeHandler) GetIntake(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.workflow.GetIntake(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err, "GetIntake", "Failed to fetch intake.")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateIntake edits the car, owner and complaint of an intake.
func (h *IntakeHandler) UpdateIntake(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.IntakeRequest
	if !bindJSON(c, &req, "UpdateIntake") {
		return
	}
	slip, err := h.workflow.UpdateIntake(c.Request.Context(), actor, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateIntake", "Failed to update intake.")
		return
	}
	c.JSON(http.StatusOK, slip)
}
