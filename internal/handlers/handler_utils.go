package handlers

import (
	"errors"
	"net/http"

	"car_repair_backend/internal/models"
	"car_repair_backend/internal/services"
	"car_repair_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by middleware.AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextUserRole = "userRole"
)

// actorFromContext builds the service actor from the JWT claims. It writes a
// 401 and returns false when the claims are missing.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	userIDRaw, exists := c.Get(ContextUserID)
	userID, ok := userIDRaw.(int64)
	if !exists || !ok {
		utils.LogError(errors.New("userID not found in context"), "actorFromContext: missing or malformed userID")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return models.Actor{}, false
	}
	roleRaw, _ := c.Get(ContextUserRole)
	role, ok := roleRaw.(models.Role)
	if !ok {
		utils.LogError(errors.New("userRole not found in context"), "actorFromContext: missing or malformed role")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing role in context"))
		return models.Actor{}, false
	}
	return models.Actor{UserID: userID, Role: role}, true
}

// parseIDParam reads a positive integer path parameter, answering 400 otherwise.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToPositiveInt64(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" format.", err.Error()))
		return 0, false
	}
	return id, true
}

// bindJSON binds the request body, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogError(err, op+": Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return false
	}
	return true
}

// respondServiceError maps service error kinds onto the API error codes.
func respondServiceError(c *gin.Context, err error, op, failure string) {
	utils.LogError(err, op+": service error")
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed.", err.Error()))
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrUserNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Resource not found.", err.Error()))
	case errors.Is(err, services.ErrForbidden):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have permission to perform this action.", err.Error()))
	case errors.Is(err, services.ErrCapacityExceeded):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeCapacityExceeded, "The shop has reached today's intake limit.", err.Error()))
	case errors.Is(err, services.ErrDuplicateInvoice):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeDuplicateInvoice, "This repair has already been paid.", err.Error()))
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrRepairAlreadyStarted):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidTransition, "The intake is not in a state that allows this action.", err.Error()))
	case errors.Is(err, services.ErrLineItemsLocked):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeLineItemsLocked, "Line items can no longer be changed.", err.Error()))
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrUsernameExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A conflicting record already exists.", err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, failure, "Internal error"))
	}
}
