package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"salonpro-scheduler/models"
	"salonpro-scheduler/scheduling"
	"salonpro-scheduler/services"
	"salonpro-scheduler/utils"
)

// statusFor maps a scheduling error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrScheduleConflict):
		return http.StatusConflict
	case errors.Is(err, scheduling.ErrDuplicateWaitlistEntry):
		return http.StatusConflict
	case errors.Is(err, scheduling.ErrInvalidStateTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, scheduling.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduling.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger zerolog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		utils.RespondWithError(c, status, "Internal server error")
		return
	}
	msg := err.Error()
	var se *scheduling.Error
	if errors.As(err, &se) {
		msg = se.Message()
	}
	utils.RespondWithError(c, status, msg)
}

// branchID reads the caller's branch from the auth context.
func branchID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("branchId")
	if raw == "" {
		utils.RespondWithError(c, http.StatusUnauthorized, "Branch ID not found in context")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid branch ID format")
		return uuid.Nil, false
	}
	return id, true
}

// branchOr prefers the authenticated branch and falls back to the one in the
// request body for tokens without a branch claim.
func branchOr(c *gin.Context, fromBody uuid.UUID) (uuid.UUID, bool) {
	if raw := c.GetString("branchId"); raw != "" {
		return branchID(c)
	}
	if fromBody == uuid.Nil {
		utils.RespondWithError(c, http.StatusBadRequest, "branchId is required")
		return uuid.Nil, false
	}
	return fromBody, true
}

// inBranch answers 404 unless recordBranch is the caller's branch, so ids
// from other branches look the same as unknown ones.
func inBranch(c *gin.Context, recordBranch uuid.UUID, what string) bool {
	branch, ok := branchID(c)
	if !ok {
		return false
	}
	if branch != recordBranch {
		utils.RespondWithError(c, http.StatusNotFound, what+" not found")
		return false
	}
	return true
}

func branchParam(c *gin.Context) (uuid.UUID, bool) {
	id, ok := uuidParam(c, "branchId")
	if !ok || !inBranch(c, id, "Branch") {
		return uuid.Nil, false
	}
	return id, true
}

// staffParam reads :staffId and requires the staff member to work at the
// caller's branch.
func staffParam(c *gin.Context, svc *services.SchedulingService, logger zerolog.Logger) (uuid.UUID, bool) {
	staffID, ok := uuidParam(c, "staffId")
	if !ok {
		return uuid.Nil, false
	}
	branch, ok := branchID(c)
	if !ok {
		return uuid.Nil, false
	}
	if _, err := svc.GetStaff(c.Request.Context(), branch, staffID); err != nil {
		respondError(c, logger, err)
		return uuid.Nil, false
	}
	return staffID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

func dateQuery(c *gin.Context) (models.Date, bool) {
	raw := c.Query("date")
	if raw == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "date query parameter is required")
		return models.Date{}, false
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return models.Date{}, false
	}
	return d, true
}

// intQuery returns def when the parameter is absent.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		utils.RespondWithError(c, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return n, true
}

// bindOptionalJSON binds the body when there is one.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return false
	}
	return true
}
