package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"salonpro-scheduler/models"
	"salonpro-scheduler/services"
	"salonpro-scheduler/utils"
)

type AvailabilityController struct {
	svc    *services.SchedulingService
	logger zerolog.Logger
}

func NewAvailabilityController(svc *services.SchedulingService, logger zerolog.Logger) *AvailabilityController {
	return &AvailabilityController{svc: svc, logger: logger}
}

// GetStaffAvailability splits the day into free and booked slots. An
// explicit slotMinutes returns the raw slot list instead.
func (ac *AvailabilityController) GetStaffAvailability(c *gin.Context) {
	staffID, ok := staffParam(c, ac.svc, ac.logger)
	if !ok {
		return
	}
	date, ok := dateQuery(c)
	if !ok {
		return
	}
	if c.Query("slotMinutes") != "" {
		minutes, ok := intQuery(c, "slotMinutes", 0)
		if !ok {
			return
		}
		slots, err := ac.svc.GenerateSlots(c.Request.Context(), staffID, date, minutes)
		if err != nil {
			respondError(c, ac.logger, err)
			return
		}
		c.JSON(http.StatusOK, slots)
		return
	}
	avail, err := ac.svc.GetStaffAvailability(c.Request.Context(), staffID, date)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

func (ac *AvailabilityController) GetSuggestedSlots(c *gin.Context) {
	staffID, ok := staffParam(c, ac.svc, ac.logger)
	if !ok {
		return
	}
	date, ok := dateQuery(c)
	if !ok {
		return
	}
	duration, ok := intQuery(c, "duration", 60)
	if !ok {
		return
	}
	slots, err := ac.svc.GetSuggestedSlots(c.Request.Context(), staffID, date, duration)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (ac *AvailabilityController) GetBranchAvailability(c *gin.Context) {
	branch, ok := branchParam(c)
	if !ok {
		return
	}
	date, ok := dateQuery(c)
	if !ok {
		return
	}
	avail, err := ac.svc.GetBranchAvailability(c.Request.Context(), branch, date)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

// CheckConflict answers whether startTime-endTime is taken. excludeId skips
// the appointment being moved.
func (ac *AvailabilityController) CheckConflict(c *gin.Context) {
	staffID, ok := staffParam(c, ac.svc, ac.logger)
	if !ok {
		return
	}
	date, ok := dateQuery(c)
	if !ok {
		return
	}
	start, err := models.ParseClock(c.Query("startTime"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid startTime: "+err.Error())
		return
	}
	end, err := models.ParseClock(c.Query("endTime"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid endTime: "+err.Error())
		return
	}
	var exclude *uuid.UUID
	if raw := c.Query("excludeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid excludeId format")
			return
		}
		exclude = &id
	}
	conflict, err := ac.svc.HasConflict(c.Request.Context(), staffID, date, start, end, exclude)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflict": conflict})
}
