package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"salonpro-scheduler/models"
	"salonpro-scheduler/services"
	"salonpro-scheduler/utils"
)

type WaitlistInput struct {
	CustomerID         uuid.UUID     `json:"customerId" binding:"required"`
	StaffID            uuid.UUID     `json:"staffId" binding:"required"`
	BranchID           uuid.UUID     `json:"branchId"`
	PreferredDate      models.Date   `json:"preferredDate"`
	PreferredStartTime *models.Clock `json:"preferredStartTime" binding:"required"`
	PreferredEndTime   *models.Clock `json:"preferredEndTime" binding:"required"`
	FlexibleDays       int           `json:"flexibleDays"`
	FlexibleHours      int           `json:"flexibleHours"`
	Priority           int           `json:"priority"`
	Notes              string        `json:"notes"`
	ServiceIDs         []uuid.UUID   `json:"serviceIds"`
}

type ConvertInput struct {
	Date      models.Date   `json:"date"`
	StartTime *models.Clock `json:"startTime" binding:"required"`
	EndTime   *models.Clock `json:"endTime"`
}

type RemoveInput struct {
	Reason string `json:"reason"`
}

type WaitlistController struct {
	svc    *services.SchedulingService
	logger zerolog.Logger
}

func NewWaitlistController(svc *services.SchedulingService, logger zerolog.Logger) *WaitlistController {
	return &WaitlistController{svc: svc, logger: logger}
}

func (wc *WaitlistController) AddToWaitlist(c *gin.Context) {
	var input WaitlistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	branch, ok := branchOr(c, input.BranchID)
	if !ok {
		return
	}
	entry, err := wc.svc.AddToWaitlist(c.Request.Context(), services.WaitlistRequest{
		CustomerID:         input.CustomerID,
		StaffID:            input.StaffID,
		BranchID:           branch,
		PreferredDate:      input.PreferredDate,
		PreferredStartTime: *input.PreferredStartTime,
		PreferredEndTime:   *input.PreferredEndTime,
		FlexibleDays:       input.FlexibleDays,
		FlexibleHours:      input.FlexibleHours,
		Priority:           input.Priority,
		Notes:              input.Notes,
		ServiceIDs:         input.ServiceIDs,
	})
	if err != nil {
		respondError(c, wc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// load fetches the :id entry when it belongs to the caller's branch.
func (wc *WaitlistController) load(c *gin.Context) (*models.WaitlistEntry, bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil, false
	}
	entry, err := wc.svc.GetWaitlistEntry(c.Request.Context(), id)
	if err != nil {
		respondError(c, wc.logger, err)
		return nil, false
	}
	if !inBranch(c, entry.BranchID, "Waitlist entry") {
		return nil, false
	}
	return entry, true
}

func (wc *WaitlistController) GetEntry(c *gin.Context) {
	entry, ok := wc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (wc *WaitlistController) ListStaffWaitlist(c *gin.Context) {
	staffID, ok := staffParam(c, wc.svc, wc.logger)
	if !ok {
		return
	}
	entries, err := wc.svc.ListWaitlist(c.Request.Context(), staffID)
	if err != nil {
		respondError(c, wc.logger, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(entries))
}

func (wc *WaitlistController) ListCustomerWaitlist(c *gin.Context) {
	customerID, ok := uuidParam(c, "customerId")
	if !ok {
		return
	}
	branch, ok := branchID(c)
	if !ok {
		return
	}
	entries, err := wc.svc.ListCustomerWaitlist(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, wc.logger, err)
		return
	}
	own := entries[:0]
	for _, e := range entries {
		if e.BranchID == branch {
			own = append(own, e)
		}
	}
	c.JSON(http.StatusOK, nonNil(own))
}

// ConvertToAppointment books the waitlisted services at the given time
func (wc *WaitlistController) ConvertToAppointment(c *gin.Context) {
	current, ok := wc.load(c)
	if !ok {
		return
	}
	var input ConvertInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	appt, err := wc.svc.ConvertWaitlistToAppointment(c.Request.Context(), current.ID, input.Date, *input.StartTime, input.EndTime)
	if err != nil {
		respondError(c, wc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (wc *WaitlistController) RemoveFromWaitlist(c *gin.Context) {
	current, ok := wc.load(c)
	if !ok {
		return
	}
	input := RemoveInput{Reason: c.Query("reason")}
	if !bindOptionalJSON(c, &input) {
		return
	}
	entry, err := wc.svc.RemoveFromWaitlist(c.Request.Context(), current.ID, input.Reason)
	if err != nil {
		respondError(c, wc.logger, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (wc *WaitlistController) Stats(c *gin.Context) {
	branch, ok := branchParam(c)
	if !ok {
		return
	}
	stats, err := wc.svc.WaitlistStats(c.Request.Context(), branch)
	if err != nil {
		respondError(c, wc.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func nonNil(entries []models.WaitlistEntry) []models.WaitlistEntry {
	if entries == nil {
		return []models.WaitlistEntry{}
	}
	return entries
}
