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

// AppointmentInput is the body for booking or replacing an appointment.
type AppointmentInput struct {
	CustomerID uuid.UUID     `json:"customerId" binding:"required"`
	StaffID    uuid.UUID     `json:"staffId" binding:"required"`
	BranchID   uuid.UUID     `json:"branchId"`
	Date       models.Date   `json:"date"`
	StartTime  *models.Clock `json:"startTime" binding:"required"`
	EndTime    *models.Clock `json:"endTime"`
	ServiceIDs []uuid.UUID   `json:"serviceIds" binding:"required,min=1"`
	Notes      string        `json:"notes"`
}

type RecurringAppointmentInput struct {
	AppointmentInput
	RecurrencePattern  models.RecurrencePattern `json:"recurrencePattern" binding:"required,oneof=DAILY WEEKLY MONTHLY"`
	RecurrenceInterval int                      `json:"recurrenceInterval" binding:"omitempty,min=1"`
	RecurrenceEndDate  models.Date              `json:"recurrenceEndDate"`
}

type StatusInput struct {
	Status models.AppointmentStatus `json:"status" binding:"required"`
	Reason string                   `json:"reason"`
}

type CancelInput struct {
	Reason string `json:"reason"`
}

type RescheduleInput struct {
	Date      models.Date   `json:"date"`
	StartTime *models.Clock `json:"startTime" binding:"required"`
	EndTime   *models.Clock `json:"endTime"`
}

type AppointmentController struct {
	svc    *services.SchedulingService
	logger zerolog.Logger
}

func NewAppointmentController(svc *services.SchedulingService, logger zerolog.Logger) *AppointmentController {
	return &AppointmentController{svc: svc, logger: logger}
}

func (ac *AppointmentController) request(c *gin.Context, in AppointmentInput) (services.BookingRequest, bool) {
	branch, ok := branchOr(c, in.BranchID)
	if !ok {
		return services.BookingRequest{}, false
	}
	return services.BookingRequest{
		CustomerID: in.CustomerID,
		StaffID:    in.StaffID,
		BranchID:   branch,
		Date:       in.Date,
		StartTime:  *in.StartTime,
		EndTime:    in.EndTime,
		ServiceIDs: in.ServiceIDs,
		Notes:      in.Notes,
	}, true
}

// load fetches the :id appointment when it belongs to the caller's branch.
func (ac *AppointmentController) load(c *gin.Context) (*models.Appointment, bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return nil, false
	}
	appt, err := ac.svc.GetAppointment(c.Request.Context(), id)
	if err != nil {
		respondError(c, ac.logger, err)
		return nil, false
	}
	if !inBranch(c, appt.BranchID, "Appointment") {
		return nil, false
	}
	return appt, true
}

func (ac *AppointmentController) loadSeries(c *gin.Context) (uuid.UUID, []models.Appointment, bool) {
	parentID, ok := uuidParam(c, "parentId")
	if !ok {
		return uuid.Nil, nil, false
	}
	series, err := ac.svc.GetSeries(c.Request.Context(), parentID)
	if err != nil {
		respondError(c, ac.logger, err)
		return uuid.Nil, nil, false
	}
	if !inBranch(c, series[0].BranchID, "Recurring series") {
		return uuid.Nil, nil, false
	}
	return parentID, series, true
}

// CreateAppointment books a single appointment
func (ac *AppointmentController) CreateAppointment(c *gin.Context) {
	var input AppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	req, ok := ac.request(c, input)
	if !ok {
		return
	}
	appt, err := ac.svc.CreateAppointment(c.Request.Context(), req)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

// CreateRecurringAppointments books a series and reports skipped dates
func (ac *AppointmentController) CreateRecurringAppointments(c *gin.Context) {
	var input RecurringAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	req, ok := ac.request(c, input.AppointmentInput)
	if !ok {
		return
	}
	interval := input.RecurrenceInterval
	if interval == 0 {
		interval = 1
	}
	result, err := ac.svc.CreateRecurringAppointments(c.Request.Context(), services.RecurringRequest{
		BookingRequest: req,
		Pattern:        input.RecurrencePattern,
		Interval:       interval,
		EndDate:        input.RecurrenceEndDate,
	})
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (ac *AppointmentController) GetAppointment(c *gin.Context) {
	appt, ok := ac.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, appt)
}

// UpdateAppointment replaces the details of a booked appointment
func (ac *AppointmentController) UpdateAppointment(c *gin.Context) {
	current, ok := ac.load(c)
	if !ok {
		return
	}
	var input AppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	req, ok := ac.request(c, input)
	if !ok {
		return
	}
	appt, err := ac.svc.UpdateAppointment(c.Request.Context(), current.ID, req)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (ac *AppointmentController) DeleteAppointment(c *gin.Context) {
	current, ok := ac.load(c)
	if !ok {
		return
	}
	if err := ac.svc.DeleteAppointment(c.Request.Context(), current.ID); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}

func (ac *AppointmentController) UpdateStatus(c *gin.Context) {
	current, ok := ac.load(c)
	if !ok {
		return
	}
	var input StatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	appt, err := ac.svc.TransitionStatus(c.Request.Context(), current.ID, input.Status, input.Reason)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (ac *AppointmentController) CancelAppointment(c *gin.Context) {
	current, ok := ac.load(c)
	if !ok {
		return
	}
	var input CancelInput
	if !bindOptionalJSON(c, &input) {
		return
	}
	appt, err := ac.svc.CancelAppointment(c.Request.Context(), current.ID, input.Reason)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (ac *AppointmentController) RescheduleAppointment(c *gin.Context) {
	current, ok := ac.load(c)
	if !ok {
		return
	}
	var input RescheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	appt, err := ac.svc.RescheduleAppointment(c.Request.Context(), current.ID, input.Date, *input.StartTime, input.EndTime)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, appt)
}

func (ac *AppointmentController) GetSeries(c *gin.Context) {
	_, series, ok := ac.loadSeries(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, series)
}

func (ac *AppointmentController) CancelSeries(c *gin.Context) {
	parentID, _, ok := ac.loadSeries(c)
	if !ok {
		return
	}
	var input CancelInput
	if !bindOptionalJSON(c, &input) {
		return
	}
	n, err := ac.svc.CancelSeries(c.Request.Context(), parentID, input.Reason)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": n})
}

// ListStaffAppointments returns a staff member's day, all statuses
func (ac *AppointmentController) ListStaffAppointments(c *gin.Context) {
	staffID, ok := staffParam(c, ac.svc, ac.logger)
	if !ok {
		return
	}
	date, ok := dateQuery(c)
	if !ok {
		return
	}
	appts, err := ac.svc.ListStaffAppointments(c.Request.Context(), staffID, date)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, appts)
}
