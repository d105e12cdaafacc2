// controllers/appointment_template.go
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

// AppointmentTemplateInput defines the JSON structure for creating or replacing a template
type AppointmentTemplateInput struct {
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	ServiceIDs  []uuid.UUID `json:"serviceIds" binding:"required,min=1"`
	IsActive    *bool       `json:"isActive"`
}

// BookTemplateInput picks who and when for a template booking
type BookTemplateInput struct {
	CustomerID uuid.UUID     `json:"customerId" binding:"required"`
	StaffID    uuid.UUID     `json:"staffId" binding:"required"`
	Date       models.Date   `json:"date"`
	StartTime  *models.Clock `json:"startTime" binding:"required"`
	Notes      string        `json:"notes"`
}

type AppointmentTemplateController struct {
	svc    *services.SchedulingService
	logger zerolog.Logger
}

func NewAppointmentTemplateController(svc *services.SchedulingService, logger zerolog.Logger) *AppointmentTemplateController {
	return &AppointmentTemplateController{svc: svc, logger: logger}
}

func (tc *AppointmentTemplateController) CreateTemplate(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}

	var input AppointmentTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	tpl, err := tc.svc.CreateAppointmentTemplate(c.Request.Context(), services.AppointmentTemplateRequest{
		BranchID:    branch,
		Name:        input.Name,
		Description: input.Description,
		ServiceIDs:  input.ServiceIDs,
		IsActive:    input.IsActive,
	})
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, tpl)
}

// GetTemplates lists active templates, most used first. ?q= filters by name.
func (tc *AppointmentTemplateController) GetTemplates(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}

	templates, err := tc.svc.ListAppointmentTemplates(c.Request.Context(), branch, c.Query("q"))
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	if templates == nil {
		templates = []models.AppointmentTemplate{}
	}

	c.JSON(http.StatusOK, templates)
}

func (tc *AppointmentTemplateController) GetPopularTemplates(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 5)
	if !ok {
		return
	}

	templates, err := tc.svc.PopularAppointmentTemplates(c.Request.Context(), branch, limit)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	if templates == nil {
		templates = []models.AppointmentTemplate{}
	}

	c.JSON(http.StatusOK, templates)
}

func (tc *AppointmentTemplateController) GetTemplate(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	tpl, err := tc.svc.GetAppointmentTemplate(c.Request.Context(), branch, id)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}

	c.JSON(http.StatusOK, tpl)
}

// UpdateTemplate replaces the template and reprices its estimates
func (tc *AppointmentTemplateController) UpdateTemplate(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input AppointmentTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	tpl, err := tc.svc.UpdateAppointmentTemplate(c.Request.Context(), id, services.AppointmentTemplateRequest{
		BranchID:    branch,
		Name:        input.Name,
		Description: input.Description,
		ServiceIDs:  input.ServiceIDs,
		IsActive:    input.IsActive,
	})
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}

	c.JSON(http.StatusOK, tpl)
}

func (tc *AppointmentTemplateController) DeactivateTemplate(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := tc.svc.DeactivateAppointmentTemplate(c.Request.Context(), branch, id); err != nil {
		respondError(c, tc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deactivated successfully"})
}

// BookTemplate creates an appointment with the template's services
func (tc *AppointmentTemplateController) BookTemplate(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input BookTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	appt, err := tc.svc.BookFromTemplate(c.Request.Context(), branch, id, services.TemplateBooking{
		CustomerID: input.CustomerID,
		StaffID:    input.StaffID,
		Date:       input.Date,
		StartTime:  *input.StartTime,
		Notes:      input.Notes,
	})
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, appt)
}
