// controllers/template.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/utils"
)

// CreateTemplateInput defines the expected JSON structure
type CreateTemplateInput struct {
	Kind    models.NotificationKind `json:"kind" binding:"required,oneof=confirmation cancellation reschedule status reminder follow_up waitlist_available waitlist_converted"`
	Message string                  `json:"message" binding:"required"`
}

// UpdateTemplateInput defines the expected JSON structure
type UpdateTemplateInput struct {
	Kind     *models.NotificationKind `json:"kind" binding:"omitempty,oneof=confirmation cancellation reschedule status reminder follow_up waitlist_available waitlist_converted"`
	Message  *string                  `json:"message"`
	IsActive *bool                    `json:"isActive"`
}

// TemplateController manages per-branch notification wording.
type TemplateController struct {
	store  repository.NotificationRepository
	logger zerolog.Logger
}

func NewTemplateController(store repository.NotificationRepository, logger zerolog.Logger) *TemplateController {
	return &TemplateController{store: store, logger: logger}
}

// CreateTemplate creates a new notification template
func (tc *TemplateController) CreateTemplate(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}

	var input CreateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template := models.NotificationTemplate{
		BranchID: branch,
		Kind:     input.Kind,
		Message:  input.Message,
		IsActive: true,
	}
	if err := tc.store.SaveTemplate(c.Request.Context(), &template); err != nil {
		respondError(c, tc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetTemplates retrieves all templates for the branch
func (tc *TemplateController) GetTemplates(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}

	templates, err := tc.store.ListTemplates(c.Request.Context(), branch)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	if templates == nil {
		templates = []models.NotificationTemplate{}
	}

	c.JSON(http.StatusOK, templates)
}

// UpdateTemplate updates an existing template
func (tc *TemplateController) UpdateTemplate(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input UpdateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template, err := tc.store.GetTemplate(c.Request.Context(), branch, id)
	if err != nil {
		respondError(c, tc.logger, err)
		return
	}
	if input.Kind != nil {
		template.Kind = *input.Kind
	}
	if input.Message != nil {
		template.Message = *input.Message
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := tc.store.SaveTemplate(c.Request.Context(), template); err != nil {
		respondError(c, tc.logger, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteTemplate deletes a template; the built-in wording applies again
func (tc *TemplateController) DeleteTemplate(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := tc.store.DeleteTemplate(c.Request.Context(), branch, id); err != nil {
		respondError(c, tc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
