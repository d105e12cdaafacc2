package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/utils"
)

type UpdateBranchInput struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// BranchController edits the settings of the caller's branch: its name,
// opening hours and notification channels.
type BranchController struct {
	directory repository.DirectoryRepository
	logger    zerolog.Logger
}

func NewBranchController(directory repository.DirectoryRepository, logger zerolog.Logger) *BranchController {
	return &BranchController{directory: directory, logger: logger}
}

func (bc *BranchController) load(c *gin.Context) (*models.Branch, bool) {
	id, ok := branchID(c)
	if !ok {
		return nil, false
	}
	branch, err := bc.directory.GetBranch(c.Request.Context(), id)
	if err != nil {
		respondError(c, bc.logger, err)
		return nil, false
	}
	return branch, true
}

func (bc *BranchController) save(c *gin.Context, branch *models.Branch, message string) {
	if err := bc.directory.UpdateBranch(c.Request.Context(), branch); err != nil {
		respondError(c, bc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "branch": branch})
}

func (bc *BranchController) GetBranch(c *gin.Context) {
	branch, ok := bc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, branch)
}

func (bc *BranchController) UpdateBranch(c *gin.Context) {
	var input UpdateBranchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	branch, ok := bc.load(c)
	if !ok {
		return
	}
	branch.Name = input.Name
	branch.Address = input.Address
	bc.save(c, branch, "Branch updated")
}

// UpdateWorkingHours replaces the weekly opening hours used for slot
// generation, e.g. {"monday": {"open": "09:00", "close": "18:00"}}.
func (bc *BranchController) UpdateWorkingHours(c *gin.Context) {
	var input struct {
		WorkingHours models.JSONB `json:"workingHours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if err := models.ValidateHours(input.WorkingHours); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	branch, ok := bc.load(c)
	if !ok {
		return
	}
	branch.WorkingHours = input.WorkingHours
	bc.save(c, branch, "Working hours updated")
}

func (bc *BranchController) UpdateNotificationSettings(c *gin.Context) {
	var input struct {
		WhatsAppNotifications bool `json:"whatsAppNotifications"`
		SMSNotifications      bool `json:"smsNotifications"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	branch, ok := bc.load(c)
	if !ok {
		return
	}
	branch.WhatsAppNotifications = input.WhatsAppNotifications
	branch.SMSNotifications = input.SMSNotifications
	bc.save(c, branch, "Notification settings updated")
}
