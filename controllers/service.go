// controllers/service.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"salonpro-scheduler/models"
	"salonpro-scheduler/repository"
	"salonpro-scheduler/utils"
)

// CreateServiceInput defines the expected JSON structure for creating a service
type CreateServiceInput struct {
	Name           string  `json:"name" binding:"required"`
	Description    string  `json:"description"`
	Price          float64 `json:"price" binding:"min=0"`
	Duration       int     `json:"duration" binding:"required,min=1"` // in minutes
	CommissionRate float64 `json:"commissionRate" binding:"min=0,max=100"`
	Category       string  `json:"category"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service
type UpdateServiceInput struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	Price          *float64 `json:"price" binding:"omitempty,min=0"`
	Duration       *int     `json:"duration" binding:"omitempty,min=1"`
	CommissionRate *float64 `json:"commissionRate" binding:"omitempty,min=0,max=100"`
	Category       *string  `json:"category"`
	IsActive       *bool    `json:"isActive"`
}

type ServiceController struct {
	catalog repository.CatalogRepository
	logger  zerolog.Logger
}

func NewServiceController(catalog repository.CatalogRepository, logger zerolog.Logger) *ServiceController {
	return &ServiceController{catalog: catalog, logger: logger}
}

// CreateService adds a service to the branch catalog
func (sc *ServiceController) CreateService(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}

	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service := models.Service{
		BranchID:       branch,
		Name:           input.Name,
		Description:    input.Description,
		Price:          input.Price,
		Duration:       input.Duration,
		CommissionRate: input.CommissionRate,
		Category:       input.Category,
		IsActive:       true,
	}

	if err := sc.catalog.CreateService(c.Request.Context(), &service); err != nil {
		respondError(c, sc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, service)
}

// GetServices retrieves all services for the branch
func (sc *ServiceController) GetServices(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}

	services, err := sc.catalog.ListServices(c.Request.Context(), branch)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	if services == nil {
		services = []models.Service{}
	}

	c.JSON(http.StatusOK, services)
}

// GetService retrieves a specific service by ID
func (sc *ServiceController) GetService(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	service, err := sc.catalog.GetService(c.Request.Context(), branch, id)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}

	c.JSON(http.StatusOK, service)
}

// UpdateService updates an existing service. Booked appointments keep the
// prices they were booked at.
func (sc *ServiceController) UpdateService(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service, err := sc.catalog.GetService(c.Request.Context(), branch, id)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}

	if input.Name != nil {
		service.Name = *input.Name
	}
	if input.Description != nil {
		service.Description = *input.Description
	}
	if input.Price != nil {
		service.Price = *input.Price
	}
	if input.Duration != nil {
		service.Duration = *input.Duration
	}
	if input.CommissionRate != nil {
		service.CommissionRate = *input.CommissionRate
	}
	if input.Category != nil {
		service.Category = *input.Category
	}
	if input.IsActive != nil {
		service.IsActive = *input.IsActive
	}

	if err := sc.catalog.UpdateService(c.Request.Context(), service); err != nil {
		respondError(c, sc.logger, err)
		return
	}

	c.JSON(http.StatusOK, service)
}

// DeactivateService hides a service from new bookings. Rows stay because
// appointment line items reference them.
func (sc *ServiceController) DeactivateService(c *gin.Context) {
	branch, ok := branchID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	service, err := sc.catalog.GetService(c.Request.Context(), branch, id)
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	service.IsActive = false
	if err := sc.catalog.UpdateService(c.Request.Context(), service); err != nil {
		respondError(c, sc.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service deactivated successfully"})
}
