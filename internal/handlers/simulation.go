package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/callsim/callsim-backend/internal/services"
)

type SimulationHandler struct {
	simulationService services.SimulationService
}

func NewSimulationHandler(simulationService services.SimulationService) *SimulationHandler {
	return &SimulationHandler{simulationService: simulationService}
}

func (sh *SimulationHandler) Start(c *gin.Context) {
	result, err := sh.simulationService.Start(c.Request.Context())
	if err != nil {
		c.JSON(simulationErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (sh *SimulationHandler) GetActive(c *gin.Context) {
	simulation, err := sh.simulationService.GetActive(c.Request.Context())
	if err != nil {
		c.JSON(simulationErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	if simulation == nil {
		c.JSON(http.StatusOK, gin.H{"simulation": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"simulation": simulation})
}

func (sh *SimulationHandler) GetMessages(c *gin.Context) {
	simulationID, err := uuid.Parse(c.Param("simulationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation id"})
		return
	}
	messages, err := sh.simulationService.GetMessages(c.Request.Context(), simulationID)
	if err != nil {
		c.JSON(simulationErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (sh *SimulationHandler) SendMessage(c *gin.Context) {
	simulationID, err := uuid.Parse(c.Param("simulationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation id"})
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	result, err := sh.simulationService.SendMessage(c.Request.Context(), simulationID, req.Content)
	if err != nil {
		c.JSON(simulationErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (sh *SimulationHandler) End(c *gin.Context) {
	simulationID, err := uuid.Parse(c.Param("simulationID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation id"})
		return
	}
	result, err := sh.simulationService.End(c.Request.Context(), simulationID)
	if err != nil {
		c.JSON(simulationErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func simulationErrStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrSimulationNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSimulationAlreadyActive):
		return http.StatusConflict
	case errors.Is(err, services.ErrNoPersonasAvailable), errors.Is(err, services.ErrNoScenariosForPersona):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
