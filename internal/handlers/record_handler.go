package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/sehaty-api/internal/services"
)

func (h *Handler) GetHealthRecords(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	records, err := h.Records.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"healthRecords": records})
}

func (h *Handler) AddHealthRecord(c *gin.Context) {
	userID, role, ok := h.withUser(c)
	if !ok {
		return
	}
	var req struct {
		PatientID   string `json:"patientId"`
		Type        string `json:"type" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Date        string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "type and title are required")
		return
	}
	patientID, err := optionalID(req.PatientID)
	if err != nil {
		h.badRequest(c, "Invalid patientId")
		return
	}

	rec, err := h.Records.Add(c.Request.Context(), userID, role, services.HealthRecordInput{
		PatientID:   patientID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
