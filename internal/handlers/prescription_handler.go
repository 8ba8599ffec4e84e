package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/sehaty-api/internal/services"
)

type PrescriptionRequest struct {
	PatientID  string `json:"patientId"`
	Medication string `json:"medication" binding:"required"`
	Dosage     string `json:"dosage" binding:"required"`
	Frequency  string `json:"frequency" binding:"required"`
	StartDate  string `json:"startDate" binding:"required"`
	EndDate    string `json:"endDate"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
}

func (r PrescriptionRequest) input() services.PrescriptionInput {
	return services.PrescriptionInput{
		Medication: r.Medication,
		Dosage:     r.Dosage,
		Frequency:  r.Frequency,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Status:     r.Status,
		Notes:      r.Notes,
	}
}

func (h *Handler) GetPrescriptions(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	list, err := h.Prescriptions.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prescriptions": list})
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	var req PrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	p, err := h.Prescriptions.Create(c.Request.Context(), userID, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePrescriptionStatus(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "status is required")
		return
	}
	p, err := h.Prescriptions.UpdateStatus(c.Request.Context(), userID, id, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// AddEmbeddedPrescription writes to the patient document, the source the
// dashboard reads from.
func (h *Handler) AddEmbeddedPrescription(c *gin.Context) {
	userID, role, ok := h.withUser(c)
	if !ok {
		return
	}
	var req PrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	patientID, err := optionalID(req.PatientID)
	if err != nil {
		h.badRequest(c, "Invalid patientId")
		return
	}
	p, err := h.Prescriptions.AddEmbedded(c.Request.Context(), userID, role, patientID, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
