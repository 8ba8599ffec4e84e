package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/services"
)

type CreateAppointmentRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Time     string `json:"time" binding:"required"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

// CreateAppointment books a slot for the calling patient.
func (h *Handler) CreateAppointment(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "doctorId, date and time are required")
		return
	}
	doctorID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		h.badRequest(c, "Invalid doctorId")
		return
	}

	apt, err := h.Appointments.Book(c.Request.Context(), userID, services.BookInput{
		DoctorID: doctorID,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
		Notes:    req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

// GetAppointments lists the caller's appointments.
// Optional filters: ?status=scheduled&startDate=2026-07-01&endDate=2026-07-31
func (h *Handler) GetAppointments(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	var f services.AppointmentFilter
	f.Status = c.Query("status")
	if s := c.Query("startDate"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			h.badRequest(c, "Invalid startDate")
			return
		}
		f.From = d
	}
	if s := c.Query("endDate"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			h.badRequest(c, "Invalid endDate")
			return
		}
		f.To = d
	}

	appointments, err := h.Appointments.ListForPatient(c.Request.Context(), userID, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

// GetDoctorAppointments lists every appointment booked with the calling doctor.
func (h *Handler) GetDoctorAppointments(c *gin.Context) {
	userID, role, ok := h.withUser(c)
	if !ok {
		return
	}
	appointments, err := h.Appointments.ListForDoctor(c.Request.Context(), userID, role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

// CancelAppointment cancels by appointment id. The body is optional.
func (h *Handler) CancelAppointment(c *gin.Context) {
	userID, role, ok := h.withUser(c)
	if !ok {
		return
	}
	aptID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, "Invalid request body")
		return
	}

	res, err := h.Appointments.Cancel(c.Request.Context(), userID, role, aptID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
