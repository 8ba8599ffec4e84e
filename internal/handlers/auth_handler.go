package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/sehaty-api/internal/models"
	"github.com/harentsoaR/sehaty-api/internal/services"
	"github.com/harentsoaR/sehaty-api/internal/store"
)

type RegisterUserRequest struct {
	Name            string  `json:"name" binding:"required"`
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required,min=8"`
	Role            string  `json:"role" binding:"omitempty,oneof=patient doctor clinic"`
	Phone           string  `json:"phone"`
	DateOfBirth     string  `json:"dateOfBirth"`
	Gender          string  `json:"gender"`
	BloodType       string  `json:"bloodType"`
	Specialty       string  `json:"specialty"`
	LicenseNumber   string  `json:"licenseNumber"`
	ConsultationFee float64 `json:"consultationFee" binding:"gte=0"`
	Address         string  `json:"address"`
	Description     string  `json:"description"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	profile := models.Profile{
		Gender:          req.Gender,
		BloodType:       req.BloodType,
		Specialty:       req.Specialty,
		LicenseNumber:   req.LicenseNumber,
		ConsultationFee: req.ConsultationFee,
		Address:         req.Address,
		Description:     req.Description,
	}
	if req.DateOfBirth != "" {
		dob, err := models.ParseDate(req.DateOfBirth)
		if err != nil {
			h.badRequest(c, "Invalid dateOfBirth")
			return
		}
		profile.DateOfBirth = &dob
	}

	res, err := h.Auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
		Profile:  profile,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Email and password are required")
		return
	}

	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetCurrentUser returns the profile of the authenticated caller.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	user, err := h.Auth.Me(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateProfileRequest struct {
	Name            *string  `json:"name"`
	Phone           *string  `json:"phone"`
	DateOfBirth     *string  `json:"dateOfBirth"`
	Gender          *string  `json:"gender"`
	BloodType       *string  `json:"bloodType"`
	Specialty       *string  `json:"specialty"`
	LicenseNumber   *string  `json:"licenseNumber"`
	ConsultationFee *float64 `json:"consultationFee" binding:"omitempty,gte=0"`
	Address         *string  `json:"address"`
	Description     *string  `json:"description"`
}

// UpdateCurrentUser applies a partial profile edit. Email, role and password
// are not editable here.
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	upd := store.ProfileUpdate{
		Name:            req.Name,
		Phone:           req.Phone,
		Gender:          req.Gender,
		BloodType:       req.BloodType,
		Specialty:       req.Specialty,
		LicenseNumber:   req.LicenseNumber,
		ConsultationFee: req.ConsultationFee,
		Address:         req.Address,
		Description:     req.Description,
	}
	if req.DateOfBirth != nil {
		dob, err := models.ParseDate(*req.DateOfBirth)
		if err != nil {
			h.badRequest(c, "Invalid dateOfBirth")
			return
		}
		upd.DateOfBirth = &dob
	}

	user, err := h.Auth.UpdateProfile(c.Request.Context(), userID, upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}
