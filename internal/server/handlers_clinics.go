package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medpulse-ai/backend/internal/health"
)

func (a *App) getClinics(c *gin.Context) {
	var (
		clinics []health.Clinic
		err     error
	)
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		clinics, err = a.store.GetClinicsByCategory(c.Request.Context(), category)
	} else {
		clinics, err = a.store.GetAllClinics(c.Request.Context())
	}
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"clinics": clinics, "count": len(clinics)})
}

func (a *App) getClinic(c *gin.Context) {
	clinic, err := a.store.GetClinic(c.Request.Context(), c.Param("clinic_id"))
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if clinic == nil {
		writeError(c, http.StatusNotFound, "Clinic not found")
		return
	}
	writeOK(c, gin.H{"clinic": clinic})
}

func (a *App) getUserAppointments(c *gin.Context) {
	userID := c.Param("user_id")

	activeOnly := false
	if raw := strings.TrimSpace(c.Query("active_only")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "active_only must be a boolean")
			return
		}
		activeOnly = parsed
	}

	profile, err := a.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if profile == nil {
		writeError(c, http.StatusNotFound, "User not found")
		return
	}

	appointments, err := a.store.GetUserAppointments(c.Request.Context(), userID, activeOnly)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	writeOK(c, gin.H{"appointments": appointments, "count": len(appointments)})
}

type createAppointmentRequest struct {
	UserID   string `json:"user_id"`
	ClinicID string `json:"clinic_id"`
	Date     string `json:"date"`
}

func (a *App) createAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if !mustJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.ClinicID) == "" {
		writeError(c, http.StatusBadRequest, "user_id and clinic_id are required")
		return
	}
	date, ok := dateOrToday(c, req.Date)
	if !ok {
		return
	}

	profile, err := a.store.GetProfile(c.Request.Context(), req.UserID)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if profile == nil {
		writeError(c, http.StatusNotFound, "User not found")
		return
	}
	clinic, err := a.store.GetClinic(c.Request.Context(), req.ClinicID)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if clinic == nil {
		writeError(c, http.StatusNotFound, "Clinic not found")
		return
	}

	appointment, err := a.store.CreateAppointment(c.Request.Context(), req.UserID, req.ClinicID, date)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	appointment.Clinic = clinic
	c.JSON(http.StatusCreated, gin.H{"success": true, "appointment": appointment})
}

type appointmentStatusRequest struct {
	Active *bool `json:"active"`
}

func (a *App) updateAppointmentStatus(c *gin.Context) {
	var req appointmentStatusRequest
	if !mustJSON(c, &req) {
		return
	}
	if req.Active == nil {
		writeError(c, http.StatusBadRequest, "active is required")
		return
	}

	appointment, err := a.store.UpdateAppointmentStatus(c.Request.Context(), c.Param("appointment_id"), *req.Active)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	if appointment == nil {
		writeError(c, http.StatusNotFound, "Appointment not found")
		return
	}
	writeOK(c, gin.H{"appointment": appointment})
}
