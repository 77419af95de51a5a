package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/medibook/scheduling/internal/domain/booking"
	"github.com/medibook/scheduling/internal/domain/status"
	"github.com/medibook/scheduling/internal/service"
)

type Handler struct {
	availability *service.AvailabilityService
	bookings     *service.BookingService
	statuses     *service.StatusService
	log          *zap.Logger
}

func NewHandler(
	availability *service.AvailabilityService,
	bookings *service.BookingService,
	statuses *service.StatusService,
	log *zap.Logger,
) *Handler {
	return &Handler{
		availability: availability,
		bookings:     bookings,
		statuses:     statuses,
		log:          log,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors/:doctorID/slots", h.getAvailableSlots)
	r.GET("/doctors/:doctorID/bookings", h.listBookings)
	r.POST("/doctors/:doctorID/schedule-changed", h.scheduleChanged)

	r.POST("/bookings", h.bookSlot)
	r.POST("/bookings/:bookingID/cancel", h.cancelBooking)

	r.POST("/statuses/:kind/:entityID", h.transitionStatus)
}

func (h *Handler) getAvailableSlots(c *gin.Context) {
	doctorID, ok := parseUUID(c, "doctorID")
	if !ok {
		return
	}
	day, ok := parseDateQuery(c)
	if !ok {
		return
	}

	slots, err := h.availability.GetAvailableSlots(c.Request.Context(), doctorID, day)
	if err != nil {
		h.log.Error("listing available slots failed", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	respondOK(c, slots)
}

type bookSlotRequest struct {
	DoctorID  string    `json:"doctor_id" binding:"required,uuid"`
	PatientID string    `json:"patient_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
}

func (h *Handler) bookSlot(c *gin.Context) {
	var req bookSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	doctorID, patientID := mustUUID(req.DoctorID), mustUUID(req.PatientID)

	result, err := h.bookings.BookSlot(c.Request.Context(), doctorID, patientID, req.StartTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	switch result.Kind {
	case booking.ResultBooked:
		respondCreated(c, result.Booking)

	case booking.ResultSlotTaken:
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "the requested slot is no longer available, please pick another time",
			Code:  "SLOT_TAKEN",
		})

	case booking.ResultConflictExhausted:
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "the slot is in high demand, please try again",
			Code:  "HIGH_DEMAND",
		})

	case booking.ResultCancelled:
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "the booking request was cancelled",
			Code:  "CANCELLED",
		})

	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) cancelBooking(c *gin.Context) {
	bookingID, ok := parseUUID(c, "bookingID")
	if !ok {
		return
	}

	if err := h.bookings.CancelBooking(c.Request.Context(), bookingID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"cancelled": true})
}

func (h *Handler) listBookings(c *gin.Context) {
	doctorID, ok := parseUUID(c, "doctorID")
	if !ok {
		return
	}
	day, ok := parseDateQuery(c)
	if !ok {
		return
	}

	bookings, err := h.bookings.ListBookings(c.Request.Context(), doctorID, day)
	if err != nil {
		h.log.Error("listing bookings failed", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	respondOK(c, bookings)
}

func (h *Handler) scheduleChanged(c *gin.Context) {
	doctorID, ok := parseUUID(c, "doctorID")
	if !ok {
		return
	}

	h.availability.NoteScheduleChanged(c.Request.Context(), doctorID)
	respondOK(c, gin.H{"invalidated": true})
}

type transitionRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

func (h *Handler) transitionStatus(c *gin.Context) {
	kind := status.EntityKind(c.Param("kind"))
	entityID, ok := parseUUID(c, "entityID")
	if !ok {
		return
	}

	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.statuses.TransitionStatus(c.Request.Context(), kind, entityID, status.State(req.From), status.State(req.To))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"status": req.To})
}
