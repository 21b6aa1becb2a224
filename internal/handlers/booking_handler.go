package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/appointly/scheduler/internal/audit"
	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/httperr"
	"github.com/appointly/scheduler/internal/httpresp"
	"github.com/appointly/scheduler/internal/middleware"
	"github.com/appointly/scheduler/internal/notify"
	"github.com/appointly/scheduler/internal/timeutil"
	entitiesuc "github.com/appointly/scheduler/internal/usecase/entities"
	"github.com/appointly/scheduler/internal/usecase/reservation"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	book         *reservation.Book
	reassign     *reservation.Reassign
	updateStatus *reservation.UpdateStatus
	cancel       *reservation.CancelAppointment
	listSlots    *reservation.ListSlots
	listAgenda   *reservation.ListAppointments

	entities *entitiesuc.GetEntities
	notifier *notify.Dispatcher
	audit    *audit.Dispatcher
	tenant   *time.Location
}

func NewBookingHandler(
	book *reservation.Book,
	reassign *reservation.Reassign,
	updateStatus *reservation.UpdateStatus,
	cancel *reservation.CancelAppointment,
	listSlots *reservation.ListSlots,
	listAgenda *reservation.ListAppointments,
	entities *entitiesuc.GetEntities,
	notifier *notify.Dispatcher,
	auditor *audit.Dispatcher,
	tenant *time.Location,
) *BookingHandler {
	return &BookingHandler{
		book:         book,
		reassign:     reassign,
		updateStatus: updateStatus,
		cancel:       cancel,
		listSlots:    listSlots,
		listAgenda:   listAgenda,
		entities:     entities,
		notifier:     notifier,
		audit:        auditor,
		tenant:       tenant,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type ExtraRequest struct {
	ID       uint `json:"id" binding:"required"`
	Quantity int  `json:"quantity"`
}

type RecurringRequest struct {
	ProviderID   uint   `json:"provider_id" binding:"required"`
	LocationID   *uint  `json:"location_id"`
	BookingStart string `json:"booking_start" binding:"required"`
	UtcOffset    *int   `json:"utc_offset"`
}

type CreateBookingRequest struct {
	ServiceID    uint   `json:"service_id" binding:"required"`
	ProviderID   uint   `json:"provider_id" binding:"required"`
	LocationID   *uint  `json:"location_id"`
	BookingStart string `json:"booking_start" binding:"required"`

	CustomerID               uint           `json:"customer_id"`
	Persons                  int            `json:"persons"`
	UtcOffset                *int           `json:"utc_offset"`
	Extras                   []ExtraRequest `json:"extras"`
	CustomFields             map[string]any `json:"custom_fields"`
	PackageCustomerServiceID *uint          `json:"package_customer_service_id"`

	PaymentGateway string             `json:"payment_gateway"`
	Recurring      []RecurringRequest `json:"recurring"`
}

type ReassignRequest struct {
	BookingStart string `json:"booking_start" binding:"required"`
	UtcOffset    *int   `json:"utc_offset"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ======================================================
// CREATE
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	customerID := req.CustomerID
	if requester := middleware.RequesterCustomerID(c); requester != nil {
		// Customer tokens always book for themselves.
		customerID = *requester
	}
	if customerID == 0 {
		httperr.BadRequest(c, "invalid_request", "customer_id is required")
		return
	}

	start, err := timeutil.ParseBookingStart(req.BookingStart, req.UtcOffset, h.tenant)
	if err != nil {
		httperr.BadRequest(c, "invalid_booking_start", err.Error())
		return
	}

	input := reservation.BookInput{
		ServiceID:    req.ServiceID,
		ProviderID:   req.ProviderID,
		LocationID:   req.LocationID,
		BookingStart: start,
		Booking: reservation.BookingInput{
			CustomerID:               customerID,
			Persons:                  req.Persons,
			Extras:                   toExtraSelections(req.Extras),
			CustomFields:             req.CustomFields,
			UtcOffset:                req.UtcOffset,
			PackageCustomerServiceID: req.PackageCustomerServiceID,
		},
		PaymentGateway: req.PaymentGateway,
	}

	for _, rec := range req.Recurring {
		occurrenceStart, err := timeutil.ParseBookingStart(rec.BookingStart, rec.UtcOffset, h.tenant)
		if err != nil {
			httperr.BadRequest(c, "invalid_booking_start", err.Error())
			return
		}
		input.Recurring = append(input.Recurring, reservation.RecurringInput{
			ProviderID:   rec.ProviderID,
			LocationID:   rec.LocationID,
			BookingStart: occurrenceStart,
			UtcOffset:    rec.UtcOffset,
		})
	}

	result, err := h.book.Execute(c.Request.Context(), input, reservation.BookOptions{
		InspectSlot: true,
		Persist:     true,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	h.entities.Invalidate(c.Request.Context())

	h.notifier.Dispatch(notify.Event{
		Kind:          notify.EventBookingCreated,
		AppointmentID: result.Appointment.ID,
		BookingID:     result.Booking.ID,
		CustomerID:    result.Booking.CustomerID,
		Status:        result.Booking.Status,
		BookingStart:  result.Appointment.BookingStart,
	})
	if result.StatusChanged {
		h.notifier.Dispatch(notify.Event{
			Kind:          notify.EventStatusChanged,
			AppointmentID: result.Appointment.ID,
			Status:        result.Appointment.Status,
			BookingStart:  result.Appointment.BookingStart,
		})
	}

	bookingID := result.Booking.ID
	h.audit.Dispatch(audit.Event{
		UserID:   userIDPtr(c),
		Action:   "booking.create",
		Entity:   "booking",
		EntityID: &bookingID,
		Metadata: gin.H{"appointment_id": result.Appointment.ID},
	})

	httpresp.Created(c, gin.H{
		"appointment": result.Appointment,
		"booking":     result.Booking,
		"recurring":   len(result.Recurring),
	})
}

// ======================================================
// REASSIGN
// ======================================================

func (h *BookingHandler) Reassign(c *gin.Context) {
	bookingID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	start, err := timeutil.ParseBookingStart(req.BookingStart, req.UtcOffset, h.tenant)
	if err != nil {
		httperr.BadRequest(c, "invalid_booking_start", err.Error())
		return
	}

	result, err := h.reassign.Execute(c.Request.Context(), reservation.ReassignInput{
		BookingID:           bookingID,
		BookingStart:        start,
		RequesterCustomerID: middleware.RequesterCustomerID(c),
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	h.entities.Invalidate(c.Request.Context())

	h.notifier.Dispatch(notify.Event{
		Kind:          notify.EventBookingRescheduled,
		AppointmentID: result.Booking.AppointmentID,
		BookingID:     result.Booking.ID,
		CustomerID:    result.Booking.CustomerID,
		Status:        result.Booking.Status,
		BookingStart:  start,
	})
	if result.OldAppointmentStatusChanged && result.OldAppointment != nil {
		h.notifier.Dispatch(notify.Event{
			Kind:          notify.EventStatusChanged,
			AppointmentID: result.OldAppointment.ID,
			Status:        result.OldAppointment.Status,
			BookingStart:  result.OldAppointment.BookingStart,
		})
	}
	if result.ExistingAppointmentStatusChanged && result.ExistingAppointment != nil {
		h.notifier.Dispatch(notify.Event{
			Kind:          notify.EventStatusChanged,
			AppointmentID: result.ExistingAppointment.ID,
			Status:        result.ExistingAppointment.Status,
			BookingStart:  result.ExistingAppointment.BookingStart,
		})
	}

	h.audit.Dispatch(audit.Event{
		UserID:   userIDPtr(c),
		Action:   "booking.reassign",
		Entity:   "booking",
		EntityID: &bookingID,
		Metadata: gin.H{"booking_start": start},
	})

	httpresp.OK(c, gin.H{
		"booking":              result.Booking,
		"old_appointment":      result.OldAppointment,
		"new_appointment":      result.NewAppointment,
		"existing_appointment": result.ExistingAppointment,
	})
}

// ======================================================
// STATUS
// ======================================================

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	bookingID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	result, err := h.updateStatus.Execute(c.Request.Context(), reservation.UpdateStatusInput{
		BookingID:           bookingID,
		Status:              req.Status,
		RequesterCustomerID: middleware.RequesterCustomerID(c),
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	h.entities.Invalidate(c.Request.Context())

	if result.AppointmentStatusChanged {
		h.notifier.Dispatch(notify.Event{
			Kind:          notify.EventStatusChanged,
			AppointmentID: result.Appointment.ID,
			Status:        result.Appointment.Status,
			BookingStart:  result.Appointment.BookingStart,
		})
	}

	h.audit.Dispatch(audit.Event{
		UserID:   userIDPtr(c),
		Action:   "booking.status",
		Entity:   "booking",
		EntityID: &bookingID,
		Metadata: gin.H{"status": req.Status},
	})

	httpresp.OK(c, gin.H{
		"booking":                    result.Booking,
		"appointment_status":         result.Appointment.Status,
		"appointment_status_changed": result.AppointmentStatusChanged,
	})
}

// ======================================================
// CANCEL APPOINTMENT
// ======================================================

func (h *BookingHandler) CancelAppointment(c *gin.Context) {
	appointmentID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	result, err := h.cancel.Execute(c.Request.Context(), reservation.CancelAppointmentInput{
		AppointmentID: appointmentID,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	h.entities.Invalidate(c.Request.Context())

	h.notifier.Dispatch(notify.Event{
		Kind:          notify.EventAppointmentCanceled,
		AppointmentID: result.Appointment.ID,
		Status:        result.Appointment.Status,
		BookingStart:  result.Appointment.BookingStart,
	})

	h.audit.Dispatch(audit.Event{
		UserID:   userIDPtr(c),
		Action:   "appointment.cancel",
		Entity:   "appointment",
		EntityID: &appointmentID,
		Metadata: gin.H{"canceled_bookings": result.CanceledBookings},
	})

	httpresp.OK(c, gin.H{
		"appointment":       result.Appointment,
		"canceled_bookings": result.CanceledBookings,
	})
}

// ======================================================
// SLOTS
// ======================================================

func (h *BookingHandler) ListSlots(c *gin.Context) {
	serviceID, err := strconv.ParseUint(c.Query("service_id"), 10, 32)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "service_id is required")
		return
	}
	providerID, err := strconv.ParseUint(c.Query("provider_id"), 10, 32)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "provider_id is required")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.tenant)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "date must be YYYY-MM-DD")
		return
	}
	persons, _ := strconv.Atoi(c.DefaultQuery("persons", "1"))

	slots, err := h.listSlots.Execute(c.Request.Context(), reservation.ListSlotsInput{
		ServiceID:  uint(serviceID),
		ProviderID: uint(providerID),
		Day:        day,
		Persons:    persons,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	httpresp.List(c, slots)
}

// ======================================================
// AGENDA
// ======================================================

func (h *BookingHandler) ListAppointments(c *gin.Context) {
	providerID, err := strconv.ParseUint(c.Query("provider_id"), 10, 32)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "provider_id is required")
		return
	}
	from, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.tenant)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "date must be YYYY-MM-DD")
		return
	}

	var to time.Time
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, h.tenant)
		if err != nil {
			httperr.BadRequest(c, "invalid_request", "to must be YYYY-MM-DD")
			return
		}
		to = parsed.Add(24 * time.Hour)
	}

	apps, err := h.listAgenda.Execute(c.Request.Context(), reservation.ListAppointmentsInput{
		ProviderID: uint(providerID),
		From:       from,
		To:         to,
	})
	if err != nil {
		writeBusinessError(c, err)
		return
	}

	httpresp.List(c, apps)
}

// ======================================================
// HELPERS
// ======================================================

func toExtraSelections(in []ExtraRequest) []domain.ExtraSelection {
	out := make([]domain.ExtraSelection, 0, len(in))
	for _, e := range in {
		out = append(out, domain.ExtraSelection{ID: e.ID, Quantity: e.Quantity})
	}
	return out
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		httperr.BadRequest(c, "invalid_id", "invalid "+name)
		return 0, false
	}
	return uint(value), true
}

func userIDPtr(c *gin.Context) *uint {
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := v.(uint); ok {
			return &id
		}
	}
	return nil
}

// writeBusinessError maps a use-case failure onto the HTTP surface. Unknown
// errors stay opaque 500s.
func writeBusinessError(c *gin.Context, err error) {
	code, ok := httperr.BusinessCode(err)
	if !ok {
		httperr.Internal(c, "internal_error", "unexpected error")
		return
	}

	switch code {
	case httperr.CodeBookingNotFound, httperr.CodeServiceNotFound:
		httperr.NotFound(c, code, "resource not found")
	case httperr.CodeForbidden, httperr.CodeRescheduleNotAllowed:
		httperr.Forbidden(c, code, "not allowed")
	case httperr.CodeInvalidStatus, httperr.CodeMinimumNotice:
		httperr.BadRequest(c, code, "request rejected")
	default:
		// slot_unavailable, slot_conflict, customer_already_booked,
		// package_unavailable
		httperr.Conflict(c, code, "slot cannot take this booking")
	}
}
