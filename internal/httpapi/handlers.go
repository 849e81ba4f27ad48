package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/padelcana/courtbook/internal/identity"
	"github.com/padelcana/courtbook/pkg/booking"
	"github.com/padelcana/courtbook/pkg/payment"
	"go.uber.org/zap"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createClubRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	IsResort bool   `json:"isResort"`
	Timezone string `json:"timezone"`
}

type registerCourtRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price"`
}

type createBookingRequest struct {
	CourtID   string `json:"courtId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type createIntentRequest struct {
	BookingID string `json:"bookingId"`
}

func (handler *httpHandler) handleRegister(ctx *gin.Context) {
	var request registerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	session, err := handler.services.Identity.Register(ctx.Request.Context(), request.Email, request.Name, request.Password)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, session)
}

func (handler *httpHandler) handleLogin(ctx *gin.Context) {
	var request loginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	session, err := handler.services.Identity.Login(ctx.Request.Context(), request.Email, request.Password)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, session)
}

func (handler *httpHandler) handleListClubs(ctx *gin.Context) {
	clubs, err := handler.services.Bookings.ListClubs(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, clubs)
}

func (handler *httpHandler) handleCreateClub(ctx *gin.Context) {
	var request createClubRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	club, err := handler.services.Bookings.CreateClub(ctx.Request.Context(), request.Name, request.Location, request.IsResort, request.Timezone)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, club)
}

func (handler *httpHandler) handleClubCourts(ctx *gin.Context) {
	clubID, err := booking.NewClubID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	courts, err := handler.services.Bookings.CourtsByClub(ctx.Request.Context(), clubID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, courts)
}

func (handler *httpHandler) handleRegisterCourt(ctx *gin.Context) {
	clubID, err := booking.NewClubID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request registerCourtRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	court, err := handler.services.Bookings.RegisterCourt(ctx.Request.Context(), clubID, request.Name, request.PriceCents)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, court)
}

func (handler *httpHandler) handleAvailability(ctx *gin.Context) {
	rawClubID := ctx.Query("clubId")
	rawDate := ctx.Query("date")
	if rawClubID == "" {
		ctx.JSON(http.StatusBadRequest, errorResponse("validation_error", "clubId is required"))
		return
	}
	if rawDate == "" {
		ctx.JSON(http.StatusBadRequest, errorResponse("validation_error", "date is required (YYYY-MM-DD)"))
		return
	}
	clubID, err := booking.NewClubID(rawClubID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	availability, err := handler.services.Bookings.Availability(ctx.Request.Context(), clubID, rawDate, ctx.Query("timezone"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, availability)
}

func (handler *httpHandler) handleCreateBooking(ctx *gin.Context) {
	callerIdentity, ok := callerIdentityFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthenticated", "missing bearer token"))
		return
	}
	var request createBookingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	courtID, err := booking.NewCourtID(request.CourtID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	timeRange, err := booking.ParseTimeRange(request.StartTime, request.EndTime)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	userID, err := booking.NewUserID(callerIdentity.UserID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	created, err := handler.services.Bookings.Reserve(ctx.Request.Context(), userID, courtID, timeRange)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

func (handler *httpHandler) handleMyBookings(ctx *gin.Context) {
	callerIdentity, ok := callerIdentityFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthenticated", "missing bearer token"))
		return
	}
	userID, err := booking.NewUserID(callerIdentity.UserID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	bookings, err := handler.services.Bookings.FindMine(ctx.Request.Context(), userID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, bookings)
}

// handleAdminBookings scopes the query to the club carried by the caller's
// token. A clubId query parameter, if supplied, is ignored.
func (handler *httpHandler) handleAdminBookings(ctx *gin.Context) {
	callerIdentity, ok := callerIdentityFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthenticated", "missing bearer token"))
		return
	}
	clubID, err := booking.NewClubID(callerIdentity.ClubID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("validation_error", "clubId is required"))
		return
	}
	date := ctx.Query("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	bookings, err := handler.services.Bookings.FindByClubAndDate(ctx.Request.Context(), clubID, date)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, bookings)
}

func (handler *httpHandler) handleCreateIntent(ctx *gin.Context) {
	var request createIntentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	handle, err := handler.services.Payments.CreateIntent(ctx.Request.Context(), request.BookingID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, handle)
}

func (handler *httpHandler) handleWebhook(ctx *gin.Context) {
	payload, err := ctx.GetRawData()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "unreadable body"))
		return
	}
	signature := ctx.GetHeader("Stripe-Signature")
	if err := handler.services.Payments.HandleEvent(ctx.Request.Context(), payload, signature); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"received": true})
}

// respondError maps domain errors to the REST taxonomy.
func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrSlotLocked):
		ctx.JSON(http.StatusConflict, errorResponse("slot_locked", "time slot temporarily locked"))
	case errors.Is(err, booking.ErrSlotTaken):
		ctx.JSON(http.StatusConflict, errorResponse("slot_taken", "time slot already booked"))
	case errors.Is(err, booking.ErrClubNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", "club not found"))
	case errors.Is(err, booking.ErrCourtNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", "court not found"))
	case errors.Is(err, payment.ErrBookingNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", "booking not found"))
	case errors.Is(err, identity.ErrInvalidCredentials):
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthenticated", "invalid credentials"))
	case errors.Is(err, payment.ErrWebhookUnconfigured),
		errors.Is(err, payment.ErrProcessorUnavailable):
		handler.logger.Error("payment processor failure", zap.Error(err))
		ctx.JSON(http.StatusBadGateway, errorResponse("external_service_error", "payment processor unavailable"))
	case errors.Is(err, booking.ErrInvalidDate),
		errors.Is(err, booking.ErrInvalidTimeRange),
		errors.Is(err, booking.ErrInvalidTimezone),
		errors.Is(err, booking.ErrInvalidClubID),
		errors.Is(err, booking.ErrInvalidCourtID),
		errors.Is(err, booking.ErrInvalidUserID),
		errors.Is(err, booking.ErrInvalidClubName),
		errors.Is(err, booking.ErrInvalidCourtName),
		errors.Is(err, booking.ErrInvalidPriceCents),
		errors.Is(err, identity.ErrMissingFields),
		errors.Is(err, identity.ErrEmailTaken),
		errors.Is(err, payment.ErrBookingAlreadyConfirmed),
		errors.Is(err, payment.ErrPaymentAlreadySucceeded),
		errors.Is(err, payment.ErrInvalidSignature):
		ctx.JSON(http.StatusBadRequest, errorResponse("validation_error", err.Error()))
	default:
		handler.logger.Error("internal error", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "unexpected failure"))
	}
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
