package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/service"
	"trailerhub-backend/internal/utils"
)

// Services bundles the reservation core for the handler.
type Services struct {
	Pricing       service.PricingService
	Availability  service.AvailabilityService
	Payments      service.PaymentService
	Reservations  service.ReservationService
	Rentals       service.RentalService
	Damage        service.DamageService
	DamagePhotos  service.DamagePhotoService
	Notifications service.NotificationService
}

type ReservationHandler struct {
	svc Services
}

func NewReservationHandler(svc Services) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

var _ ReservationServiceServer = (*ReservationHandler)(nil)

func parseRange(startStr, endStr string) (domain.DateRange, error) {
	r, err := utils.ParseDateRange(startStr, endStr)
	if err != nil {
		return r, status.Error(codes.InvalidArgument, err.Error())
	}
	return r, nil
}

func (h *ReservationHandler) GetQuote(ctx context.Context, req *GetQuoteRequest) (*GetQuoteResponse, error) {
	r, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	q, err := h.svc.Pricing.GetQuote(ctx, req.ResourceId, r, utils.QuoteOptions(req.Options))
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &GetQuoteResponse{Quote: MapQuoteToWire(q)}, nil
}

func (h *ReservationHandler) CreateReservation(ctx context.Context, req *CreateReservationRequest) (*CreateReservationResponse, error) {
	logger.EnterMethod("ReservationHandler.CreateReservation", "resourceID", req.ResourceId)
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	res, err := h.svc.Reservations.CreateReservation(ctx, service.ReservationRequest{
		ResourceID:      req.ResourceId,
		RenterID:        actor.UserID,
		StartDate:       r.Start,
		EndDate:         r.End,
		PickupTime:      req.PickupTime,
		ReturnTime:      req.ReturnTime,
		TotalPriceCents: req.TotalPrice,
		ServiceFeeCents: req.ServiceFee,
		PaymentIntentID: req.PaymentIntentId,
		TermsAccepted:   req.TermsAccepted,
		Options:         utils.QuoteOptions(req.Options),
		SpecialNotes:    req.SpecialNotes,
	})
	if err != nil {
		logger.ExitMethodWithError("ReservationHandler.CreateReservation", err)
		return nil, MapErrorToStatus(err)
	}
	logger.ExitMethod("ReservationHandler.CreateReservation", "rentalID", res.Rental.ID)
	return &CreateReservationResponse{
		Rental:       MapRentalToWire(res.Rental),
		Quote:        MapQuoteToWire(&res.Quote),
		IntentId:     res.IntentID,
		ClientSecret: res.ClientSecret,
	}, nil
}

func (h *ReservationHandler) TransitionStatus(ctx context.Context, req *TransitionStatusRequest) (*RentalResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rental, err := h.svc.Rentals.TransitionStatus(ctx, actor, req.RentalId, domain.RentalStatus(req.Status), req.Note)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &RentalResponse{Rental: MapRentalToWire(rental)}, nil
}

func (h *ReservationHandler) RetryPayment(ctx context.Context, req *RentalIdRequest) (*RetryPaymentResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	intentID, secret, err := h.svc.Payments.RetryIntent(ctx, actor, req.RentalId)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &RetryPaymentResponse{IntentId: intentID, ClientSecret: secret}, nil
}

func (h *ReservationHandler) CapturePayment(ctx context.Context, req *CapturePaymentRequest) (*CapturePaymentResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	st, err := h.svc.Payments.CaptureIntent(ctx, actor, req.RentalId, req.AmountCents)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &CapturePaymentResponse{PaymentStatus: string(st)}, nil
}

func (h *ReservationHandler) ReportDamage(ctx context.Context, req *ReportDamageRequest) (*DamageReportResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	report, err := h.svc.Damage.ReportDamage(ctx, actor, service.DamageInput{
		RentalID:        req.RentalId,
		Description:     req.Description,
		Severity:        domain.DamageSeverity(req.Severity),
		PhotoURLs:       req.PhotoUrls,
		RepairCostCents: req.RepairCostCents,
	})
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &DamageReportResponse{Report: MapDamageReportToWire(report)}, nil
}

func (h *ReservationHandler) RespondToDamageReport(ctx context.Context, req *RespondToDamageReportRequest) (*DamageReportResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	report, err := h.svc.Damage.RespondToDamageReport(ctx, actor, req.ReportId, req.Accept)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &DamageReportResponse{Report: MapDamageReportToWire(report)}, nil
}

func (h *ReservationHandler) ListDamageReports(ctx context.Context, req *RentalIdRequest) (*ListDamageReportsResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := h.svc.Damage.ListDamageReports(ctx, actor, req.RentalId)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	out := make([]DamageReport, len(reports))
	for i := range reports {
		out[i] = MapDamageReportToWire(&reports[i])
	}
	return &ListDamageReportsResponse{Reports: out}, nil
}

func (h *ReservationHandler) RequestDamagePhotoUpload(ctx context.Context, req *RequestDamagePhotoUploadRequest) (*RequestDamagePhotoUploadResponse, error) {
	if h.svc.DamagePhotos == nil {
		return nil, status.Error(codes.Unimplemented, "photo uploads are not configured")
	}
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	upload, err := h.svc.DamagePhotos.RequestUpload(ctx, actor, req.RentalId, req.ContentType)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &RequestDamagePhotoUploadResponse{
		UploadUrl: upload.UploadURL,
		PhotoUrl:  upload.PhotoURL,
		ExpiresAt: upload.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func (h *ReservationHandler) GetAvailability(ctx context.Context, req *GetAvailabilityRequest) (*GetAvailabilityResponse, error) {
	if req.ResourceId == "" {
		return nil, MapErrorToStatus(domain.NewMissingField("resourceId"))
	}
	r, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	blocks, err := h.svc.Availability.GetCalendar(ctx, req.ResourceId, r)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	out := make([]BlockedInterval, len(blocks))
	for i := range blocks {
		out[i] = MapBlockToWire(&blocks[i])
	}
	return &GetAvailabilityResponse{Blocks: out}, nil
}

func (h *ReservationHandler) BlockDates(ctx context.Context, req *BlockDatesRequest) (*BlockDatesResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	block, err := h.svc.Availability.BlockDates(ctx, actor, req.ResourceId, r, req.Reason, mapTimeSlots(req.TimeSlots))
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &BlockDatesResponse{Block: MapBlockToWire(block)}, nil
}

func (h *ReservationHandler) UnblockDates(ctx context.Context, req *UnblockDatesRequest) (*Empty, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Availability.UnblockDates(ctx, actor, req.BlockId); err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &Empty{}, nil
}

func (h *ReservationHandler) UpdateWeeklySchedule(ctx context.Context, req *UpdateWeeklyScheduleRequest) (*Empty, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	days := make([]time.Weekday, 0, len(req.Weekdays))
	for _, d := range req.Weekdays {
		if d < int(time.Sunday) || d > int(time.Saturday) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid weekday %d", d)
		}
		days = append(days, time.Weekday(d))
	}
	if err := h.svc.Availability.UpdateWeeklySchedule(ctx, actor, req.ResourceId, domain.NewWeekdayMask(days...)); err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &Empty{}, nil
}

func (h *ReservationHandler) GetRental(ctx context.Context, req *RentalIdRequest) (*RentalResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rental, err := h.svc.Rentals.GetRental(ctx, actor, req.RentalId)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &RentalResponse{Rental: MapRentalToWire(rental)}, nil
}

func (h *ReservationHandler) ListRentals(ctx context.Context, req *ListRentalsRequest) (*ListRentalsResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rentals, count, err := h.svc.Rentals.ListRentals(ctx, actor, req.AsLessor, domain.RentalStatus(req.Status), req.Page, req.PageSize)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	out := make([]Rental, len(rentals))
	for i := range rentals {
		out[i] = MapRentalToWire(&rentals[i])
	}
	return &ListRentalsResponse{Rentals: out, TotalCount: count}, nil
}

func (h *ReservationHandler) GetRentalHistory(ctx context.Context, req *RentalIdRequest) (*GetRentalHistoryResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	changes, err := h.svc.Rentals.History(ctx, actor, req.RentalId)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	out := make([]StatusChange, len(changes))
	for i, c := range changes {
		out[i] = MapStatusChangeToWire(c)
	}
	return &GetRentalHistoryResponse{Changes: out}, nil
}

func (h *ReservationHandler) SyncPayment(ctx context.Context, req *SyncPaymentRequest) (*Empty, error) {
	if req.IntentId == "" {
		return nil, MapErrorToStatus(domain.NewMissingField("intentId"))
	}
	if err := h.svc.Payments.SyncIntent(ctx, req.IntentId); err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &Empty{}, nil
}

func (h *ReservationHandler) GetNotifications(ctx context.Context, req *GetNotificationsRequest) (*GetNotificationsResponse, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	notes, count, err := h.svc.Notifications.GetNotifications(ctx, actor, req.Page, req.PageSize)
	if err != nil {
		return nil, MapErrorToStatus(err)
	}
	out := make([]Notification, len(notes))
	for i := range notes {
		out[i] = MapNotificationToWire(&notes[i])
	}
	return &GetNotificationsResponse{Notifications: out, TotalCount: count}, nil
}

func (h *ReservationHandler) MarkNotificationRead(ctx context.Context, req *MarkNotificationReadRequest) (*Empty, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Notifications.MarkAsRead(ctx, actor, req.NotificationId); err != nil {
		return nil, MapErrorToStatus(err)
	}
	return &Empty{}, nil
}
