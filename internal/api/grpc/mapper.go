package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/utils"
)

func MapQuoteToWire(q *domain.PriceQuote) PriceQuote {
	if q == nil {
		return PriceQuote{}
	}
	return PriceQuote{
		RentalDays:        q.RentalDays,
		BasePrice:         q.BasePrice,
		RenterServiceFee:  q.RenterServiceFee,
		DeliveryFee:       q.DeliveryFee,
		InsuranceFee:      q.InsuranceFee,
		DiscountAmount:    q.DiscountAmount,
		TotalRenterPrice:  q.TotalRenterPrice,
		LessorPlatformFee: q.LessorPlatformFee,
		LessorEarnings:    q.LessorEarnings,
		SecurityDeposit:   q.SecurityDeposit,
	}
}

func MapRentalToWire(r *domain.Rental) Rental {
	if r == nil {
		return Rental{}
	}
	out := Rental{
		Id:                 r.ID,
		ResourceId:         r.ResourceID,
		RenterId:           r.RenterID,
		LessorId:           r.LessorID,
		StartDate:          utils.FormatDate(r.StartDate),
		EndDate:            utils.FormatDate(r.EndDate),
		PickupTime:         r.PickupTime,
		ReturnTime:         r.ReturnTime,
		Status:             string(r.Status),
		TotalPriceCents:    r.TotalPriceCents,
		DeliveryRequested:  r.DeliveryRequested,
		InsuranceRequested: r.InsuranceRequested,
		CreatedOn:          r.CreatedOn.UTC().Format(time.RFC3339),
	}
	if r.CancellationReason != nil {
		out.CancellationReason = *r.CancellationReason
	}
	if r.CancellationDate != nil {
		out.CancellationDate = utils.FormatDate(*r.CancellationDate)
	}
	if r.ActualReturnDate != nil {
		out.ActualReturnDate = utils.FormatDate(*r.ActualReturnDate)
	}
	if r.SpecialNotes != nil {
		out.SpecialNotes = *r.SpecialNotes
	}
	return out
}

func MapStatusChangeToWire(c domain.RentalStatusChange) StatusChange {
	return StatusChange{
		From:      string(c.From),
		To:        string(c.To),
		ActorId:   c.ActorID,
		ActorRole: string(c.ActorRole),
		Note:      c.Note,
		CreatedOn: c.CreatedOn.UTC().Format(time.RFC3339),
	}
}

func MapBlockToWire(b *domain.BlockedInterval) BlockedInterval {
	if b == nil {
		return BlockedInterval{}
	}
	out := BlockedInterval{
		Id:        b.ID,
		StartDate: utils.FormatDate(b.StartDate),
		EndDate:   utils.FormatDate(b.EndDate),
		Kind:      string(b.Tag.Kind),
		AllDay:    b.AllDay,
	}
	// Hold and rental references are private to the parties.
	if b.Tag.Kind == domain.BlockKindManual {
		out.Reason = b.Tag.Reason
	}
	for _, s := range b.TimeSlots {
		out.TimeSlots = append(out.TimeSlots, TimeSlot{Start: s.Start, End: s.End})
	}
	return out
}

func MapDamageReportToWire(d *domain.DamageReport) DamageReport {
	if d == nil {
		return DamageReport{}
	}
	return DamageReport{
		Id:              d.ID,
		RentalId:        d.RentalID,
		ReporterId:      d.ReporterID,
		Status:          string(d.Status),
		Severity:        string(d.Severity),
		Description:     d.Description,
		RepairCostCents: d.RepairCostCents,
		PhotoUrls:       d.PhotoURLs,
		CreatedOn:       d.CreatedOn.UTC().Format(time.RFC3339),
	}
}

func MapNotificationToWire(n *domain.Notification) Notification {
	return Notification{
		Id:         n.ID,
		Title:      n.Title,
		Message:    n.Message,
		IsRead:     n.IsRead,
		Attributes: n.Attributes,
		CreatedOn:  n.CreatedOn.UTC().Format(time.RFC3339),
	}
}

func mapTimeSlots(in []TimeSlot) []domain.TimeSlot {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.TimeSlot, len(in))
	for i, s := range in {
		out[i] = domain.TimeSlot{Start: s.Start, End: s.End}
	}
	return out
}

// MapErrorToStatus converts a service error into a gRPC status. Domain
// errors keep their code as the status message prefix so clients can branch
// on PRICING_MISMATCH or DATES_UNAVAILABLE.
func MapErrorToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		logger.Error("Unhandled service error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}

	var code codes.Code
	switch de.Kind {
	case domain.KindValidation:
		code = codes.InvalidArgument
	case domain.KindConflict:
		if de.Code == domain.CodeDatesUnavailable {
			code = codes.AlreadyExists
		} else {
			code = codes.FailedPrecondition
		}
	case domain.KindNotFound:
		code = codes.NotFound
	case domain.KindForbidden:
		code = codes.PermissionDenied
	case domain.KindState:
		code = codes.FailedPrecondition
	case domain.KindExternal:
		code = codes.Unavailable
	default:
		code = codes.Unknown
	}
	return status.Error(code, de.Error())
}
