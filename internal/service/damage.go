package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository"
)

type damageService struct {
	repos       repository.Repos
	publisher   events.Publisher
	transitions *transitioner
}

func NewDamageService(tx repository.Transactor, repos repository.Repos, publisher events.Publisher, m *metrics.Metrics) DamageService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &damageService{
		repos:       repos,
		publisher:   publisher,
		transitions: &transitioner{tx: tx, publisher: publisher, metrics: m},
	}
}

// ReportDamage files a report against an active rental. A high severity
// report moves the rental to DISPUTED whoever filed it.
func (s *damageService) ReportDamage(ctx context.Context, actor domain.Actor, in DamageInput) (*domain.DamageReport, error) {
	logger.EnterMethod("damageService.ReportDamage", "rentalID", in.RentalID, "reporterID", actor.UserID, "severity", in.Severity)

	desc := strings.TrimSpace(in.Description)
	switch {
	case desc == "":
		return nil, domain.NewMissingField("description")
	case !in.Severity.Valid():
		return nil, domain.NewInvalidField("severity", "must be LOW, MEDIUM or HIGH")
	case in.RepairCostCents != nil && *in.RepairCostCents < 0:
		return nil, domain.NewInvalidField("repairCost", "must not be negative")
	}

	rental, err := loadRental(ctx, s.repos.Rentals, in.RentalID)
	if err != nil {
		return nil, err
	}
	if !rental.IsParty(actor.UserID) {
		return nil, domain.NewForbidden("only the renter or lessor can report damage")
	}
	if rental.Status != domain.RentalStatusActive {
		return nil, domain.NewInvalidState(fmt.Sprintf("damage can only be reported on active rentals, rental is %s", rental.Status))
	}

	report := &domain.DamageReport{
		RentalID:        rental.ID,
		ResourceID:      rental.ResourceID,
		ReporterID:      actor.UserID,
		Status:          domain.DamageStatusPending,
		Severity:        in.Severity,
		Description:     desc,
		RepairCostCents: in.RepairCostCents,
		PhotoURLs:       in.PhotoURLs,
	}
	if err := s.repos.Damage.Create(ctx, report); err != nil {
		logger.ExitMethodWithError("damageService.ReportDamage", err, "rentalID", rental.ID)
		return nil, err
	}

	evt := events.New(events.TypeDamageReported, rental.ID, rental.Counterparty(actor.UserID))
	evt.ResourceID = rental.ResourceID
	evt.ActorID = actor.UserID
	evt.Data["report_id"] = report.ID
	evt.Data["severity"] = string(report.Severity)
	publish(ctx, s.publisher, evt)

	if report.Severity == domain.DamageSeverityHigh {
		note := "high severity damage report " + report.ID
		if err := s.transitions.apply(ctx, rental, domain.RentalStatusDisputed, domain.SystemActor, note, nil); err != nil {
			logger.Error("Failed to escalate rental to dispute", "rentalID", rental.ID, "reportID", report.ID, "error", err)
		}
	}

	logger.ExitMethod("damageService.ReportDamage", "reportID", report.ID)
	return report, nil
}

// RespondToDamageReport lets the other party accept or dispute a pending
// report. A dispute escalates the rental when it can still move to DISPUTED.
func (s *damageService) RespondToDamageReport(ctx context.Context, actor domain.Actor, reportID string, accept bool) (*domain.DamageReport, error) {
	report, err := s.repos.Damage.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.Error{Kind: domain.KindNotFound, Code: domain.CodeDamageNotFound, Message: fmt.Sprintf("damage report %s not found", reportID)}
		}
		return nil, err
	}
	if report.Status != domain.DamageStatusPending {
		return nil, domain.NewInvalidState(fmt.Sprintf("damage report is already %s", report.Status))
	}
	rental, err := loadRental(ctx, s.repos.Rentals, report.RentalID)
	if err != nil {
		return nil, err
	}
	if !actor.IsPrivileged() && (!rental.IsParty(actor.UserID) || actor.UserID == report.ReporterID) {
		return nil, domain.NewForbidden("only the other party can respond to a damage report")
	}

	report.Status = domain.DamageStatusAccepted
	if !accept {
		report.Status = domain.DamageStatusDisputed
	}
	if err := s.repos.Damage.Update(ctx, report); err != nil {
		return nil, err
	}

	evt := events.New(events.TypeDamageResolved, rental.ID, report.ReporterID)
	evt.ResourceID = rental.ResourceID
	evt.ActorID = actor.UserID
	evt.Data["report_id"] = report.ID
	evt.Data["status"] = string(report.Status)
	publish(ctx, s.publisher, evt)

	if !accept && domain.CanTransition(domain.ActorRoleSystem, rental.Status, domain.RentalStatusDisputed) {
		if err := s.transitions.apply(ctx, rental, domain.RentalStatusDisputed, domain.SystemActor, "damage report disputed", nil); err != nil {
			logger.Error("Failed to escalate rental to dispute", "rentalID", rental.ID, "reportID", report.ID, "error", err)
		}
	}
	return report, nil
}

func (s *damageService) ListDamageReports(ctx context.Context, actor domain.Actor, rentalID string) ([]domain.DamageReport, error) {
	rental, err := loadRental(ctx, s.repos.Rentals, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.IsParty(actor.UserID) && !actor.IsPrivileged() {
		return nil, domain.NewForbidden("not a party to this rental")
	}
	return s.repos.Damage.ListByRental(ctx, rentalID)
}
