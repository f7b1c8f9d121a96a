package memory

import (
	"context"
	"sort"
	"time"

	"trailerhub-backend/internal/domain"
	"trailerhub-backend/internal/repository"

	"github.com/google/uuid"
)

type resourceRepo struct{ base }

func (r *resourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	return r.write(func(d *state, now time.Time) error {
		if res.ID == "" {
			res.ID = uuid.NewString()
		}
		if _, ok := d.resources[res.ID]; ok {
			return repository.ErrDuplicate
		}
		if res.AvailableWeekdays == 0 {
			res.AvailableWeekdays = domain.AllWeekdays
		}
		res.CreatedOn, res.UpdatedOn = now, now
		d.resources[res.ID] = *res
		return nil
	})
}

func (r *resourceRepo) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	var (
		res domain.Resource
		ok  bool
	)
	r.read(func(d *state) { res, ok = d.resources[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &res, nil
}

func (r *resourceRepo) UpdateWeeklySchedule(ctx context.Context, id string, mask domain.WeekdayMask) error {
	return r.write(func(d *state, now time.Time) error {
		res, ok := d.resources[id]
		if !ok {
			return repository.ErrNotFound
		}
		res.AvailableWeekdays = mask
		res.UpdatedOn = now
		d.resources[id] = res
		return nil
	})
}

type blockRepo struct{ base }

func (r *blockRepo) Create(ctx context.Context, b *domain.BlockedInterval) error {
	return r.write(func(d *state, now time.Time) error {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		b.StartDate = domain.NormalizeDate(b.StartDate)
		b.EndDate = domain.NormalizeDate(b.EndDate)
		for _, other := range d.blocks {
			if other.ResourceID == b.ResourceID && other.HolderID != b.HolderID && other.Range().Overlaps(b.Range()) {
				return repository.ErrOverlap
			}
		}
		b.CreatedOn, b.UpdatedOn = now, now
		d.blocks[b.ID] = *b
		return nil
	})
}

func (r *blockRepo) GetByID(ctx context.Context, id string) (*domain.BlockedInterval, error) {
	var (
		b  domain.BlockedInterval
		ok bool
	)
	r.read(func(d *state) { b, ok = d.blocks[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *blockRepo) filter(keep func(b *domain.BlockedInterval) bool) []domain.BlockedInterval {
	var out []domain.BlockedInterval
	r.read(func(d *state) {
		for _, b := range d.blocks {
			if keep(&b) {
				out = append(out, b)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

func (r *blockRepo) ListByTag(ctx context.Context, tag domain.BlockTag) ([]domain.BlockedInterval, error) {
	return r.filter(func(b *domain.BlockedInterval) bool {
		return b.Tag.Kind == tag.Kind && b.Tag.RefID == tag.RefID
	}), nil
}

func (r *blockRepo) FindOverlapping(ctx context.Context, resourceID string, dr domain.DateRange, excludeHolderID string) ([]domain.BlockedInterval, error) {
	return r.filter(func(b *domain.BlockedInterval) bool {
		if b.HolderID == excludeHolderID && b.IsHold() {
			return false
		}
		return b.ResourceID == resourceID && b.Range().Overlaps(dr)
	}), nil
}

func (r *blockRepo) ListByResource(ctx context.Context, resourceID string, dr domain.DateRange) ([]domain.BlockedInterval, error) {
	return r.filter(func(b *domain.BlockedInterval) bool {
		return b.ResourceID == resourceID && b.Range().Overlaps(dr)
	}), nil
}

func (r *blockRepo) deleteWhere(match func(b *domain.BlockedInterval) bool) (int64, error) {
	var n int64
	err := r.write(func(d *state, _ time.Time) error {
		for id, b := range d.blocks {
			if match(&b) {
				delete(d.blocks, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *blockRepo) DeleteHoldsByHolder(ctx context.Context, resourceID, holderID, keepIntentID string) (int64, error) {
	return r.deleteWhere(func(b *domain.BlockedInterval) bool {
		return b.ResourceID == resourceID && b.HolderID == holderID && b.IsHold() && b.Tag.RefID != keepIntentID
	})
}

func (r *blockRepo) DeleteByTag(ctx context.Context, tag domain.BlockTag) (int64, error) {
	return r.deleteWhere(func(b *domain.BlockedInterval) bool {
		return b.Tag.Kind == tag.Kind && b.Tag.RefID == tag.RefID
	})
}

func (r *blockRepo) DeleteByID(ctx context.Context, id string) error {
	n, err := r.deleteWhere(func(b *domain.BlockedInterval) bool { return b.ID == id })
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *blockRepo) Retag(ctx context.Context, from, to domain.BlockTag) (int64, error) {
	var n int64
	err := r.write(func(d *state, now time.Time) error {
		for id, b := range d.blocks {
			if b.Tag.Kind == from.Kind && b.Tag.RefID == from.RefID {
				b.Tag = to
				b.UpdatedOn = now
				d.blocks[id] = b
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *blockRepo) ListHoldsCreatedBefore(ctx context.Context, before time.Time) ([]domain.BlockedInterval, error) {
	return r.filter(func(b *domain.BlockedInterval) bool {
		return b.IsHold() && b.CreatedOn.Before(before)
	}), nil
}

type rentalRepo struct{ base }

func (r *rentalRepo) Create(ctx context.Context, rt *domain.Rental) error {
	return r.write(func(d *state, now time.Time) error {
		if rt.ID == "" {
			rt.ID = uuid.NewString()
		}
		if _, ok := d.rentals[rt.ID]; ok {
			return repository.ErrDuplicate
		}
		rt.CreatedOn, rt.UpdatedOn = now, now
		d.rentals[rt.ID] = *rt
		return nil
	})
}

func (r *rentalRepo) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	var (
		rt domain.Rental
		ok bool
	)
	r.read(func(d *state) { rt, ok = d.rentals[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rt, nil
}

func (r *rentalRepo) UpdateStatus(ctx context.Context, rt *domain.Rental, from domain.RentalStatus) error {
	return r.write(func(d *state, now time.Time) error {
		cur, ok := d.rentals[rt.ID]
		if !ok || cur.Status != from {
			return repository.ErrStaleStatus
		}
		cur.Status = rt.Status
		cur.CancellationReason = rt.CancellationReason
		cur.CancellationDate = rt.CancellationDate
		cur.ActualReturnDate = rt.ActualReturnDate
		cur.SpecialNotes = rt.SpecialNotes
		cur.UpdatedOn = now
		rt.UpdatedOn = now
		d.rentals[rt.ID] = cur
		return nil
	})
}

func (r *rentalRepo) list(keep func(rt *domain.Rental) bool, less func(a, b *domain.Rental) bool) []domain.Rental {
	var out []domain.Rental
	r.read(func(d *state) {
		for _, rt := range d.rentals {
			if keep(&rt) {
				out = append(out, rt)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}

func newestFirst(a, b *domain.Rental) bool {
	if a.CreatedOn.Equal(b.CreatedOn) {
		return a.ID < b.ID
	}
	return a.CreatedOn.After(b.CreatedOn)
}

func byEndDate(a, b *domain.Rental) bool {
	if a.EndDate.Equal(b.EndDate) {
		return a.ID < b.ID
	}
	return a.EndDate.Before(b.EndDate)
}

func paginate(all []domain.Rental, page, pageSize int32) ([]domain.Rental, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	total := int32(len(all))
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total
}

func (r *rentalRepo) ListByRenter(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	all := r.list(func(rt *domain.Rental) bool {
		return rt.RenterID == renterID && (status == "" || rt.Status == status)
	}, newestFirst)
	rentals, total := paginate(all, page, pageSize)
	return rentals, total, nil
}

func (r *rentalRepo) ListByLessor(ctx context.Context, lessorID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	all := r.list(func(rt *domain.Rental) bool {
		return rt.LessorID == lessorID && (status == "" || rt.Status == status)
	}, newestFirst)
	rentals, total := paginate(all, page, pageSize)
	return rentals, total, nil
}

func (r *rentalRepo) ListEndingBefore(ctx context.Context, status domain.RentalStatus, before time.Time) ([]domain.Rental, error) {
	day := domain.NormalizeDate(before)
	return r.list(func(rt *domain.Rental) bool {
		return rt.Status == status && rt.EndDate.Before(day)
	}, byEndDate), nil
}

func (r *rentalRepo) ListEndingOn(ctx context.Context, status domain.RentalStatus, day time.Time) ([]domain.Rental, error) {
	day = domain.NormalizeDate(day)
	return r.list(func(rt *domain.Rental) bool {
		return rt.Status == status && rt.EndDate.Equal(day)
	}, byEndDate), nil
}

func (r *rentalRepo) RecordStatusChange(ctx context.Context, c *domain.RentalStatusChange) error {
	return r.write(func(d *state, now time.Time) error {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.CreatedOn = now
		d.changes = append(d.changes, *c)
		return nil
	})
}

func (r *rentalRepo) ListStatusChanges(ctx context.Context, rentalID string) ([]domain.RentalStatusChange, error) {
	var out []domain.RentalStatusChange
	r.read(func(d *state) {
		for _, c := range d.changes {
			if c.RentalID == rentalID {
				out = append(out, c)
			}
		}
	})
	return out, nil
}

type paymentRepo struct{ base }

func (r *paymentRepo) Create(ctx context.Context, p *domain.PaymentRecord) error {
	return r.write(func(d *state, now time.Time) error {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		for _, other := range d.payments {
			if other.ID == p.ID || other.RentalID == p.RentalID || other.ExternalIntentID == p.ExternalIntentID {
				return repository.ErrDuplicate
			}
		}
		p.CreatedOn, p.UpdatedOn = now, now
		d.payments[p.ID] = *p
		return nil
	})
}

func (r *paymentRepo) find(match func(p *domain.PaymentRecord) bool) (*domain.PaymentRecord, error) {
	var found *domain.PaymentRecord
	r.read(func(d *state) {
		for _, p := range d.payments {
			if match(&p) {
				found = &p
				return
			}
		}
	})
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *paymentRepo) GetByRentalID(ctx context.Context, rentalID string) (*domain.PaymentRecord, error) {
	return r.find(func(p *domain.PaymentRecord) bool { return p.RentalID == rentalID })
}

func (r *paymentRepo) GetByIntentID(ctx context.Context, intentID string) (*domain.PaymentRecord, error) {
	return r.find(func(p *domain.PaymentRecord) bool { return p.ExternalIntentID == intentID })
}

func (r *paymentRepo) Update(ctx context.Context, p *domain.PaymentRecord) error {
	return r.write(func(d *state, now time.Time) error {
		cur, ok := d.payments[p.ID]
		if !ok {
			return repository.ErrNotFound
		}
		for id, other := range d.payments {
			if id != p.ID && other.ExternalIntentID == p.ExternalIntentID {
				return repository.ErrDuplicate
			}
		}
		cur.AmountCents = p.AmountCents
		cur.Currency = p.Currency
		cur.Status = p.Status
		cur.ExternalIntentID = p.ExternalIntentID
		cur.UpdatedOn = now
		p.UpdatedOn = now
		d.payments[p.ID] = cur
		return nil
	})
}

func (r *paymentRepo) ListPendingBefore(ctx context.Context, before time.Time) ([]domain.PaymentRecord, error) {
	var out []domain.PaymentRecord
	r.read(func(d *state) {
		for _, p := range d.payments {
			if p.Status == domain.PaymentStatusPending && p.UpdatedOn.Before(before) {
				out = append(out, p)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedOn.Before(out[j].UpdatedOn) })
	return out, nil
}

func (r *paymentRepo) RecordWebhook(ctx context.Context, w *domain.PaymentWebhook) error {
	return r.write(func(d *state, now time.Time) error {
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
		w.CreatedOn = now
		d.webhooks = append(d.webhooks, *w)
		return nil
	})
}

type damageRepo struct{ base }

func (r *damageRepo) Create(ctx context.Context, dr *domain.DamageReport) error {
	return r.write(func(d *state, now time.Time) error {
		if dr.ID == "" {
			dr.ID = uuid.NewString()
		}
		dr.CreatedOn, dr.UpdatedOn = now, now
		d.damage[dr.ID] = *dr
		return nil
	})
}

func (r *damageRepo) GetByID(ctx context.Context, id string) (*domain.DamageReport, error) {
	var (
		dr domain.DamageReport
		ok bool
	)
	r.read(func(d *state) { dr, ok = d.damage[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &dr, nil
}

func (r *damageRepo) Update(ctx context.Context, dr *domain.DamageReport) error {
	return r.write(func(d *state, now time.Time) error {
		cur, ok := d.damage[dr.ID]
		if !ok {
			return repository.ErrNotFound
		}
		cur.Status = dr.Status
		cur.RepairCostCents = dr.RepairCostCents
		cur.UpdatedOn = now
		dr.UpdatedOn = now
		d.damage[dr.ID] = cur
		return nil
	})
}

func (r *damageRepo) ListByRental(ctx context.Context, rentalID string) ([]domain.DamageReport, error) {
	var out []domain.DamageReport
	r.read(func(d *state) {
		for _, dr := range d.damage {
			if dr.RentalID == rentalID {
				out = append(out, dr)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.Before(out[j].CreatedOn) })
	return out, nil
}

type notificationRepo struct{ base }

func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return r.write(func(d *state, now time.Time) error {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		n.CreatedOn = now
		d.notifications = append(d.notifications, *n)
		return nil
	})
}

func (r *notificationRepo) List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error) {
	var mine []domain.Notification
	r.read(func(d *state) {
		for i := len(d.notifications) - 1; i >= 0; i-- {
			if d.notifications[i].UserID == userID {
				mine = append(mine, d.notifications[i])
			}
		}
	})
	total := int32(len(mine))
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return mine[offset:end], total, nil
}

func (r *notificationRepo) MarkAsRead(ctx context.Context, id, userID string) error {
	return r.write(func(d *state, _ time.Time) error {
		for i := range d.notifications {
			if d.notifications[i].ID == id && d.notifications[i].UserID == userID {
				d.notifications[i].IsRead = true
				return nil
			}
		}
		return repository.ErrNotFound
	})
}
