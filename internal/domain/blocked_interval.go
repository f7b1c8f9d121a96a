package domain

import (
	"strings"
	"time"
)

type BlockKind string

const (
	BlockKindHold   BlockKind = "HOLD"
	BlockKindRental BlockKind = "RENTAL"
	BlockKindManual BlockKind = "MANUAL"
)

// BlockTag identifies why an interval blocks the calendar. HOLD and RENTAL
// carry the payment intent id or rental id in RefID; MANUAL carries a free
// text Reason.
type BlockTag struct {
	Kind   BlockKind `json:"kind"`
	RefID  string    `json:"ref_id,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

func HoldTag(intentID string) BlockTag {
	return BlockTag{Kind: BlockKindHold, RefID: intentID}
}

func RentalTag(rentalID string) BlockTag {
	return BlockTag{Kind: BlockKindRental, RefID: rentalID}
}

func ManualTag(reason string) BlockTag {
	return BlockTag{Kind: BlockKindManual, Reason: reason}
}

// String renders the legacy textual form (HOLD:<id>, RENTAL:<id>, or the
// bare manual reason) used in logs and event payloads.
func (t BlockTag) String() string {
	switch t.Kind {
	case BlockKindHold, BlockKindRental:
		return string(t.Kind) + ":" + t.RefID
	default:
		return t.Reason
	}
}

// ParseBlockTag accepts the legacy textual form.
func ParseBlockTag(s string) BlockTag {
	if id, ok := strings.CutPrefix(s, string(BlockKindHold)+":"); ok {
		return HoldTag(id)
	}
	if id, ok := strings.CutPrefix(s, string(BlockKindRental)+":"); ok {
		return RentalTag(id)
	}
	return ManualTag(s)
}

type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BlockedInterval reserves a date range of a resource's calendar for a holder.
type BlockedInterval struct {
	ID         string     `json:"id"`
	ResourceID string     `json:"resource_id"`
	HolderID   string     `json:"holder_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	AllDay     bool       `json:"all_day"`
	TimeSlots  []TimeSlot `json:"time_slots,omitempty"`
	Tag        BlockTag   `json:"tag"`
	CreatedOn  time.Time  `json:"created_on"`
	UpdatedOn  time.Time  `json:"updated_on"`
}

func (b *BlockedInterval) Range() DateRange {
	return NewDateRange(b.StartDate, b.EndDate)
}

func (b *BlockedInterval) IsHold() bool {
	return b.Tag.Kind == BlockKindHold
}
