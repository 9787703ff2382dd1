package finance

import (
	"fmt"
	"time"

	"liyantis-backend/internal/domain"
)

// InstallmentPatch carries the editable fields of one installment. Nil fields are left as is.
type InstallmentPatch struct {
	Date    *string         `json:"date,omitempty"`
	Percent *domain.Percent `json:"percent,omitempty"`
	Stage   *domain.Stage   `json:"stage,omitempty"`
}

// AddInstallment appends a During Construction entry at 0% dated the current
// month of next year. An empty list gets the pinned Down Payment instead.
func AddInstallment(list []domain.Installment, downPayment float64, now time.Time) []domain.Installment {
	out := make([]domain.Installment, len(list), len(list)+1)
	copy(out, list)

	next := domain.Installment{
		Date:    fmt.Sprintf("%04d-%02d", now.Year()+1, int(now.Month())),
		Percent: 0,
		Stage:   domain.StageDuringConstruction,
	}
	if len(out) == 0 {
		next.Stage = domain.StageDownPayment
		next.Percent = domain.Percent(downPayment)
	}
	out = append(out, next)
	return normalize(out, downPayment)
}

// RemoveInstallment drops the entry at ordinal and re-indexes. Whatever ends
// up first is pinned to the down payment.
func RemoveInstallment(list []domain.Installment, ordinal int, downPayment float64) ([]domain.Installment, error) {
	idx := indexOf(list, ordinal)
	if idx < 0 {
		return nil, ErrInstallmentNotFound
	}
	out := make([]domain.Installment, 0, len(list)-1)
	out = append(out, list[:idx]...)
	out = append(out, list[idx+1:]...)
	return normalize(out, downPayment), nil
}

// UpdateInstallment edits date, percent or stage of one entry. The first
// entry's percent belongs to the down payment and cannot be patched.
func UpdateInstallment(list []domain.Installment, ordinal int, patch InstallmentPatch, downPayment float64) ([]domain.Installment, error) {
	idx := indexOf(list, ordinal)
	if idx < 0 {
		return nil, ErrInstallmentNotFound
	}
	if idx == 0 && patch.Percent != nil && patch.Percent.Float() != downPayment {
		return nil, ErrDownPaymentPinned
	}
	if patch.Stage != nil {
		if !patch.Stage.Valid() {
			return nil, ErrInvalidStage
		}
		if (idx == 0) != (*patch.Stage == domain.StageDownPayment) {
			return nil, ErrDownPaymentPosition
		}
	}

	out := make([]domain.Installment, len(list))
	copy(out, list)
	in := &out[idx]
	if patch.Date != nil {
		in.Date = *patch.Date
	}
	if patch.Percent != nil {
		in.Percent = *patch.Percent
	}
	if patch.Stage != nil {
		in.Stage = *patch.Stage
	}
	return normalize(out, downPayment), nil
}

// TotalPercent is the share of the price the plan covers: percents are
// cumulative, so that is the last entry's. Unparseable percents already decoded to 0.
func TotalPercent(list []domain.Installment) float64 {
	if len(list) == 0 {
		return 0
	}
	return list[len(list)-1].Percent.Float()
}

func indexOf(list []domain.Installment, ordinal int) int {
	for i, in := range list {
		if in.Ordinal == ordinal {
			return i
		}
	}
	return -1
}

// normalize renumbers 1..N and pins position 1 to the down payment.
func normalize(list []domain.Installment, downPayment float64) []domain.Installment {
	for i := range list {
		list[i].Ordinal = i + 1
	}
	if len(list) > 0 {
		list[0].Stage = domain.StageDownPayment
		list[0].Percent = domain.Percent(downPayment)
	}
	return list
}
