package usecase

import (
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/validator"
)

// TransactionFields are the user-editable attributes shared by create,
// bulk create and update.
type TransactionFields struct {
	Type               string    `validate:"required,oneof=income expense"`
	Amount             float64   `validate:"gt=0"`
	Category           string    `validate:"required"`
	Description        string    `validate:"required,max=200"`
	Date               time.Time // zero means today
	Tags               []string  `validate:"max=10,dive,max=20"`
	Notes              string    `validate:"max=500"`
	IsRecurring        bool
	RecurringFrequency string `validate:"omitempty,oneof=daily weekly monthly yearly"`
}

func (f *TransactionFields) normalize() {
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	f.Category = strings.TrimSpace(f.Category)
	f.Description = strings.TrimSpace(f.Description)
	f.Notes = strings.TrimSpace(f.Notes)
	f.RecurringFrequency = strings.ToLower(strings.TrimSpace(f.RecurringFrequency))
	f.Tags = lo.Uniq(lo.Compact(lo.Map(f.Tags, func(t string, _ int) string {
		return strings.ToLower(strings.TrimSpace(t))
	})))
}

// resolved is the validated form of TransactionFields.
type resolved struct {
	Type               entity.TransactionType
	Amount             entity.Amount
	Category           entity.Category
	Description        string
	Date               time.Time
	Tags               []string
	Notes              string
	IsRecurring        bool
	RecurringFrequency entity.RecurringFrequency
}

// resolveFields validates f and returns field errors keyed like the
// validator does, so callers can merge them.
func (s *Usecase) resolveFields(f TransactionFields) (*resolved, validator.V10ValidationError) {
	f.normalize()

	fieldErrs := validator.V10ValidationError{}
	if err := s.validator.Validate(f); err != nil {
		var verr validator.V10ValidationError
		if errors.As(err, &verr) {
			fieldErrs = verr
		} else {
			fieldErrs["transaction"] = err.Error()
		}
	}

	amount, ok := entity.ParseAmount(f.Amount)
	if !ok {
		fieldErrs["amount"] = "amount must have at most 2 decimal places"
	}

	typ := entity.ParseTransactionType(f.Type)
	category, ok := entity.ParseCategory(f.Category)
	switch {
	case f.Category == "":
	case !ok:
		fieldErrs["category"] = "category is not supported"
	case !typ.IsUnknown() && !category.AllowedFor(typ):
		fieldErrs["category"] = "category " + category.String() + " is not allowed for " + typ.String()
	}

	freq := entity.ParseRecurringFrequency(f.RecurringFrequency)
	if f.IsRecurring && freq == entity.RecurringFrequencyNone {
		fieldErrs["recurring_frequency"] = "recurring_frequency is required for recurring transactions"
	}
	if !f.IsRecurring {
		freq = entity.RecurringFrequencyNone
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	date := s.today()
	if !f.Date.IsZero() {
		date = truncateDay(f.Date)
	}

	return &resolved{
		Type:               typ,
		Amount:             amount,
		Category:           category,
		Description:        f.Description,
		Date:               date,
		Tags:               f.Tags,
		Notes:              f.Notes,
		IsRecurring:        f.IsRecurring,
		RecurringFrequency: freq,
	}, nil
}
