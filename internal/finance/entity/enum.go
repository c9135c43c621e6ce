package entity

import "strings"

type TransactionType int16

const (
	TransactionTypeUnknown TransactionType = 0
	TransactionTypeIncome  TransactionType = 1
	TransactionTypeExpense TransactionType = 2
)

func ParseTransactionType(str string) TransactionType {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "income":
		return TransactionTypeIncome
	case "expense":
		return TransactionTypeExpense
	default:
		return TransactionTypeUnknown
	}
}

func (t TransactionType) String() string {
	switch t {
	case TransactionTypeIncome:
		return "income"
	case TransactionTypeExpense:
		return "expense"
	default:
		return "unknown"
	}
}

func (t TransactionType) IsUnknown() bool {
	return t != TransactionTypeIncome && t != TransactionTypeExpense
}

type RecurringFrequency int16

const (
	RecurringFrequencyNone    RecurringFrequency = 0
	RecurringFrequencyDaily   RecurringFrequency = 1
	RecurringFrequencyWeekly  RecurringFrequency = 2
	RecurringFrequencyMonthly RecurringFrequency = 3
	RecurringFrequencyYearly  RecurringFrequency = 4
)

func ParseRecurringFrequency(str string) RecurringFrequency {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "daily":
		return RecurringFrequencyDaily
	case "weekly":
		return RecurringFrequencyWeekly
	case "monthly":
		return RecurringFrequencyMonthly
	case "yearly":
		return RecurringFrequencyYearly
	default:
		return RecurringFrequencyNone
	}
}

func (f RecurringFrequency) String() string {
	switch f {
	case RecurringFrequencyDaily:
		return "daily"
	case RecurringFrequencyWeekly:
		return "weekly"
	case RecurringFrequencyMonthly:
		return "monthly"
	case RecurringFrequencyYearly:
		return "yearly"
	default:
		return ""
	}
}

type Category string

const (
	CategoryBasicNeeds    Category = "Basic Needs"
	CategoryClothes       Category = "Clothes"
	CategoryEntertainment Category = "Entertainment"
	CategoryOther         Category = "Other"
	CategorySalary        Category = "Salary"
	CategoryFreelance     Category = "Freelance"
	CategoryInvestment    Category = "Investment"
	CategoryGift          Category = "Gift"
)

func (c Category) String() string {
	return string(c)
}

// CategoriesByType lists the categories a transaction of each type may use.
// Other is shared by both types.
//
//nolint:gochecknoglobals // fixed catalogue
var CategoriesByType = map[TransactionType][]Category{
	TransactionTypeExpense: {CategoryBasicNeeds, CategoryClothes, CategoryEntertainment, CategoryOther},
	TransactionTypeIncome:  {CategorySalary, CategoryFreelance, CategoryInvestment, CategoryGift, CategoryOther},
}

// ParseCategory matches a category name case-insensitively. The second
// return is false for names outside the catalogue.
func ParseCategory(str string) (Category, bool) {
	str = strings.TrimSpace(str)
	for _, list := range CategoriesByType {
		for _, c := range list {
			if strings.EqualFold(str, string(c)) {
				return c, true
			}
		}
	}
	return "", false
}

func (c Category) AllowedFor(t TransactionType) bool {
	for _, x := range CategoriesByType[t] {
		if x == c {
			return true
		}
	}
	return false
}

// Period names a reporting window relative to now.
type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodAll    Period = "all"
	PeriodCustom Period = "custom"
)

func ParsePeriod(str string) (Period, bool) {
	p := Period(strings.ToLower(strings.TrimSpace(str)))
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll, PeriodCustom:
		return p, true
	case "":
		return PeriodAll, true
	default:
		return "", false
	}
}

// Granularity is the bucket width used by trend reports.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(str string) (Granularity, bool) {
	g := Granularity(strings.ToLower(strings.TrimSpace(str)))
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, true
	case "":
		return GranularityMonth, true
	default:
		return "", false
	}
}
