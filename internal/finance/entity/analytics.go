package entity

import "time"

type CategoryTotal struct {
	Category Category
	Total    Amount
	Count    int64
}

// BucketTotal is the sum of one transaction type inside a time bucket that
// starts at Start.
type BucketTotal struct {
	Start time.Time
	Type  TransactionType
	Total Amount
	Count int64
}

type TransactionStats struct {
	Totals         Totals
	ThisMonthCount int64
	CategoriesUsed int64
	FirstDate      *time.Time
	LastDate       *time.Time
}
