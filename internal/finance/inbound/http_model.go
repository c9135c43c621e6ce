package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/finance/usecase"
)

const dateLayout = time.DateOnly

type TransactionRequest struct {
	Type               string   `json:"type"`
	Amount             float64  `json:"amount"`
	Category           string   `json:"category"`
	Description        string   `json:"description"`
	Date               string   `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Tags               []string `json:"tags,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	IsRecurring        bool     `json:"is_recurring"`
	RecurringFrequency string   `json:"recurring_frequency,omitempty"`
}

type TransactionBulkCreateRequest struct {
	Transactions []TransactionRequest `json:"transactions"`
}

type TransactionBulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type TransactionResponse struct {
	ID                 int64     `json:"id,string"`
	Type               string    `json:"type"`
	Amount             float64   `json:"amount"`
	Category           string    `json:"category"`
	Description        string    `json:"description"`
	Date               string    `json:"date"`
	Tags               []string  `json:"tags"`
	Notes              string    `json:"notes"`
	IsRecurring        bool      `json:"is_recurring"`
	RecurringFrequency string    `json:"recurring_frequency,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type TransactionCreateResponse struct {
	TransactionResponse
}

func (TransactionCreateResponse) Message() string {
	return "Transaction created successfully"
}

func (TransactionCreateResponse) StatusCode() int {
	return http.StatusCreated
}

type TransactionBulkCreateResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Created      int                   `json:"created"`
}

func (TransactionBulkCreateResponse) Message() string {
	return "Transactions created successfully"
}

func (TransactionBulkCreateResponse) StatusCode() int {
	return http.StatusCreated
}

type TransactionBulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

type TotalsResponse struct {
	Income       float64 `json:"income"`
	Expense      float64 `json:"expense"`
	Net          float64 `json:"net"`
	IncomeCount  int64   `json:"income_count"`
	ExpenseCount int64   `json:"expense_count"`
	Count        int64   `json:"count"`
}

type TransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Summary      TotalsResponse        `json:"summary"`

	page       int32
	size       int32
	total      int64
	totalPages int64
	hasNext    bool
	hasPrev    bool
}

func (t TransactionsResponse) Meta() map[string]any {
	return map[string]any{
		"page":        t.page,
		"size":        t.size,
		"total":       t.total,
		"total_pages": t.totalPages,
		"has_next":    t.hasNext,
		"has_prev":    t.hasPrev,
	}
}

type CategoriesResponse struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

type SummaryResponse struct {
	Period             string                `json:"period"`
	From               *string               `json:"from"`
	To                 *string               `json:"to"`
	Totals             TotalsResponse        `json:"totals"`
	SavingsRate        float64               `json:"savings_rate"`
	AvgIncome          float64               `json:"avg_income"`
	AvgExpense         float64               `json:"avg_expense"`
	RecentTransactions []TransactionResponse `json:"recent_transactions"`
}

type TrendPointResponse struct {
	Period  string  `json:"period"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
	Count   int64   `json:"count"`
}

type TrendsResponse struct {
	Granularity string               `json:"granularity"`
	Points      []TrendPointResponse `json:"points"`
}

type CategoryShareResponse struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Count      int64   `json:"count"`
	Average    float64 `json:"average"`
	Percentage float64 `json:"percentage"`
}

type CategoryBreakdownResponse struct {
	Type       string                  `json:"type"`
	Period     string                  `json:"period"`
	Total      float64                 `json:"total"`
	Categories []CategoryShareResponse `json:"categories"`
}

type MonthComparisonResponse struct {
	TrendPointResponse
	ExpenseChange *float64 `json:"expense_change"`
	SavingsRate   float64  `json:"savings_rate"`
}

type MonthlyComparisonResponse struct {
	Months []MonthComparisonResponse `json:"months"`
}

type GoalsResponse struct {
	Totals        TotalsResponse `json:"totals"`
	SavingsRate   float64        `json:"savings_rate"`
	TargetRate    float64        `json:"target_rate"`
	TargetSavings float64        `json:"target_savings"`
	Shortfall     float64        `json:"shortfall"`
	OnTrack       bool           `json:"on_track"`
}

type StatsResponse struct {
	Totals         TotalsResponse `json:"totals"`
	ThisMonthCount int64          `json:"this_month_count"`
	CategoriesUsed int64          `json:"categories_used"`
	FirstDate      *string        `json:"first_date"`
	LastDate       *string        `json:"last_date"`
	ActiveDays     int64          `json:"active_days"`
}

type DataExportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Count     int       `json:"count"`
}

func (DataExportResponse) Message() string {
	return "Export is ready to download"
}

func toTransactionResponse(tx entity.Transaction) TransactionResponse {
	tags := tx.Tags
	if tags == nil {
		tags = []string{}
	}

	return TransactionResponse{
		ID:                 tx.ID,
		Type:               tx.Type.String(),
		Amount:             tx.Amount.Float(),
		Category:           tx.Category.String(),
		Description:        tx.Description,
		Date:               tx.Date.Format(dateLayout),
		Tags:               tags,
		Notes:              tx.Notes,
		IsRecurring:        tx.IsRecurring,
		RecurringFrequency: tx.RecurringFrequency.String(),
		CreatedAt:          tx.CreatedAt,
		UpdatedAt:          tx.UpdatedAt,
	}
}

func toTransactionResponses(txs []entity.Transaction) []TransactionResponse {
	resp := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, toTransactionResponse(tx))
	}
	return resp
}

func toTotalsResponse(t entity.Totals) TotalsResponse {
	return TotalsResponse{
		Income:       t.Income.Float(),
		Expense:      t.Expense.Float(),
		Net:          t.Net().Float(),
		IncomeCount:  t.IncomeCount,
		ExpenseCount: t.ExpenseCount,
		Count:        t.Count(),
	}
}

func toTrendPointResponse(p usecase.TrendPoint, layout string) TrendPointResponse {
	return TrendPointResponse{
		Period:  p.Start.Format(layout),
		Income:  p.Income.Float(),
		Expense: p.Expense.Float(),
		Net:     p.Net().Float(),
		Count:   p.Count,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func toCategoryNames(cs []entity.Category) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.String())
	}
	return out
}
