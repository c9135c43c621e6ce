package inbound

import (
	"strconv"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/finance/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/router"
)

const headerIdempotencyKey = "Idempotency-Key"

// HTTPEndpoint exposes HTTP handlers for transactions and analytics.
type HTTPEndpoint struct {
	uc uc
}

// TransactionList returns a filtered page of transactions.
// @Summary List transactions
// @Description Returns the authenticated user's transactions with pagination and a summary of the whole filtered set.
// @Tags Finance, Transactions
// @Security BearerAuth
// @Produce json
// @Param type query string false "income or expense"
// @Param category query string false "Category name"
// @Param date_from query string false "Inclusive start day (YYYY-MM-DD)"
// @Param date_to query string false "Inclusive end day (YYYY-MM-DD)"
// @Param month query int false "Month 1-12, used with year"
// @Param year query int false "Year"
// @Param search query string false "Search in description, notes and tags"
// @Param sort_by query string false "date|amount|category|created_at"
// @Param sort_order query string false "asc|desc"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} router.successResponse{data=TransactionsResponse} "Transaction list"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/transactions [get]
func (h *HTTPEndpoint) TransactionList(r *router.Request) (any, error) {
	dateFrom, err := r.GetQueryDate("date_from", dateLayout)
	if err != nil {
		return nil, err
	}
	dateTo, err := r.GetQueryDate("date_to", dateLayout)
	if err != nil {
		return nil, err
	}
	month, err := r.GetQueryInt32("month")
	if err != nil {
		return nil, err
	}
	year, err := r.GetQueryInt32("year")
	if err != nil {
		return nil, err
	}
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.TransactionList(r.Context(), usecase.TransactionListInput{
		Type:      r.GetQuery("type"),
		Category:  r.GetQuery("category"),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		Month:     month,
		Year:      year,
		Search:    r.GetQuery("search"),
		SortBy:    r.GetQuery("sort_by"),
		SortOrder: r.GetQuery("sort_order"),
		Page:      page,
		Size:      size,
	})
	if err != nil {
		return nil, err
	}

	return TransactionsResponse{
		Transactions: toTransactionResponses(out.Items),
		Summary:      toTotalsResponse(out.Summary),
		page:         out.Page,
		size:         out.Size,
		total:        out.Total,
		totalPages:   out.TotalPages,
		hasNext:      out.HasNext(),
		hasPrev:      out.HasPrev(),
	}, nil
}

// TransactionDetail returns one transaction.
// @Summary Transaction detail
// @Tags Finance, Transactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} router.successResponse{data=TransactionResponse} "Transaction"
// @Failure 400 {object} router.errorResponse "Invalid transaction id"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Transaction not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/transactions/{id} [get]
func (h *HTTPEndpoint) TransactionDetail(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	tx, err := h.uc.TransactionDetail(r.Context(), usecase.TransactionDetailInput{ID: id})
	if err != nil {
		return nil, err
	}

	return toTransactionResponse(*tx), nil
}

// TransactionCreate records a transaction.
// @Summary Create transaction
// @Description Records an income or expense. Send an Idempotency-Key header to make retries safe.
// @Tags Finance, Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client generated key, at most 128 characters"
// @Param request body TransactionRequest true "Transaction payload"
// @Success 201 {object} router.successResponse{data=TransactionCreateResponse} "Transaction created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 409 {object} router.errorResponse "Idempotency key already used"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/transactions [post]
func (h *HTTPEndpoint) TransactionCreate(r *router.Request) (any, error) {
	var req TransactionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	fields, err := req.fields()
	if err != nil {
		return nil, err
	}

	tx, err := h.uc.TransactionCreate(r.Context(), usecase.TransactionCreateInput{
		IdempotencyKey:    r.Header.Get(headerIdempotencyKey),
		TransactionFields: fields,
	})
	if err != nil {
		return nil, err
	}

	return TransactionCreateResponse{toTransactionResponse(*tx)}, nil
}

// TransactionBulkCreate records many transactions at once.
// @Summary Bulk create transactions
// @Description Records up to 100 transactions atomically. Validation errors are keyed by item index.
// @Tags Finance, Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body TransactionBulkCreateRequest true "Transactions payload"
// @Success 201 {object} router.successResponse{data=TransactionBulkCreateResponse} "Transactions created"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/transactions/bulk [post]
func (h *HTTPEndpoint) TransactionBulkCreate(r *router.Request) (any, error) {
	var req TransactionBulkCreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	items := make([]usecase.TransactionFields, 0, len(req.Transactions))
	for _, it := range req.Transactions {
		fields, err := it.fields()
		if err != nil {
			return nil, err
		}
		items = append(items, fields)
	}

	txs, err := h.uc.TransactionBulkCreate(r.Context(), usecase.TransactionBulkCreateInput{Transactions: items})
	if err != nil {
		return nil, err
	}

	return TransactionBulkCreateResponse{
		Transactions: toTransactionResponses(txs),
		Created:      len(txs),
	}, nil
}

// TransactionUpdate replaces the fields of a transaction.
// @Summary Update transaction
// @Tags Finance, Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body TransactionRequest true "Transaction payload"
// @Success 200 {object} router.successResponse{data=TransactionResponse} "Transaction updated"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Transaction not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/transactions/{id} [put]
func (h *HTTPEndpoint) TransactionUpdate(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req TransactionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	fields, err := req.fields()
	if err != nil {
		return nil, err
	}

	tx, err := h.uc.TransactionUpdate(r.Context(), usecase.TransactionUpdateInput{ID: id, TransactionFields: fields})
	if err != nil {
		return nil, err
	}

	return toTransactionResponse(*tx), nil
}

// TransactionDelete removes a transaction.
// @Summary Delete transaction
// @Tags Finance, Transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid transaction id"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Transaction not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/transactions/{id} [delete]
func (h *HTTPEndpoint) TransactionDelete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.TransactionDelete(r.Context(), usecase.TransactionDeleteInput{ID: id})
}

// TransactionBulkDelete removes many transactions at once.
// @Summary Bulk delete transactions
// @Description Deletes up to 100 transactions owned by the caller. Unknown ids are ignored.
// @Tags Finance, Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body TransactionBulkDeleteRequest true "Transaction ids"
// @Success 200 {object} router.successResponse{data=TransactionBulkDeleteResponse} "Deleted count"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/transactions/bulk-delete [post]
func (h *HTTPEndpoint) TransactionBulkDelete(r *router.Request) (any, error) {
	var req TransactionBulkDeleteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, goerror.NewInvalidFormat("Invalid transaction id " + raw)
		}
		ids = append(ids, id)
	}

	n, err := h.uc.TransactionBulkDelete(r.Context(), usecase.TransactionBulkDeleteInput{IDs: ids})
	if err != nil {
		return nil, err
	}

	return TransactionBulkDeleteResponse{Deleted: n}, nil
}

// Categories lists the supported categories per transaction type.
// @Summary List categories
// @Tags Finance, Transactions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=CategoriesResponse} "Categories"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Router /api/v1/finance/categories [get]
func (h *HTTPEndpoint) Categories(*router.Request) (any, error) {
	out := h.uc.Categories()

	return CategoriesResponse{
		Income:  toCategoryNames(out.Income),
		Expense: toCategoryNames(out.Expense),
	}, nil
}

// Summary returns totals for a period.
// @Summary Financial summary
// @Tags Finance, Analytics
// @Security BearerAuth
// @Produce json
// @Param period query string false "today|week|month|year|all|custom"
// @Param date_from query string false "Inclusive start day for custom period (YYYY-MM-DD)"
// @Param date_to query string false "Inclusive end day for custom period (YYYY-MM-DD)"
// @Success 200 {object} router.successResponse{data=SummaryResponse} "Summary"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/analytics/summary [get]
func (h *HTTPEndpoint) Summary(r *router.Request) (any, error) {
	dateFrom, dateTo, err := dateRangeQuery(r)
	if err != nil {
		return nil, err
	}

	out, err := h.uc.Summary(r.Context(), usecase.SummaryInput{
		Period:   r.GetQuery("period"),
		DateFrom: dateFrom,
		DateTo:   dateTo,
	})
	if err != nil {
		return nil, err
	}

	resp := SummaryResponse{
		Period:             string(out.Period),
		From:               formatDate(&out.From),
		Totals:             toTotalsResponse(out.Totals),
		SavingsRate:        out.Totals.SavingsRate(),
		AvgIncome:          out.AvgIncome,
		AvgExpense:         out.AvgExpense,
		RecentTransactions: toTransactionResponses(out.Recent),
	}
	if !out.To.IsZero() {
		lastDay := out.To.AddDate(0, 0, -1)
		resp.To = formatDate(&lastDay)
	}

	return resp, nil
}

// Trends returns income and expense per time bucket.
// @Summary Financial trends
// @Tags Finance, Analytics
// @Security BearerAuth
// @Produce json
// @Param granularity query string false "day|week|month"
// @Param points query int false "Number of buckets ending with the current one"
// @Success 200 {object} router.successResponse{data=TrendsResponse} "Trends"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/analytics/trends [get]
func (h *HTTPEndpoint) Trends(r *router.Request) (any, error) {
	points, err := r.GetQueryInt32("points")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.Trends(r.Context(), usecase.TrendsInput{
		Granularity: r.GetQuery("granularity"),
		Points:      points,
	})
	if err != nil {
		return nil, err
	}

	layout := dateLayout
	if out.Granularity == entity.GranularityMonth {
		layout = "2006-01"
	}

	resp := TrendsResponse{
		Granularity: string(out.Granularity),
		Points:      make([]TrendPointResponse, 0, len(out.Points)),
	}
	for _, p := range out.Points {
		resp.Points = append(resp.Points, toTrendPointResponse(p, layout))
	}

	return resp, nil
}

// CategoryBreakdown returns per-category totals for a period.
// @Summary Category breakdown
// @Tags Finance, Analytics
// @Security BearerAuth
// @Produce json
// @Param type query string false "income or expense (default expense)"
// @Param period query string false "today|week|month|year|all|custom"
// @Param date_from query string false "Inclusive start day for custom period (YYYY-MM-DD)"
// @Param date_to query string false "Inclusive end day for custom period (YYYY-MM-DD)"
// @Success 200 {object} router.successResponse{data=CategoryBreakdownResponse} "Breakdown"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/analytics/categories [get]
func (h *HTTPEndpoint) CategoryBreakdown(r *router.Request) (any, error) {
	dateFrom, dateTo, err := dateRangeQuery(r)
	if err != nil {
		return nil, err
	}

	out, err := h.uc.CategoryBreakdown(r.Context(), usecase.CategoryBreakdownInput{
		Type:     r.GetQuery("type"),
		Period:   r.GetQuery("period"),
		DateFrom: dateFrom,
		DateTo:   dateTo,
	})
	if err != nil {
		return nil, err
	}

	resp := CategoryBreakdownResponse{
		Type:       out.Type.String(),
		Period:     string(out.Period),
		Total:      out.Total.Float(),
		Categories: make([]CategoryShareResponse, 0, len(out.Categories)),
	}
	for _, c := range out.Categories {
		resp.Categories = append(resp.Categories, CategoryShareResponse{
			Category:   c.Category.String(),
			Total:      c.Total.Float(),
			Count:      c.Count,
			Average:    c.Average,
			Percentage: c.Percentage,
		})
	}

	return resp, nil
}

// MonthlyComparison compares recent months.
// @Summary Monthly comparison
// @Tags Finance, Analytics
// @Security BearerAuth
// @Produce json
// @Param months query int false "Number of months ending with the current one"
// @Success 200 {object} router.successResponse{data=MonthlyComparisonResponse} "Months"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/analytics/monthly-comparison [get]
func (h *HTTPEndpoint) MonthlyComparison(r *router.Request) (any, error) {
	months, err := r.GetQueryInt32("months")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.MonthlyComparison(r.Context(), usecase.MonthlyComparisonInput{Months: months})
	if err != nil {
		return nil, err
	}

	resp := MonthlyComparisonResponse{Months: make([]MonthComparisonResponse, 0, len(out.Months))}
	for _, m := range out.Months {
		resp.Months = append(resp.Months, MonthComparisonResponse{
			TrendPointResponse: toTrendPointResponse(m.TrendPoint, "2006-01"),
			ExpenseChange:      m.ExpenseChange,
			SavingsRate:        m.SavingsRate,
		})
	}

	return resp, nil
}

// Goals compares this month's savings with a target rate.
// @Summary Savings goals
// @Tags Finance, Analytics
// @Security BearerAuth
// @Produce json
// @Param target_rate query number false "Target savings rate in percent"
// @Success 200 {object} router.successResponse{data=GoalsResponse} "Goals"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/analytics/goals [get]
func (h *HTTPEndpoint) Goals(r *router.Request) (any, error) {
	target, err := queryFloat(r, "target_rate")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.Goals(r.Context(), usecase.GoalsInput{TargetRate: target})
	if err != nil {
		return nil, err
	}

	return GoalsResponse{
		Totals:        toTotalsResponse(out.Totals),
		SavingsRate:   out.SavingsRate,
		TargetRate:    out.TargetRate,
		TargetSavings: out.TargetSavings.Float(),
		Shortfall:     out.Shortfall.Float(),
		OnTrack:       out.OnTrack,
	}, nil
}

// Stats returns lifetime statistics.
// @Summary Transaction statistics
// @Tags Finance, Analytics
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=StatsResponse} "Stats"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/stats [get]
func (h *HTTPEndpoint) Stats(r *router.Request) (any, error) {
	out, err := h.uc.Stats(r.Context())
	if err != nil {
		return nil, err
	}

	return StatsResponse{
		Totals:         toTotalsResponse(out.Totals),
		ThisMonthCount: out.ThisMonthCount,
		CategoriesUsed: out.CategoriesUsed,
		FirstDate:      formatDate(out.FirstDate),
		LastDate:       formatDate(out.LastDate),
		ActiveDays:     out.ActiveDays,
	}, nil
}

// DataExport writes all user data to object storage.
// @Summary Export data
// @Description Builds a JSON document of the profile and every transaction and returns a short-lived download URL.
// @Tags Finance
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=DataExportResponse} "Export ready"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/finance/export [post]
func (h *HTTPEndpoint) DataExport(r *router.Request) (any, error) {
	out, err := h.uc.DataExport(r.Context())
	if err != nil {
		return nil, err
	}

	return DataExportResponse{URL: out.URL, ExpiresAt: out.ExpiresAt, Count: out.Count}, nil
}

func (req TransactionRequest) fields() (usecase.TransactionFields, error) {
	var date time.Time
	if req.Date != "" {
		d, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return usecase.TransactionFields{}, goerror.NewInvalidFormat("Invalid date, expected YYYY-MM-DD")
		}
		date = d
	}

	return usecase.TransactionFields{
		Type:               req.Type,
		Amount:             req.Amount,
		Category:           req.Category,
		Description:        req.Description,
		Date:               date,
		Tags:               req.Tags,
		Notes:              req.Notes,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
	}, nil
}

func dateRangeQuery(r *router.Request) (time.Time, time.Time, error) {
	from, err := r.GetQueryDate("date_from", dateLayout)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := r.GetQueryDate("date_to", dateLayout)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func queryFloat(r *router.Request, key string) (float64, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid query " + key)
	}

	return v, nil
}
