package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/storage"
)

const (
	exportPageSize         int32 = 1_000
	defaultExportURLExpiry       = 15 * time.Minute
)

type DataExportOutput struct {
	URL       string
	ExpiresAt time.Time
	Count     int
}

type exportDocument struct {
	ExportInfo struct {
		ExportedAt time.Time `json:"exported_at"`
		UserID     int64     `json:"user_id,string"`
	} `json:"export_info"`
	Profile struct {
		Email string `json:"email"`
	} `json:"profile"`
	Transactions []exportTransaction `json:"transactions"`
	Summary      struct {
		TotalTransactions int      `json:"total_transactions"`
		TotalIncome       float64  `json:"total_income"`
		TotalExpense      float64  `json:"total_expense"`
		Net               float64  `json:"net"`
		Categories        []string `json:"categories"`
	} `json:"summary"`
}

type exportTransaction struct {
	ID                 int64     `json:"id,string"`
	Type               string    `json:"type"`
	Amount             float64   `json:"amount"`
	Category           string    `json:"category"`
	Description        string    `json:"description"`
	Date               string    `json:"date"`
	Tags               []string  `json:"tags"`
	Notes              string    `json:"notes,omitempty"`
	IsRecurring        bool      `json:"is_recurring"`
	RecurringFrequency string    `json:"recurring_frequency,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// DataExport writes every transaction of the caller into a JSON document in
// object storage and returns a presigned download URL.
func (s *Usecase) DataExport(ctx context.Context) (*DataExportOutput, error) {
	ctx, span := s.startSpan(ctx, "DataExport")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	txs, err := s.allTransactions(ctx, clm.UserID)
	if err != nil {
		return nil, err
	}

	var doc exportDocument
	doc.ExportInfo.ExportedAt = s.clock.Now().UTC()
	doc.ExportInfo.UserID = clm.UserID
	doc.Profile.Email = clm.UserEmail
	doc.Transactions = make([]exportTransaction, 0, len(txs))

	var totals entity.Totals
	for _, tx := range txs {
		switch tx.Type {
		case entity.TransactionTypeIncome:
			totals.Income += tx.Amount
			totals.IncomeCount++
		case entity.TransactionTypeExpense:
			totals.Expense += tx.Amount
			totals.ExpenseCount++
		}

		doc.Transactions = append(doc.Transactions, exportTransaction{
			ID:                 tx.ID,
			Type:               tx.Type.String(),
			Amount:             tx.Amount.Float(),
			Category:           tx.Category.String(),
			Description:        tx.Description,
			Date:               tx.Date.Format(time.DateOnly),
			Tags:               tx.Tags,
			Notes:              tx.Notes,
			IsRecurring:        tx.IsRecurring,
			RecurringFrequency: tx.RecurringFrequency.String(),
			CreatedAt:          tx.CreatedAt,
		})
	}

	doc.Summary.TotalTransactions = len(txs)
	doc.Summary.TotalIncome = totals.Income.Float()
	doc.Summary.TotalExpense = totals.Expense.Float()
	doc.Summary.Net = totals.Net().Float()
	doc.Summary.Categories = lo.Uniq(lo.Map(txs, func(tx entity.Transaction, _ int) string {
		return tx.Category.String()
	}))

	body, err := json.Marshal(doc)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal data export", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	bucket := strings.TrimSpace(s.cfg.GetString("modules.finance.export_bucket"))
	key := exportPrefix(clm.UserID) + s.objectID.Generate() + ".json"

	if _, err := s.storage.Put(ctx, bucket, key, bytes.NewReader(body), storage.PutOptions{
		Size:        int64(len(body)),
		ContentType: "application/json",
		Metadata:    map[string]string{"user_id": strconv.FormatInt(clm.UserID, 10)},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to upload data export", "user_id", clm.UserID, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	expiry := s.cfg.GetMinute("modules.finance.export_url_ttl_minutes")
	if expiry <= 0 {
		expiry = defaultExportURLExpiry
	}

	url, err := s.storage.PresignGet(ctx, bucket, key, expiry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign data export", "user_id", clm.UserID, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &DataExportOutput{
		URL:       url,
		ExpiresAt: s.clock.Now().Add(expiry),
		Count:     len(txs),
	}, nil
}

// exportPrefix holds every export file of one account.
func exportPrefix(userID int64) string {
	return fmt.Sprintf("exports/%d/", userID)
}

func (s *Usecase) allTransactions(ctx context.Context, userID int64) ([]entity.Transaction, error) {
	f := entity.TransactionFilter{
		UserID:         userID,
		OrderBy:        "date",
		OrderDirection: "desc",
		Size:           exportPageSize,
	}

	var all []entity.Transaction
	for {
		page, total, err := s.repoDB.ListTransactions(ctx, f)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo list transactions for export", "user_id", userID, "error", err)
			return nil, goerror.NewServer(err)
		}

		all = append(all, page...)
		if int64(len(all)) >= total || len(page) == 0 {
			return all, nil
		}

		f.Offset += exportPageSize
	}
}
