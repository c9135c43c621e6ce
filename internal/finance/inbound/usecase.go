package inbound

import (
	"context"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/finance/usecase"
)

type uc interface {
	TransactionList(ctx context.Context, in usecase.TransactionListInput) (*usecase.TransactionListOutput, error)
	TransactionDetail(ctx context.Context, in usecase.TransactionDetailInput) (*entity.Transaction, error)
	TransactionCreate(ctx context.Context, in usecase.TransactionCreateInput) (*entity.Transaction, error)
	TransactionBulkCreate(ctx context.Context, in usecase.TransactionBulkCreateInput) ([]entity.Transaction, error)
	TransactionUpdate(ctx context.Context, in usecase.TransactionUpdateInput) (*entity.Transaction, error)
	TransactionDelete(ctx context.Context, in usecase.TransactionDeleteInput) error
	TransactionBulkDelete(ctx context.Context, in usecase.TransactionBulkDeleteInput) (int64, error)
	Categories() usecase.CategoriesOutput

	Summary(ctx context.Context, in usecase.SummaryInput) (*usecase.SummaryOutput, error)
	Trends(ctx context.Context, in usecase.TrendsInput) (*usecase.TrendsOutput, error)
	CategoryBreakdown(ctx context.Context, in usecase.CategoryBreakdownInput) (*usecase.CategoryBreakdownOutput, error)
	MonthlyComparison(ctx context.Context, in usecase.MonthlyComparisonInput) (*usecase.MonthlyComparisonOutput, error)
	Goals(ctx context.Context, in usecase.GoalsInput) (*usecase.GoalsOutput, error)
	Stats(ctx context.Context) (*usecase.StatsOutput, error)
	DataExport(ctx context.Context) (*usecase.DataExportOutput, error)
}

type ucConsumer interface {
	ConsumeAccountDeleted(ctx context.Context, in usecase.ConsumeAccountDeletedInput) error
}
