package inbound

import (
	"github.com/shandysiswandi/fintrack/internal/pkg/router"
	"github.com/shandysiswandi/fintrack/internal/shared/constant"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	txRead := r.Permission(constant.PermFinanceTransactions, constant.PermActRead)
	txCreate := r.Permission(constant.PermFinanceTransactions, constant.PermActCreate)
	txUpdate := r.Permission(constant.PermFinanceTransactions, constant.PermActUpdate)
	txDelete := r.Permission(constant.PermFinanceTransactions, constant.PermActDelete)
	anRead := r.Permission(constant.PermFinanceAnalytics, constant.PermActRead)

	// Transactions (need authenticated & authorization)
	r.GET("/api/v1/finance/transactions", end.TransactionList, txRead)
	r.POST("/api/v1/finance/transactions", end.TransactionCreate, txCreate)
	r.POST("/api/v1/finance/transactions/bulk", end.TransactionBulkCreate, txCreate)
	r.POST("/api/v1/finance/transactions/bulk-delete", end.TransactionBulkDelete, txDelete)
	r.GET("/api/v1/finance/transactions/:id", end.TransactionDetail, txRead)
	r.PUT("/api/v1/finance/transactions/:id", end.TransactionUpdate, txUpdate)
	r.DELETE("/api/v1/finance/transactions/:id", end.TransactionDelete, txDelete)
	r.GET("/api/v1/finance/categories", end.Categories, txRead)
	r.POST("/api/v1/finance/export", end.DataExport, txRead)

	// Analytics (need authenticated & authorization)
	r.GET("/api/v1/finance/analytics/summary", end.Summary, anRead)
	r.GET("/api/v1/finance/analytics/trends", end.Trends, anRead)
	r.GET("/api/v1/finance/analytics/categories", end.CategoryBreakdown, anRead)
	r.GET("/api/v1/finance/analytics/monthly-comparison", end.MonthlyComparison, anRead)
	r.GET("/api/v1/finance/analytics/goals", end.Goals, anRead)
	r.GET("/api/v1/finance/stats", end.Stats, anRead)
}
