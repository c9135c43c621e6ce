package usecase

import (
	"github.com/shandysiswandi/fintrack/internal/finance/entity"
)

type CategoriesOutput struct {
	Income  []entity.Category
	Expense []entity.Category
}

func (s *Usecase) Categories() CategoriesOutput {
	return CategoriesOutput{
		Income:  entity.CategoriesByType[entity.TransactionTypeIncome],
		Expense: entity.CategoriesByType[entity.TransactionTypeExpense],
	}
}
