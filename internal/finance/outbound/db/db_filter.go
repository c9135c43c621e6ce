package db

import (
	"strconv"
	"strings"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
)

//nolint:gochecknoglobals // sort allow-list mapped to columns
var orderColumns = map[string]string{
	"date":       "date",
	"amount":     "amount_minor",
	"category":   "category",
	"created_at": "created_at",
}

// whereClause renders the filter as a WHERE clause with positional args.
func whereClause(f entity.TransactionFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{f.UserID}

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if !f.Type.IsUnknown() {
		add("type = ?", int16(f.Type))
	}
	if f.Category != "" {
		add("category = ?", string(f.Category))
	}
	if !f.DateFrom.IsZero() {
		add("date >= ?", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("date < ?", f.DateTo)
	}
	if f.Search != "" {
		add("(description ILIKE ? OR notes ILIKE ? OR array_to_string(tags, ' ') ILIKE ?)", "%"+escapeLike(f.Search)+"%")
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(f entity.TransactionFilter) string {
	col, ok := orderColumns[f.OrderBy]
	if !ok {
		col = "date"
	}

	dir := "DESC"
	if f.OrderDirection == "asc" {
		dir = "ASC"
	}

	return "ORDER BY " + col + " " + dir + ", id " + dir
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// nonNilTags keeps an empty tag list from being written as NULL.
func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
