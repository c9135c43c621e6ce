// Package pgxcasbin keeps casbin policies in Postgres and keeps every service
// instance's enforcer in sync with them.
package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

// ruleWidth is the number of value columns (v0..v5) in the rule table.
const ruleWidth = 6

// ErrRuleTooLong is returned for a rule with more fields than the table holds.
var ErrRuleTooLong = errors.New("pgxcasbin: rule has more than 6 fields")

// DB is the subset of pgxpool.Pool the adapter needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Filter narrows LoadFilteredPolicy to one policy type and a prefix of its
// values. Empty values match anything.
type Filter struct {
	PType  string
	Values []string
}

// Adapter stores rules in a table shaped (id, ptype, v0..v5) with a unique
// key over (ptype, v0..v5).
type Adapter struct {
	db       DB
	table    string
	columns  []string
	filtered atomic.Bool
}

var (
	_ persist.Adapter         = (*Adapter)(nil)
	_ persist.BatchAdapter    = (*Adapter)(nil)
	_ persist.FilteredAdapter = (*Adapter)(nil)
)

func NewAdapter(db DB, table string) *Adapter {
	return &Adapter{
		db:      db,
		table:   pgx.Identifier{table}.Sanitize(),
		columns: lo.Times(ruleWidth, func(i int) string { return "v" + strconv.Itoa(i) }),
	}
}

func (a *Adapter) LoadPolicy(m model.Model) error {
	a.filtered.Store(false)
	return a.load(context.Background(), m, "", nil)
}

func (a *Adapter) LoadFilteredPolicy(m model.Model, filter any) error {
	f, ok := filter.(Filter)
	if !ok {
		return fmt.Errorf("pgxcasbin: filter must be pgxcasbin.Filter, got %T", filter)
	}
	a.filtered.Store(true)
	return a.load(context.Background(), m, f.PType, f.Values)
}

func (a *Adapter) IsFiltered() bool {
	return a.filtered.Load()
}

func (a *Adapter) load(ctx context.Context, m model.Model, ptype string, values []string) error {
	where, args := a.where(ptype, 0, values)
	query := "SELECT ptype, " + strings.Join(a.columns, ", ") + " FROM " + a.table + where + " ORDER BY id"

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgxcasbin: select rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		line := make([]string, ruleWidth+1)
		if err := rows.Scan(lo.ToAnySlice(lo.Map(line, func(_ string, i int) *string { return &line[i] }))...); err != nil {
			return fmt.Errorf("pgxcasbin: scan rule: %w", err)
		}
		end := len(line)
		for end > 1 && line[end-1] == "" {
			end--
		}
		if err := persist.LoadPolicyArray(line[:end], m); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SavePolicy replaces the whole table with the rules of m.
func (a *Adapter) SavePolicy(m model.Model) error {
	ctx := context.Background()

	var rules [][]string
	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				rules = append(rules, append([]string{ptype}, rule...))
			}
		}
	}

	return pgx.BeginFunc(ctx, a.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM "+a.table); err != nil {
			return fmt.Errorf("pgxcasbin: clear rules: %w", err)
		}
		return a.insert(ctx, tx, rules)
	})
}

func (a *Adapter) AddPolicy(_ string, ptype string, rule []string) error {
	return a.AddPolicies("", ptype, [][]string{rule})
}

func (a *Adapter) AddPolicies(_ string, ptype string, rules [][]string) error {
	ctx := context.Background()
	lines := lo.Map(rules, func(r []string, _ int) []string { return append([]string{ptype}, r...) })

	return pgx.BeginFunc(ctx, a.db, func(tx pgx.Tx) error {
		return a.insert(ctx, tx, lines)
	})
}

func (a *Adapter) insert(ctx context.Context, tx pgx.Tx, lines [][]string) error {
	if len(lines) == 0 {
		return nil
	}

	placeholders := lo.Times(ruleWidth+1, func(i int) string { return "$" + strconv.Itoa(i+1) })
	cols := "ptype, " + strings.Join(a.columns, ", ")
	query := "INSERT INTO " + a.table + " (" + cols + ") VALUES (" + strings.Join(placeholders, ", ") +
		") ON CONFLICT (" + cols + ") DO NOTHING"

	batch := &pgx.Batch{}
	for _, line := range lines {
		padded, err := pad(line[1:])
		if err != nil {
			return err
		}
		batch.Queue(query, lo.ToAnySlice(append([]string{line[0]}, padded...))...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("pgxcasbin: insert rules: %w", err)
	}
	return nil
}

func (a *Adapter) RemovePolicy(_ string, ptype string, rule []string) error {
	return a.RemovePolicies("", ptype, [][]string{rule})
}

func (a *Adapter) RemovePolicies(_ string, ptype string, rules [][]string) error {
	ctx := context.Background()
	conds := lo.Times(ruleWidth, func(i int) string { return a.columns[i] + " = $" + strconv.Itoa(i+2) })
	query := "DELETE FROM " + a.table + " WHERE ptype = $1 AND " + strings.Join(conds, " AND ")

	return pgx.BeginFunc(ctx, a.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rule := range rules {
			padded, err := pad(rule)
			if err != nil {
				return err
			}
			batch.Queue(query, lo.ToAnySlice(append([]string{ptype}, padded...))...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("pgxcasbin: delete rules: %w", err)
		}
		return nil
	})
}

func (a *Adapter) RemoveFilteredPolicy(_ string, ptype string, fieldIndex int, fieldValues ...string) error {
	if fieldIndex < 0 || fieldIndex+len(fieldValues) > ruleWidth {
		return ErrRuleTooLong
	}

	where, args := a.where(ptype, fieldIndex, fieldValues)
	if _, err := a.db.Exec(context.Background(), "DELETE FROM "+a.table+where, args...); err != nil {
		return fmt.Errorf("pgxcasbin: delete filtered rules: %w", err)
	}
	return nil
}

// where builds a condition on ptype and the non-empty values starting at
// column from.
func (a *Adapter) where(ptype string, from int, values []string) (string, []any) {
	var conds []string
	var args []any
	if ptype != "" {
		args = append(args, ptype)
		conds = append(conds, "ptype = $1")
	}
	for i, v := range values {
		if v == "" || from+i >= ruleWidth {
			continue
		}
		args = append(args, v)
		conds = append(conds, a.columns[from+i]+" = $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func pad(rule []string) ([]string, error) {
	if len(rule) > ruleWidth {
		return nil, ErrRuleTooLong
	}
	out := make([]string, ruleWidth)
	copy(out, rule)
	return out, nil
}
