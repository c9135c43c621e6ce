package usecase

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/fintrack/internal/finance/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/idempotency"
	"github.com/shandysiswandi/fintrack/internal/pkg/storage"
)

// Wednesday, so the current week started on 2026-03-16.
var testNow = time.Date(2026, 3, 18, 10, 30, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type seqID struct {
	mu   sync.Mutex
	next int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

type staticObjectID struct{}

func (staticObjectID) Generate() string { return "65f1c0ffee00000000000001" }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeDB struct {
	mu        sync.Mutex
	txs       map[int64]entity.Transaction
	createErr error
}

func newFakeDB(txs ...entity.Transaction) *fakeDB {
	f := &fakeDB{txs: map[int64]entity.Transaction{}}
	for _, tx := range txs {
		f.txs[tx.ID] = tx
	}
	return f
}

func (f *fakeDB) matches(tx entity.Transaction, flt entity.TransactionFilter) bool {
	if tx.UserID != flt.UserID {
		return false
	}
	if !flt.Type.IsUnknown() && tx.Type != flt.Type {
		return false
	}
	if flt.Category != "" && tx.Category != flt.Category {
		return false
	}
	if !flt.DateFrom.IsZero() && tx.Date.Before(flt.DateFrom) {
		return false
	}
	if !flt.DateTo.IsZero() && !tx.Date.Before(flt.DateTo) {
		return false
	}
	if flt.Search != "" {
		needle := strings.ToLower(flt.Search)
		hay := strings.ToLower(tx.Description + " " + tx.Notes + " " + strings.Join(tx.Tags, " "))
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}

func (f *fakeDB) filtered(flt entity.TransactionFilter) []entity.Transaction {
	var out []entity.Transaction
	for _, tx := range f.txs {
		if f.matches(tx, flt) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeDB) ListTransactions(_ context.Context, flt entity.TransactionFilter) ([]entity.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := f.filtered(flt)
	total := int64(len(all))

	start := min(int(flt.Offset), len(all))
	end := len(all)
	if flt.Size > 0 {
		end = min(start+int(flt.Size), len(all))
	}
	return all[start:end], total, nil
}

func (f *fakeDB) SumTransactions(_ context.Context, flt entity.TransactionFilter) (*entity.Totals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var t entity.Totals
	for _, tx := range f.filtered(flt) {
		switch tx.Type {
		case entity.TransactionTypeIncome:
			t.Income += tx.Amount
			t.IncomeCount++
		case entity.TransactionTypeExpense:
			t.Expense += tx.Amount
			t.ExpenseCount++
		}
	}
	return &t, nil
}

func (f *fakeDB) GetTransaction(_ context.Context, userID, id int64) (*entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, ok := f.txs[id]
	if !ok || tx.UserID != userID {
		return nil, goerror.ErrNotFound
	}
	return &tx, nil
}

func (f *fakeDB) RecentTransactions(_ context.Context, userID int64, limit int32) ([]entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := f.filtered(entity.TransactionFilter{UserID: userID})
	return all[:min(int(limit), len(all))], nil
}

func (f *fakeDB) CreateTransactions(_ context.Context, txs []entity.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	for _, tx := range txs {
		f.txs[tx.ID] = tx
	}
	return nil
}

func (f *fakeDB) UpdateTransaction(_ context.Context, in entity.UpdateTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, ok := f.txs[in.ID]
	if !ok || tx.UserID != in.UserID {
		return goerror.ErrNotFound
	}
	tx.Type, tx.Amount, tx.Category = in.Type, in.Amount, in.Category
	tx.Description, tx.Date, tx.Tags, tx.Notes = in.Description, in.Date, in.Tags, in.Notes
	tx.IsRecurring, tx.RecurringFrequency = in.IsRecurring, in.RecurringFrequency
	tx.UpdatedAt = testNow
	f.txs[in.ID] = tx
	return nil
}

func (f *fakeDB) DeleteTransactions(_ context.Context, userID int64, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, id := range ids {
		if tx, ok := f.txs[id]; ok && tx.UserID == userID {
			delete(f.txs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) PurgeUserTransactions(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for id, tx := range f.txs {
		if tx.UserID == userID {
			delete(f.txs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) SumByCategory(_ context.Context, flt entity.TransactionFilter) ([]entity.CategoryTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := map[entity.Category]int{}
	var out []entity.CategoryTotal
	for _, tx := range f.filtered(flt) {
		i, ok := idx[tx.Category]
		if !ok {
			out = append(out, entity.CategoryTotal{Category: tx.Category})
			i = len(out) - 1
			idx[tx.Category] = i
		}
		out[i].Total += tx.Amount
		out[i].Count++
	}
	return out, nil
}

func (f *fakeDB) SumByBucket(_ context.Context, userID int64, g entity.Granularity, from, to time.Time) ([]entity.BucketTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []entity.BucketTotal
	for _, tx := range f.filtered(entity.TransactionFilter{UserID: userID, DateFrom: from, DateTo: to}) {
		out = append(out, entity.BucketTotal{
			Start: bucketStart(g, tx.Date),
			Type:  tx.Type,
			Total: tx.Amount,
			Count: 1,
		})
	}
	return out, nil
}

func (f *fakeDB) GetTransactionStats(_ context.Context, userID int64, monthStart time.Time) (*entity.TransactionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := &entity.TransactionStats{}
	cats := map[entity.Category]struct{}{}
	for _, tx := range f.filtered(entity.TransactionFilter{UserID: userID}) {
		switch tx.Type {
		case entity.TransactionTypeIncome:
			st.Totals.Income += tx.Amount
			st.Totals.IncomeCount++
		case entity.TransactionTypeExpense:
			st.Totals.Expense += tx.Amount
			st.Totals.ExpenseCount++
		}
		if !tx.Date.Before(monthStart) {
			st.ThisMonthCount++
		}
		cats[tx.Category] = struct{}{}

		d := tx.Date
		if st.FirstDate == nil || d.Before(*st.FirstDate) {
			st.FirstDate = &d
		}
		if st.LastDate == nil || d.After(*st.LastDate) {
			st.LastDate = &d
		}
	}
	st.CategoriesUsed = int64(len(cats))
	return st, nil
}

func (f *fakeDB) count(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, tx := range f.txs {
		if tx.UserID == userID {
			n++
		}
	}
	return n
}

// fakeIdempotency keeps the claim states of idempotency.Redis in memory.
type fakeIdempotency struct {
	mu     sync.Mutex
	states map[string]idempotency.State
}

func (f *fakeIdempotency) set(key string, st idempotency.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[key] = st
}

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.mu.Lock()
	if f.states == nil {
		f.states = map[string]idempotency.State{}
	}
	st := f.states[key]
	if st == idempotency.StateNone {
		f.states[key] = idempotency.StateInProgress
	}
	f.mu.Unlock()

	if err := st.Err(); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		f.set(key, idempotency.StateFailed)
		return err
	}
	f.set(key, idempotency.StateCompleted)
	return nil
}

type putCall struct {
	bucket string
	key    string
	body   []byte
	opts   storage.PutOptions
}

type fakeStorage struct {
	mu      sync.Mutex
	puts    []putCall
	putErr  error
	expiry  time.Duration
	presign string
}

func (s *fakeStorage) Close() error { return nil }

func (s *fakeStorage) Put(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.putErr != nil {
		return storage.Object{}, s.putErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, err
	}
	s.puts = append(s.puts, putCall{bucket: bucket, key: key, body: body, opts: opts})
	return storage.Object{Bucket: bucket, Key: key, Size: int64(len(body))}, nil
}

func (s *fakeStorage) Delete(_ context.Context, bucket, key string) error {
	_, err := s.DeletePrefix(context.Background(), bucket, key)
	return err
}

func (s *fakeStorage) DeletePrefix(_ context.Context, bucket, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.puts[:0]
	for _, p := range s.puts {
		if p.bucket != bucket || !strings.HasPrefix(p.key, prefix) {
			kept = append(kept, p)
		}
	}
	n := len(s.puts) - len(kept)
	s.puts = kept
	return n, nil
}

func (s *fakeStorage) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expiry = expiry
	s.presign = "https://storage.local/" + bucket + "/" + key + "?signature=test"
	return s.presign, nil
}
