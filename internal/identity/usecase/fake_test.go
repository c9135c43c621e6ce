package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/fintrack/internal/identity/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/storage"
	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

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

type passcodeKey struct {
	identifier string
	purpose    entity.PasscodePurpose
}

// fakeDB keeps every write behind one mutex so the conditional updates
// behave like their SQL counterparts under concurrent callers.
type fakeDB struct {
	mu        sync.Mutex
	users     map[int64]*entity.User
	passwords map[int64]string
	passcodes map[passcodeKey]*entity.Passcode
	now       func() time.Time
	// beforeMiss runs inside IncrementPasscodeAttempts with the lock held.
	beforeMiss func(p *entity.Passcode)
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:     map[int64]*entity.User{},
		passwords: map[int64]string{},
		passcodes: map[passcodeKey]*entity.Passcode{},
		now:       time.Now,
	}
}

func (f *fakeDB) findByEmail(email string, includeDeleted bool) *entity.User {
	for _, u := range f.users {
		if u.Email == email && (includeDeleted || u.DeletedAt == nil) {
			return u
		}
	}
	return nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string, includeDeleted bool) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.findByEmail(email, includeDeleted)
	if u == nil {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeDB) GetUserByID(_ context.Context, id int64, includeDeleted bool) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok || (!includeDeleted && u.DeletedAt != nil) {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeDB) GetUserCredentialInfo(_ context.Context, email string) (*entity.UserCredentialInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.findByEmail(email, false)
	if u == nil {
		return nil, goerror.ErrNotFound
	}
	return &entity.UserCredentialInfo{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Status:   u.Status,
		Password: f.passwords[u.ID],
		Language: u.Preferences.GetString("language"),
	}, nil
}

func (f *fakeDB) GetUserCredentialInfoByID(_ context.Context, id int64) (*entity.UserCredentialInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, goerror.ErrNotFound
	}
	return &entity.UserCredentialInfo{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Status:   u.Status,
		Password: f.passwords[u.ID],
		Language: u.Preferences.GetString("language"),
	}, nil
}

func (f *fakeDB) NewRegistration(_ context.Context, in entity.NewUser, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findByEmail(in.Email, true) != nil {
		return goerror.ErrConflict
	}

	f.users[in.ID] = &entity.User{
		ID:          in.ID,
		Email:       in.Email,
		FullName:    in.FullName,
		AvatarURL:   in.AvatarURL,
		Phone:       in.Phone,
		Status:      in.Status,
		Preferences: in.Preferences,
	}
	f.passwords[in.ID] = hash
	return nil
}

func (f *fakeDB) ActivateUser(_ context.Context, in entity.ActivateUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[in.UserID]
	if !ok || u.Status != in.OldStatus {
		return goerror.ErrNotFound
	}
	u.Status = in.NewStatus
	return nil
}

func (f *fakeDB) UpdateUserLastLogin(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return goerror.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (f *fakeDB) UpdateUserProfile(_ context.Context, id int64, fullName, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return goerror.ErrNotFound
	}
	u.FullName, u.Phone = fullName, phone
	return nil
}

func (f *fakeDB) UpdateUserPreferences(_ context.Context, id int64, prefs valueobject.JSONMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return goerror.ErrNotFound
	}
	u.Preferences = prefs
	return nil
}

func (f *fakeDB) UpdateUserAvatar(_ context.Context, id int64, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return goerror.ErrNotFound
	}
	u.AvatarURL = avatarURL
	return nil
}

func (f *fakeDB) UpdateUserCredential(_ context.Context, userID int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[userID]; !ok {
		return goerror.ErrNotFound
	}
	f.passwords[userID] = hash
	return nil
}

func (f *fakeDB) MarkUserDeleted(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return goerror.ErrNotFound
	}
	now := time.Now()
	u.Status = entity.UserStatusInactive
	u.DeletedAt = &now
	return nil
}

func (f *fakeDB) UpsertPasscode(_ context.Context, p entity.Passcode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := passcodeKey{p.Identifier, p.Purpose}
	if old, ok := f.passcodes[key]; ok {
		p.PreviousCodeHash = old.CodeHash
	}
	p.Attempts = 0
	p.ConsumedAt = nil
	f.passcodes[key] = &p
	return nil
}

func (f *fakeDB) GetPasscode(_ context.Context, identifier string, purpose entity.PasscodePurpose) (*entity.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.passcodes[passcodeKey{identifier, purpose}]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeDB) byID(id int64) *entity.Passcode {
	for _, p := range f.passcodes {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *fakeDB) IncrementPasscodeAttempts(_ context.Context, id int64, maxAttempts int32) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.byID(id)
	if p != nil && f.beforeMiss != nil {
		f.beforeMiss(p)
	}
	if p == nil || p.ConsumedAt != nil || p.Attempts >= maxAttempts || p.IsExpired(f.now()) {
		return false, nil
	}
	p.Attempts++
	return true, nil
}

func (f *fakeDB) ConsumePasscode(_ context.Context, in entity.ConsumePasscode) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.byID(in.ID)
	if p == nil || p.ConsumedAt != nil || p.CodeHash != in.CodeHash ||
		p.Attempts >= in.MaxAttempts || p.IsExpired(f.now()) {
		return false, nil
	}
	now := f.now()
	p.ConsumedAt = &now
	return true, nil
}

func (f *fakeDB) DeletePasscode(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for k, p := range f.passcodes {
		if p.ID == id {
			delete(f.passcodes, k)
		}
	}
	return nil
}

func (f *fakeDB) DeleteExpiredPasscodes(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for k, p := range f.passcodes {
		if p.ConsumedAt != nil || !now.Before(p.ExpiresAt) {
			delete(f.passcodes, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) passcode(identifier string, purpose entity.PasscodePurpose) *entity.Passcode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passcodes[passcodeKey{identifier, purpose}]
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []PasscodeDelivery
	fail bool
}

func (n *fakeNotifier) SendPasscode(_ context.Context, msg PasscodeDelivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fail {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) last() PasscodeDelivery {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.sent) == 0 {
		return PasscodeDelivery{}
	}
	return n.sent[len(n.sent)-1]
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeMessaging struct {
	mu       sync.Mutex
	verified []AccountVerifiedEvent
	deleted  []AccountDeletedEvent
}

func (m *fakeMessaging) PublishAccountVerified(_ context.Context, msg AccountVerifiedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verified = append(m.verified, msg)
	return nil
}

func (m *fakeMessaging) PublishAccountDeleted(_ context.Context, msg AccountDeletedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, msg)
	return nil
}

type fakeRoles struct {
	mu    sync.Mutex
	roles map[string][]string
}

func (r *fakeRoles) AddRoleForUser(user string, role string, _ ...string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roles == nil {
		r.roles = map[string][]string{}
	}
	r.roles[user] = append(r.roles[user], role)
	return true, nil
}

func (r *fakeRoles) DeleteRolesForUser(user string, _ ...string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.roles[user]
	delete(r.roles, user)
	return ok, nil
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (l *fakeLimiter) Allow(_ context.Context, key string, limit int64, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return true, nil
	}
	if l.counts == nil {
		l.counts = map[string]int64{}
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStorage) Close() error { return nil }

func (f *fakeStorage) Put(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.Object, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.Object{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = b
	f.types[bucket+"/"+key] = opts.ContentType
	return storage.Object{Bucket: bucket, Key: key, Size: int64(len(b))}, nil
}

func (f *fakeStorage) Delete(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeStorage) DeletePrefix(_ context.Context, bucket, prefix string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for k := range f.objects {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			delete(f.objects, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeStorage) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://storage.local/" + bucket + "/" + key, nil
}

func (f *fakeStorage) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	return out
}
