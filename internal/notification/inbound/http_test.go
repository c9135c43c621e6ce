package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/fintrack/internal/notification/entity"
	"github.com/shandysiswandi/fintrack/internal/notification/usecase"
	"github.com/shandysiswandi/fintrack/internal/pkg/clock"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
	"github.com/shandysiswandi/fintrack/internal/pkg/router"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/shandysiswandi/fintrack/internal/pkg/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInbox struct {
	listIn  usecase.ListInboxInput
	readIn  usecase.InboxItemInput
	delIn   usecase.InboxItemInput
	readAll bool
	page    *entity.InboxPage
}

func (f *fakeInbox) ListInbox(_ context.Context, in usecase.ListInboxInput) (*entity.InboxPage, error) {
	f.listIn = in
	return f.page, nil
}

func (f *fakeInbox) MarkInboxRead(_ context.Context, in usecase.InboxItemInput) error {
	f.readIn = in
	if in.ID == 404 {
		return goerror.NewBusiness("inbox notification not found", goerror.CodeNotFound)
	}
	return nil
}

func (f *fakeInbox) MarkAllInboxRead(context.Context) error {
	f.readAll = true
	return nil
}

func (f *fakeInbox) DeleteInbox(_ context.Context, in usecase.InboxItemInput) error {
	f.delIn = in
	return nil
}

func newInboxHandler(t *testing.T, uc *fakeInbox) (http.Handler, string) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`app: {name: FinTrack}`))
	require.NoError(t, err)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("n", 64)),
		Issuer:    "fintrack",
		Audiences: []string{"fintrack"},
		TTL:       time.Hour,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	token, err := signer.Generate(7, "jane@example.com")
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		JWT:        signer,
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, uc)

	return r, token
}

func TestHTTPEndpoint_Inbox(t *testing.T) {
	readAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	uc := &fakeInbox{page: &entity.InboxPage{
		Items: []entity.Notification{
			{ID: 42, UserID: 7, TriggerKey: entity.TriggerKeyUserWelcome, Data: valueobject.JSONMap{"full_name": "Jane"}, CreatedAt: readAt},
			{ID: 41, UserID: 7, TriggerKey: entity.TriggerKeyUserWelcome, ReadAt: &readAt, CreatedAt: readAt},
		},
		Unread:     1,
		NextBefore: 41,
	}}
	handler, token := newInboxHandler(t, uc)

	call := func(method, path, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("list requires a session", func(t *testing.T) {
		// Act
		rec := call(http.MethodGet, "/api/v1/notification/inbox", "")

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("list passes the cursor and renders the page", func(t *testing.T) {
		// Act
		rec := call(http.MethodGet, "/api/v1/notification/inbox?status=unread&limit=2&before=99", token)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, usecase.ListInboxInput{Status: "unread", Limit: 2, Before: 99}, uc.listIn)

		var env struct {
			Data InboxResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.Len(t, env.Data.Notifications, 2)
		assert.Equal(t, int64(42), env.Data.Notifications[0].ID)
		assert.True(t, env.Data.Notifications[0].Unread)
		assert.False(t, env.Data.Notifications[1].Unread)
		assert.Equal(t, "user_welcome", env.Data.Notifications[0].TriggerKey)
		assert.Equal(t, int64(1), env.Data.Unread)
		assert.Equal(t, "41", env.Data.NextBefore)
		assert.Contains(t, rec.Body.String(), `"id":"42"`)
	})

	t.Run("list rejects a malformed cursor", func(t *testing.T) {
		// Act
		rec := call(http.MethodGet, "/api/v1/notification/inbox?before=abc", token)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("mark read answers no content", func(t *testing.T) {
		// Act
		rec := call(http.MethodPatch, "/api/v1/notification/inbox/42/read", token)

		// Assert
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(42), uc.readIn.ID)
	})

	t.Run("mark read of an unknown entry is not found", func(t *testing.T) {
		// Act
		rec := call(http.MethodPatch, "/api/v1/notification/inbox/404/read", token)

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("mark all read", func(t *testing.T) {
		// Act
		rec := call(http.MethodPut, "/api/v1/notification/inbox/read-all", token)

		// Assert
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, uc.readAll)
	})

	t.Run("delete parses the id", func(t *testing.T) {
		// Act
		rec := call(http.MethodDelete, "/api/v1/notification/inbox/43", token)

		// Assert
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(43), uc.delIn.ID)
	})
}
