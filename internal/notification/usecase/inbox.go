package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/fintrack/internal/notification/entity"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
)

const defaultInboxLimit = 20

type ListInboxInput struct {
	Status string `validate:"omitempty,oneof=all unread read"`
	Limit  int32  `validate:"omitempty,gte=1,lte=100"`
	// Before is the NextBefore of the previous page.
	Before int64 `validate:"gte=0"`
}

func (s *Usecase) ListInbox(ctx context.Context, in ListInboxInput) (*entity.InboxPage, error) {
	ctx, span := s.startSpan(ctx, "ListInbox")
	defer span.End()

	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	q := entity.InboxQuery{
		UserID: userID,
		Filter: entity.InboxFilter(in.Status),
		Before: in.Before,
		Limit:  in.Limit,
	}
	if q.Filter == "" {
		q.Filter = entity.InboxFilterAll
	}
	if q.Limit == 0 {
		q.Limit = defaultInboxLimit
	}

	page, err := s.repoDB.ListInbox(ctx, q)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list inbox", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return page, nil
}

type InboxItemInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) MarkInboxRead(ctx context.Context, in InboxItemInput) error {
	ctx, span := s.startSpan(ctx, "MarkInboxRead")
	defer span.End()

	return s.changeInboxItem(ctx, in, entity.InboxChangeRead)
}

func (s *Usecase) DeleteInbox(ctx context.Context, in InboxItemInput) error {
	ctx, span := s.startSpan(ctx, "DeleteInbox")
	defer span.End()

	return s.changeInboxItem(ctx, in, entity.InboxChangeDelete)
}

// MarkAllInboxRead is idempotent; an inbox without unread entries succeeds.
func (s *Usecase) MarkAllInboxRead(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "MarkAllInboxRead")
	defer span.End()

	userID, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	n, err := s.repoDB.UpdateInbox(ctx, userID, 0, entity.InboxChangeRead)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark all inbox read", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "inbox marked read", "user_id", userID, "count", n)
	return nil
}

func (s *Usecase) changeInboxItem(ctx context.Context, in InboxItemInput, change entity.InboxChange) error {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	n, err := s.repoDB.UpdateInbox(ctx, userID, in.ID, change)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update inbox", "user_id", userID, "notification_id", in.ID, "change", change, "error", err)
		return goerror.NewServer(err)
	}
	if n == 0 {
		return goerror.NewBusiness("inbox notification not found", goerror.CodeNotFound)
	}

	return nil
}
