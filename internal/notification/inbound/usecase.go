package inbound

import (
	"context"

	"github.com/shandysiswandi/fintrack/internal/notification/entity"
	"github.com/shandysiswandi/fintrack/internal/notification/usecase"
)

type ucConsumer interface {
	ConsumeAccountVerified(ctx context.Context, in usecase.ConsumeAccountVerifiedInput) error
	ConsumeAccountDeleted(ctx context.Context, in usecase.ConsumeAccountDeletedInput) error
}

type ucInbox interface {
	ListInbox(ctx context.Context, in usecase.ListInboxInput) (*entity.InboxPage, error)
	MarkInboxRead(ctx context.Context, in usecase.InboxItemInput) error
	MarkAllInboxRead(ctx context.Context) error
	DeleteInbox(ctx context.Context, in usecase.InboxItemInput) error
}
