package inbound

import (
	"github.com/shandysiswandi/fintrack/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc ucInbox) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/notification/inbox", end.ListInbox)
	r.PUT("/api/v1/notification/inbox/read-all", end.MarkAllInboxRead)
	r.PATCH("/api/v1/notification/inbox/:id/read", end.MarkInboxRead)
	r.DELETE("/api/v1/notification/inbox/:id", end.DeleteInbox)
}
