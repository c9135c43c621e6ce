// Package mail sends transactional email. Usecases depend on Mail so the
// transport can be swapped or faked.
package mail

import (
	"context"
	"io"
)

// Message is transport neutral. When both bodies are set the HTML body is
// sent as the preferred alternative of the text body.
type Message struct {
	// From overrides the sender configured on the transport.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) recipients() int {
	return len(m.To) + len(m.Cc) + len(m.Bcc)
}

type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
