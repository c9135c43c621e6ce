package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestSMTP_Validation(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025})
	require.NoError(t, err)

	tests := []struct {
		name string
		msg  Message
		want error
	}{
		{name: "no recipients", msg: Message{From: "a@b.c", TextBody: "x"}, want: ErrNoRecipients},
		{name: "no body", msg: Message{From: "a@b.c", To: []string{"d@e.f"}}, want: ErrNoMessageBody},
		{name: "no sender", msg: Message{To: []string{"d@e.f"}, TextBody: "x"}, want: ErrNoSender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := s.Send(context.Background(), tt.msg)

			// Assert
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("invalid recipient", func(t *testing.T) {
		err := s.Send(context.Background(), Message{From: "a@b.c", To: []string{"not an address"}, TextBody: "x"})
		assert.ErrorIs(t, err, ErrInvalidAddr)
		assert.True(t, Permanent(err))
	})

	t.Run("host is required", func(t *testing.T) {
		_, err := NewSMTP(SMTPConfig{Port: 25})
		assert.ErrorIs(t, err, ErrMissingHost)
	})
}

func TestPermanent(t *testing.T) {
	assert.True(t, Permanent(ErrNoRecipients))
	assert.True(t, Permanent(fmt.Errorf("wrapped: %w", ErrNoSender)))
	assert.False(t, Permanent(errors.New("dial tcp: connection refused")))
	assert.False(t, Permanent(nil))
}

type mailpitList struct {
	Total    int `json:"total"`
	Messages []struct {
		Subject string `json:"Subject"`
		To      []struct {
			Address string `json:"Address"`
		} `json:"To"`
	} `json:"messages"`
}

func TestSMTP_Send(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smtp integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	// Arrange
	ctx := context.Background()
	container, err := testcontainers.Run(ctx, "axllent/mailpit:v1.27",
		testcontainers.WithExposedPorts("1025/tcp", "8025/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("1025/tcp").WithStartupTimeout(60*time.Second),
			wait.ForHTTP("/api/v1/messages").WithPort("8025/tcp"),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	smtpPort, err := container.MappedPort(ctx, "1025/tcp")
	require.NoError(t, err)
	api, err := container.PortEndpoint(ctx, "8025/tcp", "http")
	require.NoError(t, err)

	port, err := strconv.Atoi(smtpPort.Port())
	require.NoError(t, err)
	s, err := NewSMTP(SMTPConfig{Host: host, Port: port, From: "FinTrack <no-reply@fintrack.local>", Timeout: 10 * time.Second})
	require.NoError(t, err)

	// Act
	err = s.Send(ctx, Message{
		To:       []string{"jane@example.com"},
		Subject:  "Your login code",
		TextBody: "Your code is 123456",
		HTMLBody: "<p>Your code is <b>123456</b></p>",
	})

	// Assert
	require.NoError(t, err)

	resp, err := http.Get(api + "/api/v1/messages")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list mailpitList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Your login code", list.Messages[0].Subject)
	assert.Equal(t, "jane@example.com", list.Messages[0].To[0].Address)
}
