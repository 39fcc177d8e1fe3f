package notify

import (
	"altus-chat/domain"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier_Posts_Json(t *testing.T) {
	req := require.New(t)
	received := make(chan domain.Notification, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n domain.Notification
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received <- n
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	// Given a notification for bob
	notifier := NewWebhookNotifier(server.URL, server.Client(), time.Second)
	notification := domain.Notification{
		UserID:    "bob",
		Kind:      domain.DirectMessageNotification,
		SenderID:  "alice",
		MessageID: "42",
		Preview:   "leg day?",
		CreatedAt: time.Now().UTC(),
	}

	// When it is sent
	err := notifier.Notify(context.Background(), notification)

	// Then the gateway receives it as JSON
	req.NoError(err)
	got := <-received
	req.Equal("bob", got.UserID)
	req.Equal("leg day?", got.Preview)
	req.Equal(domain.DirectMessageNotification, got.Kind)
}

func TestWebhookNotifier_Fails_On_Error_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, nil, 0)

	err := notifier.Notify(context.Background(), domain.Notification{UserID: "bob"})

	require.ErrorContains(t, err, "503")
}

func TestLogNotifier_Never_Fails(t *testing.T) {
	notifier := NewLogNotifier(logs.GetLoggerFromLevel(slog.LevelDebug))

	require.NoError(t, notifier.Notify(context.Background(), domain.Notification{UserID: "bob"}))
}
