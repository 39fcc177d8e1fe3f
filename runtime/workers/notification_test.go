package workers

import (
	"altus-chat/domain"
	"altus-chat/mocks"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNotificationWorker_Forwards_And_Survives_Errors(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockINotifier(ctrl)
	queue := make(chan domain.Notification, 2)
	worker := NewNotificationWorker(log, notifier, nil, queue, time.Second)

	first := domain.Notification{UserID: "bob", Kind: domain.DirectMessageNotification, SenderID: "alice"}
	second := domain.Notification{UserID: "clara", Kind: domain.GroupMessageNotification, SenderID: "alice"}

	done := make(chan struct{})
	gomock.InOrder(
		// Given the notifier fails on the first call
		notifier.EXPECT().Notify(gomock.Any(), first).Return(errors.New("push gateway down")),
		notifier.EXPECT().Notify(gomock.Any(), second).DoAndReturn(
			func(ctx context.Context, n domain.Notification) error {
				close(done)
				return nil
			}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error)
	go func() { stopped <- worker.Run(ctx) }()

	// When two notifications are queued
	queue <- first
	queue <- second

	// Then both reach the notifier
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Notification was not forwarded in time")
	}
	cancel()
	req.NoError(<-stopped)
}
