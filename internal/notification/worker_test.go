package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dormportal-backend/internal/model"
	"dormportal-backend/internal/ws"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.PushSubscription{}))
	return db
}

func okResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusCreated,
		Body:       io.NopCloser(bytes.NewBufferString("")),
	}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, newTestDB(t), ws.NewHub(), &webpush.Options{})

	wp.Dispatch(model.CycleTimer{ID: "timer-1", UserID: "user-1"})

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "timer-1", job.ID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, ws.NewHub(), &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends notification for one subscription", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		require.NoError(t, db.Create(&model.PushSubscription{
			Endpoint: "https://example.com/push",
			UserID:   "user-203",
			P256DH:   "test_p256dh",
			Auth:     "test_auth",
		}).Error)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Contains(t, string(payload), "Washer 1 has finished")
				wg.Done()
				return okResponse(), nil
			},
		}

		wp.Dispatch(model.CycleTimer{
			ID:          "timer-1",
			UserID:      "user-203",
			DormID:      "pariser",
			MachineName: "Washer 1",
		})
		wg.Wait()
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		require.NoError(t, db.Create(&model.PushSubscription{
			Endpoint: "https://example.com/expired",
			UserID:   "user-515",
			P256DH:   "test_p256dh_expired",
			Auth:     "test_auth_expired",
		}).Error)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		wp.Dispatch(model.CycleTimer{
			ID:          "timer-2",
			UserID:      "user-515",
			DormID:      "pariser",
			MachineName: "Dryer 3",
		})

		// The delete happens after the send returns; poll briefly for it.
		deadline := time.Now().Add(2 * time.Second)
		for {
			var count int64
			require.NoError(t, db.Model(&model.PushSubscription{}).
				Where("endpoint = ?", "https://example.com/expired").
				Count(&count).Error)
			if count == 0 {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("expired subscription was not deleted")
			}
			time.Sleep(20 * time.Millisecond)
		}
	})

	t.Run("no subscription means no push", func(t *testing.T) {
		called := false
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				called = true
				return okResponse(), nil
			},
		}

		wp.Dispatch(model.CycleTimer{
			ID:          "timer-3",
			UserID:      "user-without-subscription",
			DormID:      "tabu",
			MachineName: "Washer 2",
		})

		time.Sleep(100 * time.Millisecond)
		assert.False(t, called, "push should not be attempted without a subscription")
	})
}
