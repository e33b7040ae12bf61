package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"dormportal-backend/internal/model"
	"dormportal-backend/internal/ws"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// pushPayload is the JSON document the service worker renders.
type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
}

// WorkerPool delivers laundry-ready notices for expired cycle timers. Users
// with a stored push subscription get a system notification; everyone else
// gets an in-app toast over the live feed. Expired subscriptions (HTTP 410)
// are pruned.
type WorkerPool struct {
	size    int
	jobs    chan model.CycleTimer
	db      *gorm.DB
	hub     *ws.Hub
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, hub *ws.Hub, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.CycleTimer, size),
		db:      db,
		hub:     hub,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("notification worker %d started", id)
	for {
		select {
		case timer := <-wp.jobs:
			wp.notifyTimerDone(ctx, timer)
		case <-ctx.Done():
			log.Printf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a finished timer for delivery.
func (wp *WorkerPool) Dispatch(timer model.CycleTimer) {
	wp.jobs <- timer
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.CycleTimer {
	return wp.jobs
}

func (wp *WorkerPool) notifyTimerDone(ctx context.Context, timer model.CycleTimer) {
	payload := pushPayload{
		Title: "Laundry Ready!",
		Body:  fmt.Sprintf("%s has finished", timer.MachineName),
		Icon:  fmt.Sprintf("/%s.png", timer.DormID),
	}

	// The in-app toast always goes out; a backgrounded client picks it up on
	// reconnect, a foregrounded one shows it immediately.
	wp.hub.Broadcast(ws.Event{
		Type:    "toast",
		Dorm:    timer.DormID,
		UserID:  timer.UserID,
		Payload: payload,
	})

	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).
		Where("user_id = ?", timer.UserID).
		Find(&subscriptions).Error; err != nil {
		log.Printf("fetching subscriptions for user %s: %v", timer.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("marshalling push payload: %v", err)
		return
	}
	for _, sub := range subscriptions {
		wp.sendPush(ctx, sub, body)
	}
}

func (wp *WorkerPool) sendPush(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription %s expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("deleting expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
