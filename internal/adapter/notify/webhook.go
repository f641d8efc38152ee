package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"procurement-backend/internal/usecase/workflow"
)

var _ workflow.Notifier = (*Webhook)(nil)

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
)

// envelope is the body posted to the webhook and published on NATS.
type envelope struct {
	ID string `json:"id"`
	workflow.Event
}

func newEnvelope(e workflow.Event) envelope { return envelope{ID: uuid.NewString(), Event: e} }

// Webhook posts events to one URL from a small worker pool. Notify never
// blocks: when the queue is full the event is dropped and logged.
type Webhook struct {
	url     string
	client  *http.Client
	log     logrus.FieldLogger
	queue   chan envelope
	backoff time.Duration
	wg      sync.WaitGroup

	mu     sync.RWMutex // guards closed against Notify racing Close
	closed bool
}

type WebhookOption func(*Webhook)

func WithHTTPClient(c *http.Client) WebhookOption { return func(w *Webhook) { w.client = c } }
func WithBackoff(d time.Duration) WebhookOption   { return func(w *Webhook) { w.backoff = d } }
func WithQueueSize(n int) WebhookOption           { return func(w *Webhook) { w.queue = make(chan envelope, n) } }
func WithWebhookLogger(l logrus.FieldLogger) WebhookOption {
	return func(w *Webhook) { w.log = l }
}

func NewWebhook(url string, timeout time.Duration, workers int, opts ...WebhookOption) *Webhook {
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &Webhook{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		log:     logrus.StandardLogger(),
		queue:   make(chan envelope, defaultQueueSize),
		backoff: time.Second,
	}
	for _, o := range opts {
		o(w)
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.worker()
	}
	return w
}

// Notify enqueues e. Events arriving after Close are dropped and logged.
func (w *Webhook) Notify(_ context.Context, e workflow.Event) {
	env := newEnvelope(e)
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.log.WithFields(logrus.Fields{"event": e.Name, "reference_no": e.ReferenceNo}).
			Warn("webhook closed, dropping event")
		return
	}
	select {
	case w.queue <- env:
	default:
		w.log.WithFields(logrus.Fields{"event": e.Name, "reference_no": e.ReferenceNo}).
			Warn("webhook queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (w *Webhook) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Webhook) worker() {
	defer w.wg.Done()
	for env := range w.queue {
		w.deliver(env)
	}
}

func (w *Webhook) deliver(env envelope) {
	backoff := w.backoff
	var err error
	for attempt := 1; attempt <= defaultMaxAttempts; attempt++ {
		if err = w.post(env); err == nil {
			return
		}
		if attempt < defaultMaxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	w.log.WithError(err).WithFields(logrus.Fields{
		"event":        env.Name,
		"event_id":     env.ID,
		"reference_no": env.ReferenceNo,
	}).Warn("webhook delivery failed")
}

func (w *Webhook) post(env envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Id", env.ID)
	req.Header.Set("X-Event-Type", env.Name)
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
