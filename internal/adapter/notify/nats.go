package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"procurement-backend/internal/usecase/workflow"
)

var _ workflow.Notifier = (*NATS)(nil)

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes each event on <subject>.<event name>. Publish errors are
// logged and never reach the caller.
type NATS struct {
	pub     Publisher
	subject string
	log     logrus.FieldLogger
}

func NewNATS(pub Publisher, subject string, log logrus.FieldLogger) *NATS {
	return &NATS{pub: pub, subject: subject, log: log}
}

func DialNATS(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("procurement-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

func (n *NATS) Subject(e workflow.Event) string { return n.subject + "." + e.Name }

func (n *NATS) Notify(_ context.Context, e workflow.Event) {
	if n.pub == nil {
		return
	}
	env := newEnvelope(e)
	data, err := json.Marshal(env)
	if err != nil {
		n.log.WithError(err).WithField("event", e.Name).Warn("notification: failed to marshal event")
		return
	}
	subject := n.Subject(e)
	if err := n.pub.Publish(subject, data); err != nil {
		n.log.WithError(err).WithFields(logrus.Fields{
			"subject":      subject,
			"reference_no": e.ReferenceNo,
		}).Warn("notification: failed to publish NATS event (non-fatal)")
		return
	}
	n.log.WithFields(logrus.Fields{"subject": subject, "event_id": env.ID}).Debug("notification: event published")
}
