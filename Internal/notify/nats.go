package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
)

// publisher is the part of *nats.Conn a NATS notifier needs.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes each report as JSON on "<subject>.<ticker>".
type NATS struct {
	pub     publisher
	subject string
	close   func()
}

// ConnectNATS dials url and returns a notifier publishing under subject.
func ConnectNATS(url, subject string, logger *log.Logger) (*NATS, error) {
	options := []nats.Option{
		nats.Name("lexipulse"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return &NATS{pub: nc, subject: subject, close: nc.Close}, nil
}

func (n *NATS) Notify(ctx context.Context, r Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := n.pub.Publish(n.subject+"."+r.Ticker, data); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}

func (n *NATS) Close() {
	if n.close != nil {
		n.close()
	}
}
