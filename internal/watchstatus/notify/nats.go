package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/narwhalmedia/watchtrack/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchtrack/pkg/config"
)

const natsPublishTimeout = 5 * time.Second

// JetStreamPublisher is the part of jetstream.JetStream the notifier uses.
type JetStreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// ConnectJetStream connects to NATS and makes sure the status change stream
// exists. The returned cleanup drains the connection.
func ConnectJetStream(ctx context.Context, cfg config.NATSConfig, logger *zap.Logger) (jetstream.JetStream, func(), error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream := jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "Watch status change records",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
		Duplicates:  2 * time.Minute,
		Replicas:    1,
	}
	if _, err := js.CreateOrUpdateStream(ctx, stream); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create stream %s: %w", cfg.Stream, err)
	}

	cleanup := func() {
		if err := nc.Drain(); err != nil {
			logger.Error("failed to drain NATS connection", zap.Error(err))
		}
	}

	logger.Info("NATS notifier connected",
		zap.String("url", cfg.URL),
		zap.String("stream", cfg.Stream),
	)
	return js, cleanup, nil
}

// NATSNotifier publishes each change to JetStream, deduplicated by change id.
type NATSNotifier struct {
	js            JetStreamPublisher
	subjectPrefix string
	logger        *zap.Logger
}

// NewNATSNotifier creates a JetStream notifier.
func NewNATSNotifier(js JetStreamPublisher, subjectPrefix string, logger *zap.Logger) *NATSNotifier {
	return &NATSNotifier{
		js:            js,
		subjectPrefix: subjectPrefix,
		logger:        logger.Named("nats-notifier"),
	}
}

// Subject returns the subject a change is published on, e.g.
// "watchstatus.123.season".
func (n *NATSNotifier) Subject(profileID int64, change domain.StatusChange) string {
	return fmt.Sprintf("%s.%d.%s", n.subjectPrefix, profileID, change.EntityType)
}

// Notify publishes the batch in order and stops at the first failure.
func (n *NATSNotifier) Notify(ctx context.Context, batch domain.ChangeBatch) error {
	for _, env := range Envelopes(batch) {
		data, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to marshal change: %w", err)
		}

		subject := n.Subject(batch.ProfileID, env.Change)
		pubCtx, cancel := context.WithTimeout(ctx, natsPublishTimeout)
		ack, err := n.js.Publish(pubCtx, subject, data, jetstream.WithMsgID(env.Change.ID.String()))
		cancel()
		if err != nil {
			n.logger.Error("failed to publish change",
				zap.Error(err),
				zap.String("change_id", env.Change.ID.String()),
				zap.String("subject", subject),
			)
			return fmt.Errorf("failed to publish change: %w", err)
		}

		n.logger.Debug("change published",
			zap.String("change_id", env.Change.ID.String()),
			zap.String("subject", subject),
			zap.Uint64("sequence", ack.Sequence),
		)
	}
	return nil
}
