package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/mgdispatch/core/model"
	coremon "github.com/kilianp07/mgdispatch/core/monitoring"
	"github.com/kilianp07/mgdispatch/infra/logger"
)

// ErrPublishTimeout is returned when the broker does not confirm a publish
// in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Summary is the retained message published on the latest topic.
type Summary struct {
	RunID     string       `json:"run_id"`
	Status    model.Status `json:"status"`
	Objective float64      `json:"objective"`
	Horizon   int          `json:"horizon"`
	FinalSoC  float64      `json:"final_soc"`
	SolvedAt  time.Time    `json:"solved_at"`
}

// Publisher sends dispatch results to an MQTT broker.
type Publisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	logger     logger.Logger
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.timeout()) {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}
	return &Publisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.backoff(),
		timeout:    cfg.timeout(),
		logger:     log,
	}, nil
}

// ResultTopic returns the topic carrying the full result of a run.
func (p *Publisher) ResultTopic(runID string) string {
	return fmt.Sprintf("%s/%s/result", p.prefix, runID)
}

// LatestTopic returns the retained summary topic.
func (p *Publisher) LatestTopic() string {
	return p.prefix + "/latest"
}

// PublishResult publishes res as JSON on the result topic and a retained
// summary on the latest topic.
func (p *Publisher) PublishResult(ctx context.Context, res model.DispatchResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if err := p.publish(ctx, p.ResultTopic(res.RunID), false, payload); err != nil {
		coremon.CaptureException(err, map[string]string{"run_id": res.RunID, "module": "mqtt"})
		return err
	}
	summary, err := json.Marshal(Summary{
		RunID:     res.RunID,
		Status:    res.Status,
		Objective: res.Objective,
		Horizon:   len(res.Hours),
		FinalSoC:  res.FinalSoC(),
		SolvedAt:  res.SolvedAt,
	})
	if err != nil {
		return err
	}
	if err := p.publish(ctx, p.LatestTopic(), true, summary); err != nil {
		coremon.CaptureException(err, map[string]string{"run_id": res.RunID, "module": "mqtt"})
		return err
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, retained, payload)
		if token.WaitTimeout(p.timeout) {
			publishErr = token.Error()
		} else {
			publishErr = ErrPublishTimeout
		}
		if publishErr == nil {
			p.logger.Infof("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	return fmt.Errorf("publish to %s: %w", topic, publishErr)
}

// Close gracefully closes the MQTT connection.
func (p *Publisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
