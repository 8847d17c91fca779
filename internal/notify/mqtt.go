// Package notify publishes an optional chunk-completion notification to
// an MQTT broker once a chunk's three output artifacts have been
// durably written. It is strictly additive: publish failures are logged
// and never block or roll back artifact writes.
package notify

import (
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ghardin1314/scribe/internal/transcript"
)

// Config selects the broker and topic for the chunk-completion publisher.
type Config struct {
	Broker string
	Topic  string
}

// chunkEvent is the payload published per completed chunk: enough for a
// dashboard to track progress without parsing the full transcript.
type chunkEvent struct {
	TimestampStart string  `json:"timestamp_start"`
	TimestampEnd   string  `json:"timestamp_end"`
	DurationSeconds float64 `json:"duration_seconds"`
	SpeakerCount   int     `json:"speaker_count"`
	HadSilence     bool    `json:"had_silence"` // true when the chunk result has no segments at all
}

// Publisher publishes chunk-completion events to one MQTT topic.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

// NewPublisher connects to cfg.Broker and returns a Publisher. The
// connection uses a short timeout and auto-reconnect; a connection
// failure here is returned so the caller can decide whether to start
// without notifications rather than fail the whole run.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID("scribe")
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, errConnectTimeout
	}
	if err := token.Error(); err != nil {
		return nil, err
	}

	return &Publisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

var errConnectTimeout = mqttTimeoutError{}

type mqttTimeoutError struct{}

func (mqttTimeoutError) Error() string { return "mqtt: connection timeout" }

// Publish sends one chunk-completion event. Failures are logged, never
// returned, since the output writer has already durably persisted the
// chunk's real artifacts by the time Publish is called.
func (p *Publisher) Publish(result transcript.ChunkResult) {
	hadSilence := len(result.Segments) == 0
	event := chunkEvent{
		TimestampStart:  result.TimestampStart,
		TimestampEnd:    result.TimestampEnd,
		DurationSeconds: result.DurationSeconds,
		SpeakerCount:    countSpeakers(result.Segments),
		HadSilence:      hadSilence,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("mqtt: failed to marshal chunk event", "error", err)
		}
		return
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		if p.logger != nil {
			p.logger.Warn("mqtt: publish timed out", "topic", p.topic)
		}
		return
	}
	if err := token.Error(); err != nil && p.logger != nil {
		p.logger.Warn("mqtt: publish failed", "topic", p.topic, "error", err)
	}
}

// Close disconnects the underlying MQTT client.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func countSpeakers(segments []transcript.SpeakerSegment) int {
	seen := make(map[transcript.Speaker]bool)
	for _, s := range segments {
		seen[s.Speaker] = true
	}
	return len(seen)
}
