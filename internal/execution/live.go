package execution

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/nerrad567/gray-logic-show/internal/intent"
)

// LiveMessage is the JSON payload of a live intent, published on the show
// intent MQTT topic.
//
//	{
//	  "effect": "blackout-override",
//	  "layer": 200,
//	  "delay_ms": 0,
//	  "operation": "max",
//	  "intents": [
//	    {"channel": "0b7c...", "type": "lighting", "color": "#ff8800",
//	     "start": 0, "end": 1, "span_ms": 2000}
//	  ]
//	}
type LiveMessage struct {
	Effect    string       `json:"effect"`
	Layer     byte         `json:"layer"`
	DelayMS   int64        `json:"delay_ms"`
	Operation string       `json:"operation"`
	Intents   []LiveIntent `json:"intents"`
}

// LiveIntent is one channel intent of a LiveMessage.
type LiveIntent struct {
	Channel  uuid.UUID `json:"channel"`
	Type     string    `json:"type"`
	Color    string    `json:"color,omitempty"`
	Start    float64   `json:"start"`
	End      float64   `json:"end"`
	SpanMS   int64     `json:"span_ms"`
	OffsetMS int64     `json:"offset_ms"`
}

// ParseLiveMessage decodes and validates a live intent payload into an
// effect, returning the effect and its start delay.
func ParseLiveMessage(payload []byte) (Effect, time.Duration, error) {
	var msg LiveMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Effect{}, 0, fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}
	if len(msg.Intents) == 0 {
		return Effect{}, 0, fmt.Errorf("%w: no intents", ErrInvalidIntent)
	}
	if msg.DelayMS < 0 {
		return Effect{}, 0, fmt.Errorf("%w: negative delay", ErrInvalidIntent)
	}

	op := intent.OpMax
	if msg.Operation != "" {
		parsed, err := intent.ParseOperation(msg.Operation)
		if err != nil {
			return Effect{}, 0, fmt.Errorf("%w: %w", ErrInvalidIntent, err)
		}
		op = parsed
	}

	intents := make(intent.ChannelIntents)
	for i, li := range msg.Intents {
		if li.Channel == uuid.Nil {
			return Effect{}, 0, fmt.Errorf("%w: intent %d has no channel", ErrInvalidIntent, i)
		}
		if li.SpanMS <= 0 || li.OffsetMS < 0 {
			return Effect{}, 0, fmt.Errorf("%w: intent %d needs a positive span", ErrInvalidIntent, i)
		}
		in, err := li.build()
		if err != nil {
			return Effect{}, 0, fmt.Errorf("intent %d: %w", i, err)
		}
		intents.AddIntentNodeToChannel(li.Channel, intent.NewNode(in, time.Duration(li.OffsetMS)*time.Millisecond), op)
	}

	name := msg.Effect
	if name == "" {
		name = "live"
	}
	return Effect{
		Name:    name,
		Intents: intents,
		Layer:   msg.Layer,
	}, time.Duration(msg.DelayMS) * time.Millisecond, nil
}

func (li LiveIntent) build() (intent.Intent, error) {
	span := time.Duration(li.SpanMS) * time.Millisecond
	switch strings.ToLower(li.Type) {
	case "float":
		return intent.FloatTransition{Start: li.Start, End: li.End, Span: span}, nil
	case "percentage":
		return intent.PercentageTransition{Start: li.Start, End: li.End, Span: span}, nil
	case "lighting", "discrete", "rgb":
		c, err := parseColor(li.Color)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(li.Type) {
		case "lighting":
			return intent.LightingTransition{Color: c, Start: li.Start, End: li.End, Span: span}, nil
		case "discrete":
			return intent.DiscreteTransition{Color: c, Start: li.Start, End: li.End, Span: span}, nil
		default:
			return intent.StaticIntent{Value: intent.RGBValue{Color: c}, Span: span}, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntentType, li.Type)
	}
}

func parseColor(hex string) (intent.Color, error) {
	if hex == "" {
		return intent.Color{}, fmt.Errorf("%w: colour required", ErrInvalidIntent)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return intent.Color{}, fmt.Errorf("%w: %w", ErrInvalidIntent, err)
	}
	return intent.FromColorful(c), nil
}

// HandleLiveIntent schedules the effect carried by an MQTT live intent
// message. Its signature matches the MQTT client's message handler.
func (p *Playback) HandleLiveIntent(topic string, payload []byte) error {
	e, delay, err := ParseLiveMessage(payload)
	if err != nil {
		p.liveRejected.Increment()
		p.logger.Warn("rejected live intent", "topic", topic, "error", err)
		return err
	}
	p.liveAccepted.Increment()
	id := p.ScheduleNow(e, delay)
	p.logger.Info("live intent scheduled", "topic", topic, "effect", e.Name, "id", id, "channels", len(e.Intents))
	return nil
}
