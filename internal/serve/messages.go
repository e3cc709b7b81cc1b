package serve

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/msalah0e/kgviz/internal/engine"
	"github.com/msalah0e/kgviz/internal/logging"
	"github.com/msalah0e/kgviz/internal/viewport"
)

// Message is a command sent by a viewer over the websocket.
type Message struct {
	Type  string   `json:"type" validate:"required,oneof=zoomIn zoomOut resetView search types select pointerDown pointerMove pointerUp pointerLeave wheel"`
	Term  string   `json:"term,omitempty" validate:"max=256"`
	Types []string `json:"types,omitempty" validate:"max=64,dive,max=128"`
	ID    string   `json:"id,omitempty"`
	X     float64  `json:"x,omitempty"`
	Y     float64  `json:"y,omitempty"`
	Delta float64  `json:"delta,omitempty"`
}

// Envelope is a message sent to viewers.
type Envelope struct {
	Type     string        `json:"type"`
	ClientID string        `json:"clientId,omitempty"`
	Frame    *engine.Frame `json:"frame,omitempty"`
	Error    string        `json:"error,omitempty"`
}

var validate = validator.New()

// DecodeMessage parses and validates a viewer message.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode message: %w", err)
	}
	if err := validate.Struct(m); err != nil {
		return m, fmt.Errorf("invalid message: %w", err)
	}
	return m, nil
}

// Command turns the message into an engine command. Commands the engine
// rejects are logged to log, which may be nil.
func (m Message) Command(log *zap.Logger) engine.Command {
	log = logging.OrNop(log)
	p := viewport.Point{X: m.X, Y: m.Y}
	switch m.Type {
	case "zoomIn":
		return func(e *engine.Engine) { e.ZoomIn() }
	case "zoomOut":
		return func(e *engine.Engine) { e.ZoomOut() }
	case "resetView":
		return func(e *engine.Engine) { e.ResetView() }
	case "search":
		return func(e *engine.Engine) { e.SetSearchTerm(m.Term) }
	case "types":
		return func(e *engine.Engine) { e.SetTypeFilter(m.Types) }
	case "select":
		return func(e *engine.Engine) {
			if err := e.SelectNode(m.ID); err != nil {
				log.Debug("select ignored", zap.Error(err))
			}
		}
	case "pointerDown":
		return func(e *engine.Engine) { e.Controller().PointerDown(p) }
	case "pointerMove":
		return func(e *engine.Engine) { e.Controller().PointerMove(p) }
	case "pointerUp":
		return func(e *engine.Engine) { e.Controller().PointerUp(p) }
	case "pointerLeave":
		return func(e *engine.Engine) { e.Controller().PointerLeave() }
	case "wheel":
		return func(e *engine.Engine) { e.Controller().Wheel(m.Delta, p) }
	}
	return func(*engine.Engine) {}
}
