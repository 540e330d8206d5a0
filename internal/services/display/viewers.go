// Package display holds the presentation surfaces for relay results.
package display

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"

	"devcollab/internal/logger"
	"devcollab/internal/services/relay"
)

// Publisher is the part of the websocket hub the viewers display needs.
type Publisher interface {
	Publish(message []byte) bool
}

type frameMessage struct {
	Type  string `json:"type"`
	Seq   uint64 `json:"seq"`
	Image string `json:"image"`
}

type statusMessage struct {
	Type    string          `json:"type"`
	Kind    relay.EventKind `json:"kind"`
	Seq     uint64          `json:"seq,omitempty"`
	Message string          `json:"message"`
}

// Viewers pushes every displayed result to connected browser viewers as a
// base64 JPEG inside a JSON message.
type Viewers struct {
	hub     Publisher
	encoder relay.Encoder
	logger  *logger.Logger
}

// NewViewers creates a viewers display on top of hub.
func NewViewers(hub Publisher, quality int, logger *logger.Logger) *Viewers {
	return &Viewers{
		hub:     hub,
		encoder: relay.JPEGEncoder{Quality: quality},
		logger:  logger,
	}
}

func (v *Viewers) Show(seq uint64, img image.Image) error {
	data, _, err := v.encoder.Encode(img)
	if err != nil {
		return fmt.Errorf("encode frame #%d for viewers: %w", seq, err)
	}

	msg, err := json.Marshal(frameMessage{
		Type:  "frame",
		Seq:   seq,
		Image: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return err
	}

	if !v.hub.Publish(msg) {
		v.logger.Warning("⚠️  Viewer queue full - skipping frame #%d", seq)
	}
	return nil
}

// Observe forwards relay status events to viewers. Dropped ticks are not
// forwarded; at 60 ticks a second they would swamp the queue.
func (v *Viewers) Observe(ev relay.Event) {
	if ev.Kind == relay.EventDropped {
		return
	}
	msg, err := json.Marshal(statusMessage{
		Type:    "status",
		Kind:    ev.Kind,
		Seq:     ev.Seq,
		Message: ev.Message(),
	})
	if err != nil {
		return
	}
	v.hub.Publish(msg)
}
