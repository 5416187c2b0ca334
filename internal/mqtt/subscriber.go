package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"weatherday/internal/modules/weather/types"
)

// handleMessage decodes a reading payload and hands it to the handler.
// Undecodable or invalid payloads are logged and dropped.
func (c *Client) handleMessage(ctx context.Context, topic string, payload []byte) {
	c.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	r, err := decodeReading(payload)
	if err != nil {
		c.logger.Warn("failed to parse reading message",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}
	if r.StationID == "" {
		r.StationID = stationFromTopic(topic)
	}
	if err := c.validate.Struct(r); err != nil {
		c.logger.Warn("invalid reading message",
			"topic", topic,
			"station_id", r.StationID,
			"error", err,
		)
		return
	}

	c.handlerMu.RLock()
	handler := c.handler
	c.handlerMu.RUnlock()
	if handler == nil {
		c.logger.Warn("no reading handler registered; message dropped", "topic", topic)
		return
	}

	if err := handler(ctx, r); err != nil {
		c.logger.Error("reading handler failed",
			"topic", topic,
			"station_id", r.StationID,
			"date", r.Date,
			"hour", r.Hour,
			"error", err,
		)
		return
	}
	c.logger.Debug("processed reading message",
		"station_id", r.StationID,
		"date", r.Date,
		"hour", r.Hour,
	)
}

func decodeReading(payload []byte) (types.Reading, error) {
	var r types.Reading
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return types.Reading{}, err
	}
	return r, nil
}

// stationFromTopic extracts {id} from a "stations/{id}/readings" topic.
func stationFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 3 && parts[0] == "stations" {
		return parts[1]
	}
	return ""
}
