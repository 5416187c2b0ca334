package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"weatherday/internal/modules/weather/types"
)

// PublishMorningWindow publishes w retained on the configured topic,
// suffixed with the date: <MQTT_PUBLISH_TOPIC>/<YYYY-MM-DD>.
func (c *Client) PublishMorningWindow(ctx context.Context, w types.MorningWindow) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	topic := morningTopic(c.cfg.MQTTPublishTopic, w.Date)
	data, err := encodeMorningWindow(w)
	if err != nil {
		return err
	}

	token := c.client.Publish(topic, 1, true, data)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish morning window: %w", err)
	}

	c.logger.Debug("published morning window", "topic", topic, "date", w.Date)
	return nil
}

func morningTopic(base, date string) string {
	return base + "/" + date
}

func encodeMorningWindow(w types.MorningWindow) ([]byte, error) {
	if w.Winds == nil {
		w.Winds = []types.WindObservation{}
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshal morning window: %w", err)
	}
	return data, nil
}
