package service

import (
	"context"

	"weatherday/internal/modules/weather/types"
	"weatherday/internal/mqtt"
)

// Register routes live station readings from subscriber into the service.
func (s *Service) Register(subscriber mqtt.MQTTSubscriber) {
	subscriber.SetMessageHandler(func(ctx context.Context, r types.Reading) error {
		s.logger.Debug("processing reading message",
			"station_id", r.StationID,
			"date", r.Date,
			"hour", r.Hour,
		)
		return s.IngestReading(ctx, r)
	})
}
