package service

import (
	"context"
	"errors"

	"github.com/apex/log"

	"plantapp/config"
	"plantapp/imageprep"
	"plantapp/rabbitmq"
)

// Build wires a Service from cfg: the configured pipeline, image preprocessing and,
// when a broker is configured, label events. An unreachable broker is logged and
// events stay off. The returned function releases everything Build acquired.
func Build(ctx context.Context, cfg *config.Config) (*Service, func() error, error) {
	pipeline, closePipeline, err := NewPipeline(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []Option{WithPreparer(imageprep.Preparer{
		MaxDimension: cfg.MaxImageDimension,
		Quality:      cfg.JPEGQuality,
	})}
	closers := []func() error{closePipeline}

	if url := cfg.RabbitMQ.AMQPURL(); url != "" {
		publisher, err := rabbitmq.NewPublisher(url, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to RabbitMQ, label events disabled")
		} else {
			log.WithFields(log.Fields{
				"exchange":    publisher.GetExchange(),
				"routing_key": publisher.GetRoutingKey(),
			}).Info("Publishing label events")
			opts = append(opts, WithPublisher(publisher))
			closers = append(closers, publisher.Close)
		}
	}

	release := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	return NewService(pipeline, opts...), release, nil
}
