package service

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"github.com/apex/log"
	"google.golang.org/api/option"

	"plantapp/config"
	"plantapp/labels"
	"plantapp/stubvision"
)

// NewPipeline builds the label pipeline selected by cfg. The returned function
// releases whatever the pipeline holds for the process lifetime.
func NewPipeline(ctx context.Context, cfg *config.Config) (*labels.Pipeline, func() error, error) {
	opts := []labels.Option{labels.WithMaxResults(cfg.VisionMaxResults)}
	noop := func() error { return nil }

	switch cfg.VisionProvider {
	case "stub":
		log.Info("Using stub vision provider")
		return labels.NewPipeline(labels.Shared(stubvision.NewClient()), opts...), noop, nil

	case "google", "":
		var clientOpts []option.ClientOption
		if cfg.VisionEndpoint != "" {
			clientOpts = append(clientOpts, option.WithEndpoint(cfg.VisionEndpoint))
		}
		if !cfg.VisionSharedClient {
			log.Info("Using Google Cloud Vision, one client per request")
			return labels.NewPipeline(labels.DialVision(clientOpts...), opts...), noop, nil
		}
		client, err := vision.NewImageAnnotatorClient(ctx, clientOpts...)
		if err != nil {
			return nil, nil, labels.Transport("connect", err)
		}
		log.Info("Using Google Cloud Vision, shared client")
		return labels.NewPipeline(labels.Shared(client), opts...), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown vision provider %q", cfg.VisionProvider)
	}
}
