package service

import (
	"context"
	"os"
	"time"

	"github.com/apex/log"

	"plantapp/imageprep"
	"plantapp/labels"
	"plantapp/metrics"
	"plantapp/models"
)

// Labeler is anything that turns one image into labels; *labels.Pipeline in production.
type Labeler interface {
	RequestLabels(ctx context.Context, image []byte) ([]labels.Label, error)
}

// EventPublisher publishes label events; *rabbitmq.Publisher in production.
type EventPublisher interface {
	Publish(message interface{}) error
}

// Request is one image to label along with where it came from
type Request struct {
	ID       string
	Source   string
	Filename string
	Image    []byte
}

// Service wraps a Labeler with the logging, metrics, preprocessing and events every
// front end shares. Outcomes pass through untouched.
type Service struct {
	labeler   Labeler
	preparer  imageprep.Preparer
	publisher EventPublisher
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPreparer resizes images before they are labeled.
func WithPreparer(p imageprep.Preparer) Option {
	return func(s *Service) { s.preparer = p }
}

// WithPublisher publishes an event for every completed request.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService creates a new label service
func NewService(labeler Labeler, opts ...Option) *Service {
	s := &Service{labeler: labeler, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Label labels req.Image. The returned error, if any, is the pipeline's error as is.
func (s *Service) Label(ctx context.Context, req Request) ([]labels.Label, error) {
	entry := log.WithFields(log.Fields{
		"request_id": req.ID,
		"source":     req.Source,
		"filename":   req.Filename,
		"bytes":      len(req.Image),
	})

	image := s.prepare(entry, req.Image)

	result, elapsed, err := s.request(ctx, image)

	kind := labels.KindOf(err)
	outcome := resultLabel(kind)
	metrics.RequestsTotal.WithLabelValues(req.Source, outcome).Inc()
	metrics.RequestDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())

	entry = entry.WithField("duration_ms", elapsed.Milliseconds())
	if err != nil {
		entry.WithField("kind", kind.String()).WithError(err).Error("Label request failed")
	} else {
		metrics.LabelsReturned.Observe(float64(len(result)))
		entry.WithField("labels", len(result)).Info("Labeled image")
	}

	s.publish(entry, req, result, err)
	return result, err
}

// LabelFile reads path and labels its content. A read failure is a labels.TransportError.
func (s *Service) LabelFile(ctx context.Context, req Request, path string) ([]labels.Label, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		err = labels.Transport("read", err)
		kind := labels.KindOf(err)
		metrics.RequestsTotal.WithLabelValues(req.Source, resultLabel(kind)).Inc()
		log.WithFields(log.Fields{
			"request_id": req.ID,
			"source":     req.Source,
			"path":       path,
			"kind":       kind.String(),
		}).WithError(err).Error("Failed to read image")
		s.publish(log.WithField("request_id", req.ID), req, nil, err)
		return nil, err
	}
	req.Image = image
	return s.Label(ctx, req)
}

func (s *Service) request(ctx context.Context, image []byte) ([]labels.Label, time.Duration, error) {
	metrics.InFlight.Inc()
	defer metrics.InFlight.Dec()

	start := s.now()
	result, err := s.labeler.RequestLabels(ctx, image)
	return result, s.now().Sub(start), err
}

func (s *Service) prepare(entry *log.Entry, image []byte) []byte {
	out, res, err := s.preparer.Prepare(image)
	if err != nil {
		entry.WithError(err).Warn("Image preprocessing failed, sending original")
		return image
	}
	if res.Resized {
		entry.WithFields(log.Fields{
			"original": []int{res.OriginalWidth, res.OriginalHeight},
			"resized":  []int{res.Width, res.Height},
			"orient":   res.Orientation,
		}).Debug("Image resized before labeling")
	}
	return out
}

func (s *Service) publish(entry *log.Entry, req Request, result []labels.Label, err error) {
	if s.publisher == nil {
		return
	}
	event := models.LabelEvent{
		RequestID: req.ID,
		Source:    req.Source,
		Filename:  req.Filename,
		Labels:    result,
		Timestamp: s.now().UTC(),
	}
	if err != nil {
		event.ErrorKind = labels.KindOf(err).String()
		event.Error = labels.Message(err)
	}
	if pubErr := s.publisher.Publish(event); pubErr != nil {
		metrics.EventPublishErrorTotal.Inc()
		entry.WithError(pubErr).Warn("Failed to publish label event")
	}
}

func resultLabel(kind labels.Kind) string {
	if kind == labels.KindNone {
		return "ok"
	}
	return kind.String()
}
