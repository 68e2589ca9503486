package labels

import (
	"context"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// Annotator is the part of vision.ImageAnnotatorClient the pipeline uses.
type Annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// ConnectFunc acquires an annotator for one request. The pipeline closes it when the
// request is done.
type ConnectFunc func(ctx context.Context) (Annotator, error)

// DialVision returns a ConnectFunc creating a Cloud Vision client per request.
// Credentials come from the environment unless opts say otherwise.
func DialVision(opts ...option.ClientOption) ConnectFunc {
	return func(ctx context.Context) (Annotator, error) {
		client, err := vision.NewImageAnnotatorClient(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Shared returns a ConnectFunc handing out the same long-lived annotator to every
// request. Closing it stays with the caller.
func Shared(a Annotator) ConnectFunc {
	return func(context.Context) (Annotator, error) {
		return nopCloser{a}, nil
	}
}

type nopCloser struct {
	Annotator
}

func (nopCloser) Close() error { return nil }

// Pipeline sends one image per call to the vision service and normalizes the answer.
// It keeps no state between calls and is safe for concurrent use.
type Pipeline struct {
	connect    ConnectFunc
	maxResults int32
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxResults caps the number of labels asked for. Zero leaves the service default.
func WithMaxResults(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxResults = int32(n)
		}
	}
}

// NewPipeline creates a pipeline acquiring its annotator through connect.
func NewPipeline(connect ConnectFunc, opts ...Option) *Pipeline {
	p := &Pipeline{connect: connect}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RequestLabels runs label detection for a single image. It makes exactly one call to
// the service. An empty result is not an error.
func (p *Pipeline) RequestLabels(ctx context.Context, image []byte) ([]Label, error) {
	client, err := p.connect(ctx)
	if err != nil {
		return nil, Transport("connect", err)
	}
	defer client.Close()

	resp, err := client.BatchAnnotateImages(ctx, p.newRequest(image))
	if err != nil {
		return nil, Transport("annotate", err)
	}

	responses := resp.GetResponses()
	if len(responses) != 1 {
		return nil, unexpectedResponses(len(responses))
	}
	res := responses[0]
	if st := res.GetError(); st != nil {
		return nil, &ServiceError{
			Code:    codes.Code(st.GetCode()),
			Message: st.GetMessage(),
		}
	}
	return fromAnnotations(res.GetLabelAnnotations()), nil
}

// RequestLabelsFromFile reads the image at path and runs RequestLabels on it. A read
// failure is a TransportError and no request is sent.
func (p *Pipeline) RequestLabelsFromFile(ctx context.Context, path string) ([]Label, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, Transport("read", err)
	}
	return p.RequestLabels(ctx, image)
}

func (p *Pipeline) newRequest(image []byte) *visionpb.BatchAnnotateImagesRequest {
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{
				Type:       visionpb.Feature_LABEL_DETECTION,
				MaxResults: p.maxResults,
			}},
		}},
	}
}
