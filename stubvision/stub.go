package stubvision

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
)

// Client is a deterministic, no-network stand-in for the Cloud Vision image annotator,
// intended for CI and local end-to-end runs. The same image always yields the same labels.
type Client struct{}

func NewClient() *Client { return &Client{} }

var vocabulary = []string{
	"Plant", "Leaf", "Flower", "Houseplant", "Terrestrial plant", "Petal",
	"Botany", "Flowerpot", "Grass", "Tree", "Succulent plant", "Herb",
}

const defaultMaxResults = 10

func (c *Client) BatchAnnotateImages(_ context.Context, req *visionpb.BatchAnnotateImagesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error) {
	resp := &visionpb.BatchAnnotateImagesResponse{}
	for _, r := range req.GetRequests() {
		resp.Responses = append(resp.Responses, annotate(r))
	}
	return resp, nil
}

func (c *Client) Close() error { return nil }

func annotate(r *visionpb.AnnotateImageRequest) *visionpb.AnnotateImageResponse {
	content := r.GetImage().GetContent()
	if len(content) == 0 {
		return &visionpb.AnnotateImageResponse{
			Error: &statuspb.Status{Code: int32(codes.InvalidArgument), Message: "Bad image data."},
		}
	}

	max := defaultMaxResults
	for _, f := range r.GetFeatures() {
		if f.GetType() == visionpb.Feature_LABEL_DETECTION && f.GetMaxResults() > 0 {
			max = int(f.GetMaxResults())
		}
	}

	sum := sha256.Sum256(content)
	count := int(sum[0])%4 + 1
	if count > max {
		count = max
	}
	start := int(binary.BigEndian.Uint16(sum[1:3])) % len(vocabulary)

	res := &visionpb.AnnotateImageResponse{}
	score := 0.95 - float32(sum[3]%10)/100
	for i := 0; i < count; i++ {
		res.LabelAnnotations = append(res.LabelAnnotations, &visionpb.EntityAnnotation{
			Description: vocabulary[(start+i)%len(vocabulary)],
			Score:       score,
			Topicality:  score,
		})
		score -= 0.1
	}
	return res
}
