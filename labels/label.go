// Package labels turns raw image bytes into the ordered list of labels returned by
// the Cloud Vision label detection feature, and renders that list for display.
package labels

import "cloud.google.com/go/vision/v2/apiv1/visionpb"

// Label is a single description/confidence pair reported by the vision service.
type Label struct {
	Description string  `json:"description"`
	Score       float32 `json:"score"`
}

// fromAnnotations keeps the service order; nothing is re-sorted or filtered.
func fromAnnotations(annotations []*visionpb.EntityAnnotation) []Label {
	result := make([]Label, 0, len(annotations))
	for _, a := range annotations {
		result = append(result, Label{
			Description: a.GetDescription(),
			Score:       a.GetScore(),
		})
	}
	return result
}
