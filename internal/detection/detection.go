package detection

import (
	"context"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// Client exposes the one vision capability the gateway consumes.
type Client interface {
	DetectWeb(ctx context.Context, image []byte) (*visionpb.WebDetection, error)
}

// Result is the simplified web detection payload returned to callers.
// The slices are never nil so they always encode as JSON arrays.
type Result struct {
	FullMatches           []string `json:"fullMatches"`
	PartialMatches        []string `json:"partialMatches"`
	VisuallySimilarImages []string `json:"visuallySimilarImages"`
}

type urlGetter interface {
	GetUrl() string
}

// URLs projects items to their URLs in order. Nil or empty input yields an empty, non-nil slice.
func URLs[T urlGetter](items []T) []string {
	urls := make([]string, 0, len(items))
	for _, item := range items {
		urls = append(urls, item.GetUrl())
	}
	return urls
}

// FromWebDetection flattens an annotation. A nil annotation yields three empty lists.
func FromWebDetection(annotation *visionpb.WebDetection) *Result {
	return &Result{
		FullMatches:           URLs(annotation.GetPagesWithMatchingImages()),
		PartialMatches:        URLs(annotation.GetPartialMatchingImages()),
		VisuallySimilarImages: URLs(annotation.GetVisuallySimilarImages()),
	}
}
