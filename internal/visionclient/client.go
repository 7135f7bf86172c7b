package visionclient

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/web-detect/internal/logging"
)

// Config holds what is needed to reach Cloud Vision.
type Config struct {
	// CredentialsFile is a service account JSON. Empty falls back to application default credentials.
	CredentialsFile string
	// Endpoint overrides the default Cloud Vision endpoint.
	Endpoint string
	// Timeout bounds each DetectWeb call. Zero leaves the library's 10 minute default in place.
	Timeout time.Duration
}

// Client performs web detection against Cloud Vision. It holds no per-call
// state and is safe for concurrent use.
type Client struct {
	annotator *vision.ImageAnnotatorClient
	timeout   time.Duration
	logger    *zap.Logger
}

// New dials Cloud Vision once. Extra options are appended after the ones derived from cfg.
func New(ctx context.Context, cfg Config, logger *zap.Logger, extra ...option.ClientOption) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	opts = append(opts, extra...)

	annotator, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		wrapped := logging.NewOperationError("visionclient.dial", "", err)
		logger.Error("failed to create vision client", zap.Error(wrapped), zap.String("endpoint", cfg.Endpoint))
		return nil, wrapped
	}
	return &Client{annotator: annotator, timeout: cfg.Timeout, logger: logger.Named("visionclient")}, nil
}

// DetectWeb requests WEB_DETECTION for raw image bytes. The call is made once, never retried.
// A per-image error reported by the service is returned as a gRPC status error.
func (c *Client) DetectWeb(ctx context.Context, image []byte) (*visionpb.WebDetection, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_WEB_DETECTION}},
		}},
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	res, err := c.annotator.BatchAnnotateImages(ctx, req, noRetry)
	if err != nil {
		return nil, c.fail(err, len(image))
	}

	responses := res.GetResponses()
	if len(responses) == 0 {
		return nil, c.fail(status.Error(codes.Internal, "vision returned no annotation response"), len(image))
	}
	if perImage := responses[0].GetError(); perImage != nil {
		return nil, c.fail(status.ErrorProto(perImage), len(image))
	}
	return responses[0].GetWebDetection(), nil
}

func (c *Client) fail(err error, imageBytes int) error {
	c.logger.Error("web detection call failed",
		zap.Error(err),
		zap.String("code", logging.StatusCode(err).String()),
		zap.Int("image_bytes", imageBytes),
	)
	return fmt.Errorf("detect web: %w", err)
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.annotator.Close()
}

// noRetry overrides the library's retry on Unavailable. Without Config.Timeout
// the library's 10 minute per-call timeout applies.
var noRetry = gax.WithRetry(func() gax.Retryer { return nil })
