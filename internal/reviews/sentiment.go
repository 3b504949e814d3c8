package reviews

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	comprehendtypes "github.com/aws/aws-sdk-go-v2/service/comprehend/types"

	"github.com/bookstore-labs/go-bookstore-backend/internal/aws"
)

// ComprehendDetector detects sentiment via Amazon Comprehend.
type ComprehendDetector struct {
	client aws.ComprehendAPI
}

// NewComprehendDetector returns a detector backed by the Comprehend client.
func NewComprehendDetector(client aws.ComprehendAPI) *ComprehendDetector {
	return &ComprehendDetector{client: client}
}

// Detect classifies text and returns the dominant sentiment label.
func (d *ComprehendDetector) Detect(ctx context.Context, text string) (string, error) {
	out, err := d.client.DetectSentiment(ctx, &comprehend.DetectSentimentInput{
		Text:         &text,
		LanguageCode: comprehendtypes.LanguageCodeEn,
	})
	if err != nil {
		return "", fmt.Errorf("detect sentiment: %w", err)
	}
	return string(out.Sentiment), nil
}
