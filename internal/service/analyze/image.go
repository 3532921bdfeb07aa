package analyze

import (
	"context"
	"log"
	"strings"

	"github.com/aegatekeeper/backend/internal/service/ai"
)

// Fallbacks keep the conversation moving when the vision call fails or no
// model is configured.
const (
	FallbackOutfit      = "casual outfit"
	FallbackDescription = "A person in casual attire with a friendly demeanor."
)

const (
	outfitPrompt = "Describe this person's outfit and look in 2-3 short phrases. " +
		"Mention clothing style and one notable detail. No preamble, phrases only."
	fullDescriptionPrompt = "Describe this person's physical appearance in one detailed paragraph " +
		"suitable for seeding an image generator: hair, face, clothing, colors, posture. " +
		"Factual and neutral, no preamble."
)

// ImageReport pairs the short outfit note the doorkeeper comments on with
// the full description used later for badge-portrait seeding.
type ImageReport struct {
	Description     string `json:"description"`
	FullDescription string `json:"fullDescription"`
}

// ImageAnalyzer looks at a guest photo. It never fails: without a model, or
// when the vision call errors, it answers with fixed fallbacks.
type ImageAnalyzer struct {
	aiService *ai.Service
}

// NewImageAnalyzer builds an analyzer. aiService may be nil.
func NewImageAnalyzer(aiService *ai.Service) *ImageAnalyzer {
	return &ImageAnalyzer{aiService: aiService}
}

// Analyze describes the photo behind the data URL.
func (a *ImageAnalyzer) Analyze(ctx context.Context, imageDataURL string) ImageReport {
	fallback := ImageReport{
		Description:     FallbackOutfit,
		FullDescription: FallbackDescription,
	}
	if a.aiService == nil || imageDataURL == "" {
		return fallback
	}

	report := fallback

	outfit, err := a.aiService.DescribeImage(ctx, outfitPrompt, imageDataURL, 120)
	if err != nil {
		log.Printf("[analyze] outfit description failed, using fallback: %v", err)
	} else if outfit = strings.TrimSpace(outfit); outfit != "" {
		report.Description = outfit
	}

	full, err := a.aiService.DescribeImage(ctx, fullDescriptionPrompt, imageDataURL, 300)
	if err != nil {
		log.Printf("[analyze] full description failed, using fallback: %v", err)
	} else if full = strings.TrimSpace(full); full != "" {
		report.FullDescription = full
	}

	return report
}
