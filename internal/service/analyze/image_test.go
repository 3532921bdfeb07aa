package analyze

import (
	"context"
	"testing"
)

func TestImageAnalyzeWithoutModel(t *testing.T) {
	report := NewImageAnalyzer(nil).Analyze(context.Background(), "data:image/png;base64,AAAA")

	if report.Description != FallbackOutfit {
		t.Errorf("description = %q, want fallback", report.Description)
	}
	if report.FullDescription != FallbackDescription {
		t.Errorf("fullDescription = %q, want fallback", report.FullDescription)
	}
}

func TestImageAnalyzeEmptyDataURL(t *testing.T) {
	report := NewImageAnalyzer(nil).Analyze(context.Background(), "")
	if report.Description != FallbackOutfit || report.FullDescription != FallbackDescription {
		t.Errorf("empty input should yield fallbacks, got %+v", report)
	}
}
