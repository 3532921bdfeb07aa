package badge

import (
	"context"
	"log"
	"time"

	"github.com/aegatekeeper/backend/internal/apperr"
	"github.com/aegatekeeper/backend/internal/model/gate"
)

// FreeBadgeScore is the fixed score printed on badges earned through
// conversation rather than payment.
const FreeBadgeScore = 0.8

// PortraitGenerator renders a badge portrait from a person description.
type PortraitGenerator interface {
	Generate(ctx context.Context, personDescription string, amountAE float64, eventName string) (string, error)
}

// Service issues badges. The generator is optional; without it the paid
// path reports a config error and the free path still works.
type Service struct {
	generator PortraitGenerator
}

// NewService wires the badge service. generator may be nil.
func NewService(generator PortraitGenerator) *Service {
	return &Service{generator: generator}
}

// FreeBadge issues a badge for a guest accepted on conversational merit.
// The portrait is the guest's own photo run through the stylizer; without a
// photo the badge ships portrait-free.
func (s *Service) FreeBadge(photoDataURL, tagline string) gate.Badge {
	badge := gate.Badge{
		Tagline:  tagline,
		Score:    FreeBadgeScore,
		IssuedAt: time.Now().UTC(),
	}

	if photoDataURL != "" {
		portrait, err := Stylize(photoDataURL)
		if err != nil {
			log.Printf("[badge] stylize failed, issuing badge without portrait: %v", err)
		} else {
			badge.Portrait = portrait
		}
	}
	return badge
}

// PaidBadge issues a badge backed by a verified payment. The portrait is
// generated from the guest's physical description.
func (s *Service) PaidBadge(ctx context.Context, personDescription string, amountAE float64, tagline string) (gate.Badge, error) {
	if s.generator == nil {
		return gate.Badge{}, apperr.Configf("badge generation is not configured")
	}

	portrait, err := s.generator.Generate(ctx, personDescription, amountAE, "")
	if err != nil {
		return gate.Badge{}, err
	}

	return gate.Badge{
		Portrait: portrait,
		Tagline:  tagline,
		Score:    1.0,
		Paid:     true,
		AmountAE: amountAE,
		IssuedAt: time.Now().UTC(),
	}, nil
}
