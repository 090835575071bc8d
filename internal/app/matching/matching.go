// Package matching answers "how many donors can help right now" for a new
// emergency request.
package matching

import (
	"context"

	"github.com/dalemusser/bloodlink/internal/domain/models"
)

// AvailabilityCounter counts donors of a group whose availability flag is
// true or absent.
type AvailabilityCounter interface {
	CountAvailable(ctx context.Context, group models.BloodGroup) (int64, error)
}

// Engine computes point-in-time match counts. The result is meant to be
// stored on the request and never recomputed.
type Engine struct {
	donors AvailabilityCounter
}

func New(donors AvailabilityCounter) *Engine {
	return &Engine{donors: donors}
}

// CountAvailableDonors returns |{d : d.blood_group == group && d.available != false}|.
func (e *Engine) CountAvailableDonors(ctx context.Context, group models.BloodGroup) (int64, error) {
	return e.donors.CountAvailable(ctx, group)
}
