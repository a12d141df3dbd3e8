// Package shop holds the shop record and the availability gate that decides
// whether a shop is currently accepting orders.
package shop

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no shop exists for the requested slug.
var ErrNotFound = errors.New("shop not found")

// Shop is a storefront tenant. This core only reads shops; ownership and
// editing live in the admin surfaces.
type Shop struct {
	ID             string
	Slug           string
	Name           string
	WhatsAppNumber string

	// IsOpen is the owner's manual open/closed switch.
	IsOpen bool
	// AutoClose enables the daily opening window below.
	AutoClose bool
	// OpeningTime and ClosingTime are local times of day in "HH:MM" form.
	OpeningTime string
	ClosingTime string
}

// Repository defines read access to shops.
type Repository interface {
	GetBySlug(ctx context.Context, slug string) (*Shop, error)
}

// AcceptingOrders reports whether the shop takes orders at the given instant.
// The caller supplies now already converted to the business's reference
// timezone.
//
// When AutoClose is set, the current time is formatted as "HH:MM" and compared
// lexicographically against OpeningTime and ClosingTime. Windows that cross
// midnight (opening later than closing, e.g. 22:00-02:00) evaluate as never
// open; this is a known limitation of the string comparison, kept until the
// product side decides on overnight semantics.
func (s *Shop) AcceptingOrders(now time.Time) bool {
	if !s.IsOpen {
		return false
	}
	if !s.AutoClose {
		return true
	}

	hhmm := now.Format("15:04")
	if hhmm < s.OpeningTime || hhmm > s.ClosingTime {
		return false
	}
	return true
}
