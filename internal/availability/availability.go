// Package availability answers whether a resource is free for a window of dates.
package availability

import (
	"context"
	"fmt"

	"coworking/internal/models"
)

// Selector identifies what a reservation is held on: a whole type
// (InstanceID == 0) or one physical instance of it.
type Selector struct {
	TypeKey    string `json:"resource_type"`
	InstanceID int64  `json:"instance_id,omitempty"`
}

func (s Selector) IsTypeLevel() bool {
	return s.InstanceID == 0
}

func (s Selector) String() string {
	if s.IsTypeLevel() {
		return s.TypeKey
	}
	return fmt.Sprintf("%s#%d", s.TypeKey, s.InstanceID)
}

// ReservationReader loads the reservations of a resource type.
type ReservationReader interface {
	GetReservationsByType(ctx context.Context, typeKey string) ([]*models.Reservation, error)
}

// Blocks reports whether an accepted reservation occupies the selected resource.
// A type-level reservation blocks every instance of its type, and a type-level
// selector is blocked by any reservation of the type.
func Blocks(r *models.Reservation, sel Selector) bool {
	if r == nil || !r.IsAccepted() || r.ResourceType != sel.TypeKey {
		return false
	}
	if sel.IsTypeLevel() || r.InstanceID == 0 {
		return true
	}
	return r.InstanceID == sel.InstanceID
}

// IsFree reports whether no reservation blocking sel overlaps the window.
func IsFree(reservations []*models.Reservation, sel Selector, w models.Window) bool {
	for _, r := range reservations {
		if Blocks(r, sel) && r.Window().Overlaps(w) {
			return false
		}
	}
	return true
}

// FirstFree picks the resource to book for the window. Types without
// instances are checked as a whole; pooled types return the first free
// instance in catalog order.
func FirstFree(reservations []*models.Reservation, rt models.ResourceType, w models.Window) (Selector, bool) {
	if !rt.HasInstances() {
		sel := Selector{TypeKey: rt.Key}
		return sel, IsFree(reservations, sel, w)
	}
	for _, inst := range rt.Instances {
		sel := Selector{TypeKey: rt.Key, InstanceID: inst.ID}
		if IsFree(reservations, sel, w) {
			return sel, true
		}
	}
	return Selector{}, false
}

// CountFree returns how many units of the type are free for the window.
// A type without instances counts as one unit.
func CountFree(reservations []*models.Reservation, rt models.ResourceType, w models.Window) int {
	if !rt.HasInstances() {
		if IsFree(reservations, Selector{TypeKey: rt.Key}, w) {
			return 1
		}
		return 0
	}
	free := 0
	for _, inst := range rt.Instances {
		if IsFree(reservations, Selector{TypeKey: rt.Key, InstanceID: inst.ID}, w) {
			free++
		}
	}
	return free
}

// Calculator runs availability checks against a reservation source.
type Calculator struct {
	reader ReservationReader
}

func NewCalculator(reader ReservationReader) *Calculator {
	return &Calculator{reader: reader}
}

// IsAvailable checks a single selector. Read failures are returned, never
// reported as free.
func (c *Calculator) IsAvailable(ctx context.Context, sel Selector, w models.Window) (bool, error) {
	reservations, err := c.reader.GetReservationsByType(ctx, sel.TypeKey)
	if err != nil {
		return false, fmt.Errorf("load reservations for %s: %w", sel.TypeKey, err)
	}
	return IsFree(reservations, sel, w), nil
}

// FindFree resolves the type to a free selector for the whole window.
func (c *Calculator) FindFree(ctx context.Context, rt models.ResourceType, w models.Window) (Selector, bool, error) {
	reservations, err := c.reader.GetReservationsByType(ctx, rt.Key)
	if err != nil {
		return Selector{}, false, fmt.Errorf("load reservations for %s: %w", rt.Key, err)
	}
	sel, ok := FirstFree(reservations, rt, w)
	return sel, ok, nil
}
