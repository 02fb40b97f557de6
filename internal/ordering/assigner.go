// Package ordering assigns parent_order positions to newly created sub-schedules.
package ordering

import (
	"context"
	"fmt"

	"schedr/internal/models"
)

// RootOrder is the position given to top-level schedules and to children whose
// parent cannot be found.
const RootOrder = 0

// ErrParentNotFound is returned in strict mode when the referenced parent is missing.
var ErrParentNotFound = fmt.Errorf("parent schedule not found: %w", models.ErrValidation)

// Reader exposes the sibling state needed to place a new child.
type Reader interface {
	// ParentOrder returns the parent_order of schedule parentID; found is false
	// when no row with that id exists.
	ParentOrder(ctx context.Context, parentID int64) (order int, found bool, err error)
	// MaxChildOrder returns the largest parent_order among all rows whose
	// parent_id is parentID, soft-deleted rows included; ok is false when the
	// parent has no children yet.
	MaxChildOrder(ctx context.Context, parentID int64) (max int, ok bool, err error)
}

// Options tunes Assign.
type Options struct {
	// Strict turns a missing parent into ErrParentNotFound instead of RootOrder.
	Strict bool
}

// Assign returns the parent_order for a new schedule under parentID.
//
// Callers that need the result to be unique among siblings must run Assign and
// the insert inside one write transaction; Reader is expected to be bound to it.
func Assign(ctx context.Context, r Reader, parentID *int64, opts Options) (int, error) {
	if parentID == nil {
		return RootOrder, nil
	}

	base, found, err := r.ParentOrder(ctx, *parentID)
	if err != nil {
		return 0, err
	}
	if !found {
		if opts.Strict {
			return 0, fmt.Errorf("parent %d: %w", *parentID, ErrParentNotFound)
		}
		return RootOrder, nil
	}

	max, ok, err := r.MaxChildOrder(ctx, *parentID)
	if err != nil {
		return 0, err
	}
	if !ok {
		max = base
	}
	return max + 1, nil
}
