package shift

import "context"

type ShiftRepository interface {
	Create(ctx context.Context, s Shift) (Shift, error)
	GetByID(ctx context.Context, id string) (Shift, error)
	// GetByName returns ErrShiftNotFound when no shift carries the name.
	GetByName(ctx context.Context, name string) (Shift, error)
	List(ctx context.Context, activeOnly bool) ([]Shift, error)
	Update(ctx context.Context, s Shift) (Shift, error)
	Delete(ctx context.Context, id string) error
}
