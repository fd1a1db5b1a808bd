package repository

import (
	"context"

	"flowfarm/domain/model"
)

// ILaneStore persists lane credential records. Backing format (flat JSON file
// or Postgres) is an infrastructure concern; the core only needs these four
// operations.
type ILaneStore interface {
	ListAll(ctx context.Context) ([]model.Lane, error)
	FindByName(ctx context.Context, name string) (*model.Lane, error)
	Save(ctx context.Context, lane *model.Lane) error
	Delete(ctx context.Context, name string) error
}
