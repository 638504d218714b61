package treatment

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id int64) (*Treatment, error)
	Update(ctx context.Context, t *Treatment) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*Treatment, int, error)
	ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Treatment, int, error)
}
