package lab

import (
	"context"
)

type SampleRepository interface {
	Create(ctx context.Context, s *Sample) error
	GetByID(ctx context.Context, id int64) (*Sample, error)
	Update(ctx context.Context, s *Sample) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*Sample, int, error)
	ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Sample, int, error)
}

type TestRepository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByID(ctx context.Context, id int64) (*LabTest, error)
	Update(ctx context.Context, t *LabTest) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*LabTest, int, error)
	ListBySample(ctx context.Context, sampleID int64, limit, offset int) ([]*LabTest, int, error)

	// Data-quality checks, read-only.
	CountNullResults(ctx context.Context) (int, error)
	ListInvalidResults(ctx context.Context) ([]*LabTest, error)
}
