package treatment

import (
	"context"
	"fmt"
)

type Service struct {
	treatments Repository
}

func NewService(treatments Repository) *Service {
	return &Service{treatments: treatments}
}

func (s *Service) Create(ctx context.Context, t *Treatment) error {
	if err := validate(t); err != nil {
		return err
	}
	return s.treatments.Create(ctx, t)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Treatment, error) {
	return s.treatments.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, t *Treatment) error {
	if err := validate(t); err != nil {
		return err
	}
	return s.treatments.Update(ctx, t)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.treatments.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Treatment, int, error) {
	return s.treatments.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Treatment, int, error) {
	return s.treatments.ListByPatient(ctx, patientID, limit, offset)
}

func validate(t *Treatment) error {
	if t.PatientID <= 0 {
		return fmt.Errorf("patient_id is required")
	}
	if t.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	return nil
}
