package patient

import (
	"context"
	"fmt"
	"time"
)

type Service struct {
	patients Repository
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{patients: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.PatientCode == "" {
		return fmt.Errorf("patient_code is required")
	}
	if p.DOB.IsZero() {
		return fmt.Errorf("dob is required")
	}
	if p.DOB.After(s.now()) {
		return fmt.Errorf("dob must not be in the future")
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Patient, error) {
	return s.patients.GetByCode(ctx, code)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.PatientCode == "" {
		return fmt.Errorf("patient_code is required")
	}
	if p.DOB.IsZero() {
		return fmt.Errorf("dob is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// Summarize returns the derived per-patient view: calendar-year age, the
// reporting age bucket, and record counts.
func (s *Service) Summarize(ctx context.Context, id int64) (*Summary, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.patients.Counts(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &Summary{
		Patient:  p,
		Age:      p.AgeOn(now),
		AgeGroup: p.AgeGroupOn(now),
		Counts:   counts,
	}, nil
}
