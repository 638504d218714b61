package lab

import (
	"context"
	"fmt"
	"time"
)

type Service struct {
	samples SampleRepository
	tests   TestRepository
	now     func() time.Time
}

func NewService(samples SampleRepository, tests TestRepository) *Service {
	return &Service{samples: samples, tests: tests, now: time.Now}
}

// -- Samples --

func (s *Service) CreateSample(ctx context.Context, sm *Sample) error {
	if sm.PatientID <= 0 {
		return fmt.Errorf("patient_id is required")
	}
	return s.samples.Create(ctx, sm)
}

func (s *Service) GetSample(ctx context.Context, id int64) (*Sample, error) {
	return s.samples.GetByID(ctx, id)
}

func (s *Service) UpdateSample(ctx context.Context, sm *Sample) error {
	if sm.PatientID <= 0 {
		return fmt.Errorf("patient_id is required")
	}
	return s.samples.Update(ctx, sm)
}

func (s *Service) DeleteSample(ctx context.Context, id int64) error {
	return s.samples.Delete(ctx, id)
}

func (s *Service) ListSamples(ctx context.Context, limit, offset int) ([]*Sample, int, error) {
	return s.samples.List(ctx, limit, offset)
}

func (s *Service) ListSamplesByPatient(ctx context.Context, patientID int64, limit, offset int) ([]*Sample, int, error) {
	return s.samples.ListByPatient(ctx, patientID, limit, offset)
}

// -- Tests --

func (s *Service) CreateTest(ctx context.Context, t *LabTest) error {
	if t.SampleID <= 0 {
		return fmt.Errorf("sample_id is required")
	}
	// A missing result is allowed (the analyzer may not have reported yet);
	// a present result must be in the enumerated set.
	if t.Result != nil && !ValidResult(*t.Result) {
		return fmt.Errorf("invalid result %q, expected %q or %q", *t.Result, ResultPositive, ResultNegative)
	}
	return s.tests.Create(ctx, t)
}

func (s *Service) GetTest(ctx context.Context, id int64) (*LabTest, error) {
	return s.tests.GetByID(ctx, id)
}

func (s *Service) UpdateTest(ctx context.Context, t *LabTest) error {
	if t.SampleID <= 0 {
		return fmt.Errorf("sample_id is required")
	}
	if t.Result != nil && !ValidResult(*t.Result) {
		return fmt.Errorf("invalid result %q, expected %q or %q", *t.Result, ResultPositive, ResultNegative)
	}
	return s.tests.Update(ctx, t)
}

func (s *Service) DeleteTest(ctx context.Context, id int64) error {
	return s.tests.Delete(ctx, id)
}

func (s *Service) ListTests(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	return s.tests.List(ctx, limit, offset)
}

func (s *Service) ListTestsBySample(ctx context.Context, sampleID int64, limit, offset int) ([]*LabTest, int, error) {
	return s.tests.ListBySample(ctx, sampleID, limit, offset)
}

// -- Data quality --

// CountNullResults returns the number of tests with no result. Read-only.
func (s *Service) CountNullResults(ctx context.Context) (int, error) {
	return s.tests.CountNullResults(ctx)
}

// ListInvalidResults lists tests whose result is missing or outside the
// enumerated set. Read-only; nothing is repaired.
func (s *Service) ListInvalidResults(ctx context.Context) ([]*LabTest, error) {
	return s.tests.ListInvalidResults(ctx)
}

// RunQualityChecks runs both checks and bundles them for the operator.
func (s *Service) RunQualityChecks(ctx context.Context) (*QualityReport, error) {
	nulls, err := s.tests.CountNullResults(ctx)
	if err != nil {
		return nil, err
	}
	invalid, err := s.tests.ListInvalidResults(ctx)
	if err != nil {
		return nil, err
	}
	return &QualityReport{
		NullResults:    nulls,
		InvalidResults: invalid,
		CheckedAt:      s.now(),
	}, nil
}
