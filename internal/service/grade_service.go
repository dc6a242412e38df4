package service

import (
	"context"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/internal/schema"
	appErrors "github.com/noah-isme/university-records/pkg/errors"
)

type gradeRepository interface {
	Create(ctx context.Context, grade *models.Grade) error
	FindByID(ctx context.Context, id int64) (*models.Grade, error)
	All(ctx context.Context) iter.Seq2[models.Grade, error]
	List(ctx context.Context) ([]models.Grade, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.Grade, error)
	Delete(ctx context.Context, id int64) error
}

// CreateGradeRequest holds payload for recording a grade. GradedAt defaults
// to the service clock.
type CreateGradeRequest struct {
	StudentID int64      `json:"student_id" binding:"required"`
	SubjectID int64      `json:"subject_id" binding:"required"`
	Grade     int        `json:"grade"`
	GradedAt  *time.Time `json:"graded_at"`
}

// UpdateGradeRequest exists so callers get a typed refusal instead of a
// missing route.
type UpdateGradeRequest struct {
	Grade *int `json:"grade"`
}

// GradeService handles grade use-cases.
type GradeService struct {
	repo    gradeRepository
	state   schema.State
	checker *schema.Checker
	logger  *zap.Logger
	now     func() time.Time
}

// NewGradeService constructs the grade service.
func NewGradeService(repo gradeRepository, state schema.State, checker *schema.Checker, logger *zap.Logger) *GradeService {
	if checker == nil {
		checker = schema.NewChecker(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, state: state, checker: checker, logger: logger, now: time.Now}
}

// WithClock overrides the clock used for grades recorded without a timestamp.
func (s *GradeService) WithClock(now func() time.Time) *GradeService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create records a grade.
func (s *GradeService) Create(ctx context.Context, req CreateGradeRequest) (*models.Grade, error) {
	at := s.now()
	if req.GradedAt != nil {
		at = *req.GradedAt
	}
	grade := &models.Grade{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Grade:     req.Grade,
		// postgres keeps microseconds
		GradedAt: at.UTC().Truncate(time.Microsecond),
	}
	if err := s.checker.Grade(ctx, s.state, *grade); err != nil {
		return nil, checkFailure(err, "grade")
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, storeFailure(s.logger, err, "grade", "create", 0)
	}
	return grade, nil
}

// Get returns a single grade.
func (s *GradeService) Get(ctx context.Context, id int64) (*models.Grade, error) {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, err, "grade", "load", id)
	}
	return grade, nil
}

// All streams grades ordered by id.
func (s *GradeService) All(ctx context.Context) iter.Seq2[models.Grade, error] {
	return typedSeq(s.logger, s.repo.All(ctx), "grade")
}

// List returns every grade ordered by id.
func (s *GradeService) List(ctx context.Context) ([]models.Grade, error) {
	grades, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, err, "grade", "list", 0)
	}
	return grades, nil
}

// ListByStudent returns the grades of one student.
func (s *GradeService) ListByStudent(ctx context.Context, studentID int64) ([]models.Grade, error) {
	grades, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, storeFailure(s.logger, err, "grade", "list", studentID)
	}
	return grades, nil
}

// Update always fails: grades are immutable.
func (s *GradeService) Update(_ context.Context, _ int64, _ UpdateGradeRequest) (*models.Grade, error) {
	return nil, appErrors.Clone(appErrors.ErrUsage, "grades are immutable; delete the grade and record a new one")
}

// Delete removes a single grade.
func (s *GradeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeFailure(s.logger, err, "grade", "delete", id)
	}
	return nil
}
