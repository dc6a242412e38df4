package service

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/internal/schema"
)

type teacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
	All(ctx context.Context) iter.Seq2[models.Teacher, error]
	List(ctx context.Context) ([]models.Teacher, error)
	Update(ctx context.Context, id int64, patch models.TeacherPatch) (*models.Teacher, error)
	Delete(ctx context.Context, id int64) error
}

// CreateTeacherRequest holds payload for creating teachers.
type CreateTeacherRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateTeacherRequest holds the optional fields of a teacher update.
type UpdateTeacherRequest struct {
	Name *string `json:"name"`
}

// TeacherService handles teacher use-cases.
type TeacherService struct {
	repo    teacherRepository
	state   schema.State
	checker *schema.Checker
	logger  *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, state schema.State, checker *schema.Checker, logger *zap.Logger) *TeacherService {
	if checker == nil {
		checker = schema.NewChecker(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, state: state, checker: checker, logger: logger}
}

// Create registers a new teacher.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	teacher := &models.Teacher{Name: req.Name}
	if err := s.checker.Teacher(ctx, s.state, *teacher); err != nil {
		return nil, checkFailure(err, "teacher")
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, storeFailure(s.logger, err, "teacher", "create", 0)
	}
	return teacher, nil
}

// Get returns a single teacher.
func (s *TeacherService) Get(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, err, "teacher", "load", id)
	}
	return teacher, nil
}

// All streams teachers ordered by id.
func (s *TeacherService) All(ctx context.Context) iter.Seq2[models.Teacher, error] {
	return typedSeq(s.logger, s.repo.All(ctx), "teacher")
}

// List returns every teacher ordered by id.
func (s *TeacherService) List(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, err, "teacher", "list", 0)
	}
	return teachers, nil
}

// Update renames a teacher.
func (s *TeacherService) Update(ctx context.Context, id int64, req UpdateTeacherRequest) (*models.Teacher, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, err, "teacher", "load", id)
	}
	if req.Name == nil {
		return current, nil
	}
	candidate := *current
	candidate.Name = *req.Name
	if err := s.checker.Teacher(ctx, s.state, candidate); err != nil {
		return nil, checkFailure(err, "teacher")
	}
	updated, err := s.repo.Update(ctx, id, models.TeacherPatch{Name: req.Name})
	if err != nil {
		return nil, storeFailure(s.logger, err, "teacher", "update", id)
	}
	return updated, nil
}

// Delete removes a teacher. Their subjects stay, unassigned.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeFailure(s.logger, err, "teacher", "delete", id)
	}
	return nil
}
