package service

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/internal/schema"
)

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	All(ctx context.Context) iter.Seq2[models.Student, error]
	List(ctx context.Context) ([]models.Student, error)
	Update(ctx context.Context, id int64, patch models.StudentPatch) (*models.Student, error)
	Delete(ctx context.Context, id int64) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name    string `json:"name" binding:"required"`
	GroupID *int64 `json:"group_id"`
}

// UpdateStudentRequest holds the optional fields of a student update.
// DetachGroup removes the student from their group.
type UpdateStudentRequest struct {
	Name        *string `json:"name"`
	GroupID     *int64  `json:"group_id"`
	DetachGroup bool    `json:"detach_group"`
}

func (r UpdateStudentRequest) patch() models.StudentPatch {
	return models.StudentPatch{Name: r.Name, GroupID: r.GroupID, DetachGroup: r.DetachGroup}
}

// StudentService handles student use-cases.
type StudentService struct {
	repo    studentRepository
	state   schema.State
	checker *schema.Checker
	logger  *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, state schema.State, checker *schema.Checker, logger *zap.Logger) *StudentService {
	if checker == nil {
		checker = schema.NewChecker(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, state: state, checker: checker, logger: logger}
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	student := &models.Student{Name: req.Name, GroupID: req.GroupID}
	if err := s.checker.Student(ctx, s.state, *student); err != nil {
		return nil, checkFailure(err, "student")
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, storeFailure(s.logger, err, "student", "create", 0)
	}
	return student, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, err, "student", "load", id)
	}
	return student, nil
}

// All streams students ordered by id.
func (s *StudentService) All(ctx context.Context) iter.Seq2[models.Student, error] {
	return typedSeq(s.logger, s.repo.All(ctx), "student")
}

// List returns every student ordered by id.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, err, "student", "list", 0)
	}
	return students, nil
}

// Update applies the provided fields to a student.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, err, "student", "load", id)
	}
	patch := req.patch()
	if patch.Empty() {
		return current, nil
	}

	candidate := *current
	if patch.Name != nil {
		candidate.Name = *patch.Name
	}
	switch {
	case patch.DetachGroup:
		candidate.GroupID = nil
	case patch.GroupID != nil:
		candidate.GroupID = patch.GroupID
	}
	if err := s.checker.Student(ctx, s.state, candidate); err != nil {
		return nil, checkFailure(err, "student")
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, storeFailure(s.logger, err, "student", "update", id)
	}
	return updated, nil
}

// Delete removes a student together with their grades.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeFailure(s.logger, err, "student", "delete", id)
	}
	return nil
}
