package service

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/internal/schema"
)

type subjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	All(ctx context.Context) iter.Seq2[models.Subject, error]
	List(ctx context.Context) ([]models.Subject, error)
	Update(ctx context.Context, id int64, patch models.SubjectPatch) (*models.Subject, error)
	Delete(ctx context.Context, id int64) error
}

// CreateSubjectRequest holds payload for creating subjects.
type CreateSubjectRequest struct {
	Name      string `json:"name" binding:"required"`
	TeacherID *int64 `json:"teacher_id"`
}

// UpdateSubjectRequest holds the optional fields of a subject update.
type UpdateSubjectRequest struct {
	Name          *string `json:"name"`
	TeacherID     *int64  `json:"teacher_id"`
	DetachTeacher bool    `json:"detach_teacher"`
}

// SubjectService handles subject use-cases.
type SubjectService struct {
	repo    subjectRepository
	state   schema.State
	checker *schema.Checker
	logger  *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectRepository, state schema.State, checker *schema.Checker, logger *zap.Logger) *SubjectService {
	if checker == nil {
		checker = schema.NewChecker(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, state: state, checker: checker, logger: logger}
}

// Create registers a new subject.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	subject := &models.Subject{Name: req.Name, TeacherID: req.TeacherID}
	if err := s.checker.Subject(ctx, s.state, *subject); err != nil {
		return nil, checkFailure(err, "subject")
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, storeFailure(s.logger, err, "subject", "create", 0)
	}
	return subject, nil
}

// Get returns a single subject.
func (s *SubjectService) Get(ctx context.Context, id int64) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, err, "subject", "load", id)
	}
	return subject, nil
}

// All streams subjects ordered by id.
func (s *SubjectService) All(ctx context.Context) iter.Seq2[models.Subject, error] {
	return typedSeq(s.logger, s.repo.All(ctx), "subject")
}

// List returns every subject ordered by id.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, err, "subject", "list", 0)
	}
	return subjects, nil
}

// Update applies the provided fields to a subject.
func (s *SubjectService) Update(ctx context.Context, id int64, req UpdateSubjectRequest) (*models.Subject, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, err, "subject", "load", id)
	}
	patch := models.SubjectPatch{Name: req.Name, TeacherID: req.TeacherID, DetachTeacher: req.DetachTeacher}
	if patch.Empty() {
		return current, nil
	}

	candidate := *current
	if patch.Name != nil {
		candidate.Name = *patch.Name
	}
	switch {
	case patch.DetachTeacher:
		candidate.TeacherID = nil
	case patch.TeacherID != nil:
		candidate.TeacherID = patch.TeacherID
	}
	if err := s.checker.Subject(ctx, s.state, candidate); err != nil {
		return nil, checkFailure(err, "subject")
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, storeFailure(s.logger, err, "subject", "update", id)
	}
	return updated, nil
}

// Delete removes a subject together with its grades.
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeFailure(s.logger, err, "subject", "delete", id)
	}
	return nil
}
