package service

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/internal/schema"
)

type groupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id int64) (*models.Group, error)
	All(ctx context.Context) iter.Seq2[models.Group, error]
	List(ctx context.Context) ([]models.Group, error)
	Update(ctx context.Context, id int64, patch models.GroupPatch) (*models.Group, error)
	Delete(ctx context.Context, id int64) error
}

// CreateGroupRequest holds payload for creating groups.
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateGroupRequest holds the optional fields of a group update.
type UpdateGroupRequest struct {
	Name *string `json:"name"`
}

// GroupService handles group use-cases.
type GroupService struct {
	repo    groupRepository
	state   schema.State
	checker *schema.Checker
	logger  *zap.Logger
}

// NewGroupService constructs the group service.
func NewGroupService(repo groupRepository, state schema.State, checker *schema.Checker, logger *zap.Logger) *GroupService {
	if checker == nil {
		checker = schema.NewChecker(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, state: state, checker: checker, logger: logger}
}

// Create registers a new group.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	group := &models.Group{Name: req.Name}
	if err := s.checker.Group(ctx, s.state, *group); err != nil {
		return nil, checkFailure(err, "group")
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, storeFailure(s.logger, err, "group", "create", 0)
	}
	return group, nil
}

// Get returns a single group.
func (s *GroupService) Get(ctx context.Context, id int64) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, err, "group", "load", id)
	}
	return group, nil
}

// All streams groups ordered by id.
func (s *GroupService) All(ctx context.Context) iter.Seq2[models.Group, error] {
	return typedSeq(s.logger, s.repo.All(ctx), "group")
}

// List returns every group ordered by id.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	groups, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, err, "group", "list", 0)
	}
	return groups, nil
}

// Update renames a group.
func (s *GroupService) Update(ctx context.Context, id int64, req UpdateGroupRequest) (*models.Group, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, err, "group", "load", id)
	}
	if req.Name == nil {
		return current, nil
	}
	candidate := *current
	candidate.Name = *req.Name
	if err := s.checker.Group(ctx, s.state, candidate); err != nil {
		return nil, checkFailure(err, "group")
	}
	updated, err := s.repo.Update(ctx, id, models.GroupPatch{Name: req.Name})
	if err != nil {
		return nil, storeFailure(s.logger, err, "group", "update", id)
	}
	return updated, nil
}

// Delete removes a group. Its students stay, without a group.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeFailure(s.logger, err, "group", "delete", id)
	}
	return nil
}
