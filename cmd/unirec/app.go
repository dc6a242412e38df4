package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/university-records/internal/handler"
	"github.com/noah-isme/university-records/internal/models"
	"github.com/noah-isme/university-records/internal/repository"
	"github.com/noah-isme/university-records/internal/schema"
	"github.com/noah-isme/university-records/internal/service"
	"github.com/noah-isme/university-records/pkg/config"
	"github.com/noah-isme/university-records/pkg/database"
)

type entityService[T any, C any, U any] interface {
	Create(ctx context.Context, req C) (*T, error)
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, id int64, req U) (*T, error)
	Delete(ctx context.Context, id int64) error
}

type queryRunner interface {
	Run(ctx context.Context, number int, params service.QueryParams) (*service.QueryResult, error)
}

type seeder interface {
	Seed(ctx context.Context, opts service.SeedOptions) (*service.SeedReport, error)
}

// app is the set of operations the commands drive.
type app struct {
	groups   entityService[models.Group, service.CreateGroupRequest, service.UpdateGroupRequest]
	teachers entityService[models.Teacher, service.CreateTeacherRequest, service.UpdateTeacherRequest]
	students entityService[models.Student, service.CreateStudentRequest, service.UpdateStudentRequest]
	subjects entityService[models.Subject, service.CreateSubjectRequest, service.UpdateSubjectRequest]
	grades   entityService[models.Grade, service.CreateGradeRequest, service.UpdateGradeRequest]
	queries  queryRunner
	seeder   seeder
	// handler serves the HTTP API; nil when the app cannot serve.
	handler http.Handler
	close   func() error
}

// openApp connects to Postgres and wires repositories, services and the router.
func openApp(_ context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return wire(db, cfg, logger), nil
}

func wire(db *sqlx.DB, cfg *config.Config, logger *zap.Logger) *app {
	lookup := repository.NewLookupRepository(db)
	checker := schema.NewChecker(nil)
	metrics := service.NewMetricsService()

	groups := service.NewGroupService(repository.NewGroupRepository(db), lookup, checker, logger)
	teachers := service.NewTeacherService(repository.NewTeacherRepository(db), lookup, checker, logger)
	students := service.NewStudentService(repository.NewStudentRepository(db), lookup, checker, logger)
	subjects := service.NewSubjectService(repository.NewSubjectRepository(db), lookup, checker, logger)
	grades := service.NewGradeService(repository.NewGradeRepository(db), lookup, checker, logger)
	queries := service.NewQueryService(repository.NewQueryRepository(db), metrics, logger)
	seed := service.NewSeedService(repository.NewAdminRepository(db), groups, teachers, students, subjects, grades, logger).
		WithRandomSeed(cfg.Seed.RandomSeed)

	router := handler.NewRouter(cfg, logger, handler.Services{
		Groups:   groups,
		Teachers: teachers,
		Students: students,
		Subjects: subjects,
		Grades:   grades,
		Queries:  queries,
		Metrics:  metrics,
	})

	return &app{
		groups:   groups,
		teachers: teachers,
		students: students,
		subjects: subjects,
		grades:   grades,
		queries:  queries,
		seeder:   seed,
		handler:  router,
		close:    db.Close,
	}
}
