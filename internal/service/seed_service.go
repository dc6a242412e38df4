package service

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
)

// SubjectCatalogue holds the names the generator draws subjects from.
var SubjectCatalogue = []string{
	"Mathematics", "Physics", "Chemistry", "Biology", "History",
	"Literature", "Philosophy", "Computer Science", "Economics",
}

const (
	seedGradeMin  = 60
	seedGradeMax  = 100
	seedDaysBack  = 180
	seedMinGrades = 5
	// attempts per grade before giving up on a free timestamp
	seedTimeAttempts = 16
)

// SeedOptions sets how many records of each kind the generator creates.
type SeedOptions struct {
	Students  int
	Groups    int
	Teachers  int
	Subjects  int
	MaxGrades int
}

// SeedReport counts what the generator created.
type SeedReport struct {
	Groups   int `json:"groups"`
	Teachers int `json:"teachers"`
	Subjects int `json:"subjects"`
	Students int `json:"students"`
	Grades   int `json:"grades"`
}

type storeWiper interface {
	Wipe(ctx context.Context) error
}

// SeedService replaces the store contents with random, constraint-valid data.
type SeedService struct {
	wiper    storeWiper
	groups   *GroupService
	teachers *TeacherService
	students *StudentService
	subjects *SubjectService
	grades   *GradeService
	logger   *zap.Logger
	faker    *gofakeit.Faker
	now      func() time.Time
}

// NewSeedService constructs the generator on top of the entity services.
func NewSeedService(wiper storeWiper, groups *GroupService, teachers *TeacherService, students *StudentService, subjects *SubjectService, grades *GradeService, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{
		wiper:    wiper,
		groups:   groups,
		teachers: teachers,
		students: students,
		subjects: subjects,
		grades:   grades,
		logger:   logger,
		faker:    gofakeit.New(0),
		now:      time.Now,
	}
}

// WithRandomSeed makes the generated data reproducible. Zero keeps a random seed.
func (s *SeedService) WithRandomSeed(seed int64) *SeedService {
	s.faker = gofakeit.New(seed)
	return s
}

// WithClock overrides the reference time grade timestamps are drawn back from.
func (s *SeedService) WithClock(now func() time.Time) *SeedService {
	if now != nil {
		s.now = now
	}
	return s
}

// Validate rejects option sets the generator cannot satisfy.
func (o SeedOptions) Validate() error {
	if o.Students < 0 || o.Groups < 0 || o.Teachers < 0 || o.Subjects < 0 || o.MaxGrades < 0 {
		return usage("seed counts must not be negative")
	}
	if o.Subjects > len(SubjectCatalogue) {
		return usage("cannot create %d subjects, only %d subject names are available", o.Subjects, len(SubjectCatalogue))
	}
	return nil
}

// Seed wipes the store and fills it through the entity services.
func (s *SeedService) Seed(ctx context.Context, opts SeedOptions) (*SeedReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := s.wiper.Wipe(ctx); err != nil {
		return nil, storeFailure(s.logger, err, "store", "wipe", 0)
	}

	report := &SeedReport{}
	groupIDs := make([]int64, 0, opts.Groups)
	for i := 0; i < opts.Groups; i++ {
		group, err := s.groups.Create(ctx, CreateGroupRequest{Name: fmt.Sprintf("AD-%03d", 101+i)})
		if err != nil {
			return report, err
		}
		groupIDs = append(groupIDs, group.ID)
		report.Groups++
	}

	teacherIDs := make([]int64, 0, opts.Teachers)
	for i := 0; i < opts.Teachers; i++ {
		teacher, err := s.teachers.Create(ctx, CreateTeacherRequest{Name: s.faker.Name()})
		if err != nil {
			return report, err
		}
		teacherIDs = append(teacherIDs, teacher.ID)
		report.Teachers++
	}

	names := append([]string(nil), SubjectCatalogue...)
	s.faker.ShuffleStrings(names)
	subjectIDs := make([]int64, 0, opts.Subjects)
	for i := 0; i < opts.Subjects; i++ {
		subject, err := s.subjects.Create(ctx, CreateSubjectRequest{Name: names[i], TeacherID: s.pick(teacherIDs)})
		if err != nil {
			return report, err
		}
		subjectIDs = append(subjectIDs, subject.ID)
		report.Subjects++
	}

	studentIDs := make([]int64, 0, opts.Students)
	for i := 0; i < opts.Students; i++ {
		student, err := s.students.Create(ctx, CreateStudentRequest{Name: s.faker.Name(), GroupID: s.pick(groupIDs)})
		if err != nil {
			return report, err
		}
		studentIDs = append(studentIDs, student.ID)
		report.Students++
	}

	if len(subjectIDs) > 0 && opts.MaxGrades > 0 {
		now := s.now().UTC()
		for _, studentID := range studentIDs {
			created, err := s.seedGrades(ctx, studentID, subjectIDs, opts.MaxGrades, now)
			report.Grades += created
			if err != nil {
				return report, err
			}
		}
	}

	s.logger.Info("seeded store",
		zap.Int("groups", report.Groups),
		zap.Int("teachers", report.Teachers),
		zap.Int("subjects", report.Subjects),
		zap.Int("students", report.Students),
		zap.Int("grades", report.Grades),
	)
	return report, nil
}

func (s *SeedService) seedGrades(ctx context.Context, studentID int64, subjectIDs []int64, maxGrades int, now time.Time) (int, error) {
	lo := max(seedMinGrades, maxGrades/2)
	lo = min(lo, maxGrades)
	count := s.faker.Number(lo, maxGrades)

	type slot struct {
		subject int64
		at      time.Time
	}
	used := make(map[slot]bool, count)
	created := 0
	for i := 0; i < count; i++ {
		subjectID := subjectIDs[s.faker.Number(0, len(subjectIDs)-1)]
		var at time.Time
		for attempt := 0; attempt < seedTimeAttempts; attempt++ {
			at = now.Add(-time.Duration(s.faker.Number(0, seedDaysBack)) * 24 * time.Hour).
				Add(-time.Duration(s.faker.Number(0, 23)) * time.Hour).
				Add(-time.Duration(s.faker.Number(0, 59)) * time.Minute).
				Truncate(time.Microsecond)
			if !used[slot{subjectID, at}] {
				break
			}
		}
		if used[slot{subjectID, at}] {
			continue
		}
		used[slot{subjectID, at}] = true

		value := s.faker.Number(seedGradeMin, seedGradeMax)
		if _, err := s.grades.Create(ctx, CreateGradeRequest{StudentID: studentID, SubjectID: subjectID, Grade: value, GradedAt: &at}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *SeedService) pick(ids []int64) *int64 {
	if len(ids) == 0 {
		return nil
	}
	id := ids[s.faker.Number(0, len(ids)-1)]
	return &id
}
