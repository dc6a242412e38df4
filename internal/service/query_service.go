package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/university-records/internal/models"
	appErrors "github.com/noah-isme/university-records/pkg/errors"
)

type queryRepository interface {
	TopStudents(ctx context.Context, limit int) ([]models.StudentAverage, error)
	TopStudentForSubject(ctx context.Context, subjectID int64) (*models.StudentAverage, error)
	GroupAveragesForSubject(ctx context.Context, subjectID int64) ([]models.GroupAverage, error)
	GlobalAverage(ctx context.Context) (*float64, error)
	TeacherSubjects(ctx context.Context, teacherID int64) ([]models.SubjectRef, error)
	GroupStudents(ctx context.Context, groupID int64) ([]models.StudentRef, error)
	GroupSubjectGrades(ctx context.Context, groupID, subjectID int64) ([]models.GradeRow, error)
	TeacherAverage(ctx context.Context, teacherID int64) (*float64, error)
	StudentSubjects(ctx context.Context, studentID int64) ([]models.SubjectRef, error)
	StudentTeacherSubjects(ctx context.Context, studentID, teacherID int64) ([]models.SubjectRef, error)
	StudentTeacherAverage(ctx context.Context, studentID, teacherID int64) (*float64, error)
	LatestGroupSubjectGrades(ctx context.Context, groupID, subjectID int64) ([]models.GradeRow, error)
}

// QueryService runs the fixed analytical queries.
type QueryService struct {
	repo    queryRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewQueryService constructs the query service. metrics may be nil.
func NewQueryService(repo queryRepository, metrics *MetricsService, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{repo: repo, metrics: metrics, logger: logger}
}

// TopStudents returns up to five students with the highest overall average.
func (s *QueryService) TopStudents(ctx context.Context) ([]models.StudentAverage, error) {
	var rows []models.StudentAverage
	err := s.observe("top_students", func() (err error) {
		rows, err = s.repo.TopStudents(ctx, models.TopStudentsLimit)
		return err
	})
	return rows, err
}

// TopStudentForSubject returns the best student in one subject.
func (s *QueryService) TopStudentForSubject(ctx context.Context, subjectID int64) (*models.StudentAverage, error) {
	var top *models.StudentAverage
	err := s.observe("top_student_for_subject", func() (err error) {
		top, err = s.repo.TopStudentForSubject(ctx, subjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if top == nil {
		return nil, noData("subject %d has no grades", subjectID)
	}
	return top, nil
}

// GroupAveragesForSubject returns per-group averages for one subject.
func (s *QueryService) GroupAveragesForSubject(ctx context.Context, subjectID int64) ([]models.GroupAverage, error) {
	var rows []models.GroupAverage
	err := s.observe("group_averages_for_subject", func() (err error) {
		rows, err = s.repo.GroupAveragesForSubject(ctx, subjectID)
		return err
	})
	return rows, err
}

// GlobalAverage returns the average of every grade.
func (s *QueryService) GlobalAverage(ctx context.Context) (float64, error) {
	return s.average("global_average", func() (*float64, error) {
		return s.repo.GlobalAverage(ctx)
	}, "no grades recorded")
}

// TeacherSubjects lists the subjects a teacher owns.
func (s *QueryService) TeacherSubjects(ctx context.Context, teacherID int64) ([]models.SubjectRef, error) {
	var rows []models.SubjectRef
	err := s.observe("teacher_subjects", func() (err error) {
		rows, err = s.repo.TeacherSubjects(ctx, teacherID)
		return err
	})
	return rows, err
}

// GroupStudents lists the members of a group.
func (s *QueryService) GroupStudents(ctx context.Context, groupID int64) ([]models.StudentRef, error) {
	var rows []models.StudentRef
	err := s.observe("group_students", func() (err error) {
		rows, err = s.repo.GroupStudents(ctx, groupID)
		return err
	})
	return rows, err
}

// GroupSubjectGrades lists every grade a group received in a subject.
func (s *QueryService) GroupSubjectGrades(ctx context.Context, groupID, subjectID int64) ([]models.GradeRow, error) {
	var rows []models.GradeRow
	err := s.observe("group_subject_grades", func() (err error) {
		rows, err = s.repo.GroupSubjectGrades(ctx, groupID, subjectID)
		return err
	})
	return rows, err
}

// TeacherAverage returns the average of grades across a teacher's subjects.
func (s *QueryService) TeacherAverage(ctx context.Context, teacherID int64) (float64, error) {
	return s.average("teacher_average", func() (*float64, error) {
		return s.repo.TeacherAverage(ctx, teacherID)
	}, "teacher %d has no graded subjects", teacherID)
}

// StudentSubjects lists the subjects a student has grades in.
func (s *QueryService) StudentSubjects(ctx context.Context, studentID int64) ([]models.SubjectRef, error) {
	var rows []models.SubjectRef
	err := s.observe("student_subjects", func() (err error) {
		rows, err = s.repo.StudentSubjects(ctx, studentID)
		return err
	})
	return rows, err
}

// StudentTeacherSubjects narrows StudentSubjects to one teacher.
func (s *QueryService) StudentTeacherSubjects(ctx context.Context, studentID, teacherID int64) ([]models.SubjectRef, error) {
	var rows []models.SubjectRef
	err := s.observe("student_teacher_subjects", func() (err error) {
		rows, err = s.repo.StudentTeacherSubjects(ctx, studentID, teacherID)
		return err
	})
	return rows, err
}

// StudentTeacherAverage returns a student's average across one teacher's subjects.
func (s *QueryService) StudentTeacherAverage(ctx context.Context, studentID, teacherID int64) (float64, error) {
	return s.average("student_teacher_average", func() (*float64, error) {
		return s.repo.StudentTeacherAverage(ctx, studentID, teacherID)
	}, "student %d has no grades from teacher %d", studentID, teacherID)
}

// LatestGroupSubjectGrades returns each group member's most recent grade in a subject.
func (s *QueryService) LatestGroupSubjectGrades(ctx context.Context, groupID, subjectID int64) ([]models.GradeRow, error) {
	var rows []models.GradeRow
	err := s.observe("latest_group_subject_grades", func() (err error) {
		rows, err = s.repo.LatestGroupSubjectGrades(ctx, groupID, subjectID)
		return err
	})
	return rows, err
}

func (s *QueryService) average(label string, run func() (*float64, error), format string, args ...any) (float64, error) {
	var avg *float64
	err := s.observe(label, func() (err error) {
		avg, err = run()
		return err
	})
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, noData(format, args...)
	}
	return *avg, nil
}

func (s *QueryService) observe(label string, run func() error) error {
	start := time.Now()
	err := run()
	s.metrics.ObserveDBQuery(label, time.Since(start), err)
	if err != nil {
		s.logger.Error("query failed", zap.String("query", label), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to run "+label)
	}
	return nil
}
