package models

// Subject represents an academic subject, optionally owned by a teacher.
type Subject struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name" validate:"required,max=128"`
	TeacherID *int64 `db:"teacher_id" json:"teacher_id"`
}

// SubjectPatch carries the fields of a partial subject update.
// DetachTeacher clears teacher_id and takes precedence over TeacherID.
type SubjectPatch struct {
	Name          *string
	TeacherID     *int64
	DetachTeacher bool
}

// Empty reports whether the patch changes nothing.
func (p SubjectPatch) Empty() bool {
	return p.Name == nil && p.TeacherID == nil && !p.DetachTeacher
}
