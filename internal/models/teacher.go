package models

// Teacher represents an instructor who may own subjects.
type Teacher struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name" validate:"required,max=128"`
}

// TeacherPatch carries the fields of a partial teacher update.
type TeacherPatch struct {
	Name *string
}
