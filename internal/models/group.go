package models

// Group is a cohort of students, e.g. "AD-101".
type Group struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name" validate:"required,max=64"`
}

// GroupPatch carries the fields of a partial group update.
type GroupPatch struct {
	Name *string
}
