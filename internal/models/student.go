package models

// Student represents a learner, optionally enrolled in a group.
type Student struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name" validate:"required,max=128"`
	GroupID *int64 `db:"group_id" json:"group_id"`
}

// StudentPatch carries the fields of a partial student update.
// DetachGroup clears group_id and takes precedence over GroupID.
type StudentPatch struct {
	Name        *string
	GroupID     *int64
	DetachGroup bool
}

// Empty reports whether the patch changes nothing.
func (p StudentPatch) Empty() bool {
	return p.Name == nil && p.GroupID == nil && !p.DetachGroup
}
