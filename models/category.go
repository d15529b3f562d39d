package models

// Category groups lots. A category may have a parent.
type Category struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	ParentID *int64 `db:"parent_id" json:"parentId,omitempty"`
}
