package model

// Tag is a named label with a display color, stored only by the
// relational backend (the snapshot backend keeps plain tag strings on
// the bug itself).
type Tag struct {
	ID    string `json:"id"    db:"id"`
	Name  string `json:"name"  db:"name"` // unique
	Color string `json:"color" db:"color"`
}
