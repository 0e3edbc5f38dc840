package model

// Task is a single to-do entry. ID identifies the task for the lifetime of
// the process only and is not part of the persisted document.
type Task struct {
	ID        string `json:"-"`
	Text      string `json:"task"`
	Completed bool   `json:"completed"`
}

type Stats struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	Pending         int     `json:"pending"`
	PercentComplete float64 `json:"percent_complete"`
}
