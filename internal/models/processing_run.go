package models

import "time"

// RunStatus is the lifecycle state of a processing run
type RunStatus string

// RunStatus constants
const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ProcessingRun records one reprocessing of a user's time range
type ProcessingRun struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	RangeStart time.Time `json:"rangeStart"`
	RangeEnd   time.Time `json:"rangeEnd"`
	Status     RunStatus `json:"status"`

	SampleCount  int `json:"sampleCount"`
	VisitCount   int `json:"visitCount"`
	SegmentCount int `json:"segmentCount"`
	TripCount    int `json:"tripCount"`

	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
