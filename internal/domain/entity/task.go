package entity

import "fmt"

type TaskStatus string

const (
	TaskStatusNotStarted         TaskStatus = "not_started"
	TaskStatusStarted            TaskStatus = "started"
	TaskStatusVerificationPassed TaskStatus = "comprehensive_verification_passed"
	TaskStatusVerificationFailed TaskStatus = "comprehensive_verification_failed"
	TaskStatusCompleted          TaskStatus = "completed"
	TaskStatusDownloadFailed     TaskStatus = "download_failed"
	TaskStatusError              TaskStatus = "error"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusStarted, TaskStatusVerificationPassed, TaskStatusVerificationFailed,
		TaskStatusCompleted, TaskStatusDownloadFailed, TaskStatusError:
		return true
	default:
		return false
	}
}

// IsDone reports whether a task in this status is skipped on resume.
// A passed verification counts as done even though the download may not have
// happened yet; see TestIsDone_VerificationPassedCountsAsDone.
func (s TaskStatus) IsDone() bool {
	return s == TaskStatusCompleted || s == TaskStatusVerificationPassed
}

// TaskID identifies one (state, RTO, year, product) scrape.
type TaskID struct {
	State   string      `json:"state"`
	RTO     string      `json:"rto"`
	Year    string      `json:"year"`
	Product ProductType `json:"product"`
}

// String is the display and persistence form. It is not parsed back; stored
// records carry the four fields separately.
func (id TaskID) String() string {
	return fmt.Sprintf("%s_%s_%s_%s", id.State, id.RTO, id.Year, id.Product)
}

// Task is one unit of the scrape queue with its resolved dashboard locators.
type Task struct {
	ID           TaskID
	StateLocator string
	RTOLocator   string
	YearLocator  string
}

// QueueWarning is emitted by the queue builder for a selection it had to skip.
type QueueWarning struct {
	State   string
	Year    string
	Message string
}

type TaskOutcome string

const (
	OutcomeSucceeded   TaskOutcome = "succeeded"
	OutcomeSkipped     TaskOutcome = "skipped"
	OutcomeFailed      TaskOutcome = "failed"
	OutcomeInterrupted TaskOutcome = "interrupted"
)

type TaskResult struct {
	ID       TaskID
	Outcome  TaskOutcome
	Status   TaskStatus
	Artifact string
	Error    string
}
