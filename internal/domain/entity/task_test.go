package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_Valid(t *testing.T) {
	for _, s := range []TaskStatus{
		TaskStatusNotStarted, TaskStatusStarted, TaskStatusVerificationPassed, TaskStatusVerificationFailed,
		TaskStatusCompleted, TaskStatusDownloadFailed, TaskStatusError,
	} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, TaskStatus("finished").Valid())
	assert.False(t, TaskStatus("").Valid())
}

func TestIsDone(t *testing.T) {
	assert.True(t, TaskStatusCompleted.IsDone())
	assert.False(t, TaskStatusNotStarted.IsDone())
	assert.False(t, TaskStatusStarted.IsDone())
	assert.False(t, TaskStatusVerificationFailed.IsDone())
	assert.False(t, TaskStatusDownloadFailed.IsDone())
	assert.False(t, TaskStatusError.IsDone())
}

// A task whose verification passed but whose download never finished is not
// retried on resume.
func TestIsDone_VerificationPassedCountsAsDone(t *testing.T) {
	assert.True(t, TaskStatusVerificationPassed.IsDone())
}

func TestTaskID_String(t *testing.T) {
	id := TaskID{State: "Uttar Pradesh", RTO: "AGRA - UP80", Year: "2025", Product: ProductL5P}
	assert.Equal(t, "Uttar Pradesh_AGRA - UP80_2025_L5P", id.String())
}

func TestRunSummary_Completed(t *testing.T) {
	s := &RunSummary{Total: 5, Succeeded: 2, Skipped: 2, Failed: []TaskID{{State: "Delhi"}}}
	assert.Equal(t, 4, s.Completed())
}

func TestRetryPolicy_Attempts(t *testing.T) {
	assert.Equal(t, 1, RetryPolicy{}.Attempts())
	assert.Equal(t, 1, RetryPolicy{MaxAttempts: -3}.Attempts())
	assert.Equal(t, 5, RetryPolicy{MaxAttempts: 5, Delay: time.Second}.Attempts())
}

func TestVerificationReport_Totals(t *testing.T) {
	r := &VerificationReport{
		Fuel:           CategoryResult{Expected: []string{"a", "b"}, Verified: []string{"a"}},
		VehicleClasses: CategoryResult{Expected: []string{"c"}, Verified: []string{"c"}},
	}
	assert.Equal(t, 3, r.ExpectedTotal())
	assert.Equal(t, 2, r.VerifiedTotal())
}
