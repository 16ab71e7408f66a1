package sandbox

import (
	"math"
	"time"
)

// Status classifies how an execution attempt ended.
type Status string

const (
	// StatusEmpty means no code was supplied and nothing was run.
	StatusEmpty Status = "empty"
	// StatusCompleted means the child exited within the deadline, whatever
	// its exit code.
	StatusCompleted Status = "completed"
	// StatusTimedOut means the child was killed at the deadline.
	StatusTimedOut Status = "timed_out"
	// StatusFailed means the child could not be run at all.
	StatusFailed Status = "failed"
)

// Caller-facing messages
const (
	MsgNoCode    = "No code provided"
	MsgTimedOut  = "Error: Code execution timed out (5 second limit)"
	failedPrefix = "Error: "
)

// Outcome is the structured result returned for every execution attempt.
// Only output, error and execution_time are serialized.
type Outcome struct {
	Output        string  `json:"output" yaml:"output"`
	Error         string  `json:"error" yaml:"error"`
	ExecutionTime float64 `json:"execution_time" yaml:"execution_time"`
	Status        Status  `json:"-" yaml:"-"`
}

// Finalize shapes what an executor reported into an Outcome.
func Finalize(res ExecuteResult, err error, elapsed time.Duration) Outcome {
	seconds := roundSeconds(elapsed)

	switch {
	case err != nil:
		return Outcome{
			Error:         failedPrefix + err.Error(),
			ExecutionTime: seconds,
			Status:        StatusFailed,
		}
	case res.TimedOut:
		return Outcome{
			Error:         MsgTimedOut,
			ExecutionTime: seconds,
			Status:        StatusTimedOut,
		}
	default:
		return Outcome{
			Output:        res.Stdout,
			Error:         res.Stderr,
			ExecutionTime: seconds,
			Status:        StatusCompleted,
		}
	}
}

// roundSeconds converts d to seconds rounded to three decimal places.
func roundSeconds(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return math.Round(d.Seconds()*1000) / 1000
}
