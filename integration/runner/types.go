package runner

import (
	"time"

	"github.com/jwebster45206/button-commands/pkg/button"
	"github.com/jwebster45206/button-commands/pkg/host"
)

// Step actions.
const (
	ActionRegister = "register"
	ActionPress    = "press"
	ActionUpdate   = "update"
	ActionWait     = "wait"
)

// TestSuite is one scripted session against a running API. Every suite gets
// a fresh button id so suites never collide with each other or earlier runs.
type TestSuite struct {
	Name   string              `json:"name"`
	Player host.PlayerSnapshot `json:"player"`
	Steps  []TestStep          `json:"steps"`
}

// TestStep defines a single interaction and its expected outcome.
type TestStep struct {
	Name        string           `json:"name,omitempty"`
	Action      string           `json:"action"`
	Powered     *bool            `json:"powered,omitempty"`
	Distance    float64          `json:"distance,omitempty"`
	Admin       bool             `json:"admin,omitempty"`
	Behavior    *button.Behavior `json:"behavior,omitempty"`
	WaitSeconds float64          `json:"wait_seconds,omitempty"`
	Expect      Expectations     `json:"expect"`
}

// Expectations defines what to check after a step executes. Nil fields are
// not checked.
type Expectations struct {
	HTTPStatus       *int     `json:"http_status,omitempty"`
	Outcome          *string  `json:"outcome,omitempty"`
	Status           *string  `json:"status,omitempty"`
	SuppressOutput   *bool    `json:"suppress_output,omitempty"`
	CommandCount     *int     `json:"command_count,omitempty"`
	CommandsContain  []string `json:"commands_contain,omitempty"`
	MessageContains  []string `json:"message_contains,omitempty"`
	MinRemainingSecs *float64 `json:"min_remaining_seconds,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Name     string
	ButtonID uint64
	Results  []TestResult
	Duration time.Duration
	Error    error
}
