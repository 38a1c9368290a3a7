package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/button-commands/internal/admin"
	"github.com/jwebster45206/button-commands/internal/handlers"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/pkg/host"
)

// Runner executes integration suites against a running button-commands API
type Runner struct {
	BaseURL string
	Client  *http.Client
	Logger  func(format string, args ...any)

	// NextButtonID hands out a fresh button id per suite.
	NextButtonID func() uint64
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	seed := uint64(time.Now().UnixNano())
	return &Runner{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
		Logger:  func(string, ...any) {},
		NextButtonID: func() uint64 {
			seed++
			return seed
		},
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}
	if len(suite.Steps) == 0 {
		return TestSuite{}, fmt.Errorf("test file %s has no steps", filename)
	}
	return suite, nil
}

// RunSuite runs every step in order and stops at the first failure.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) TestRunResult {
	start := time.Now()
	result := TestRunResult{Name: suite.Name, ButtonID: r.NextButtonID()}

	for i, step := range suite.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d (%s)", i+1, step.Action)
		}

		stepStart := time.Now()
		err := r.runStep(ctx, suite.Player, result.ButtonID, step)
		tr := TestResult{StepName: name, Success: err == nil, Error: err, Duration: time.Since(stepStart)}
		result.Results = append(result.Results, tr)
		r.Logger("  %s: success=%t (%v)", name, tr.Success, tr.Duration)

		if err != nil {
			result.Error = fmt.Errorf("%s: %w", name, err)
			break
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) runStep(ctx context.Context, player host.PlayerSnapshot, buttonID uint64, step TestStep) error {
	if step.Admin && !slices.Contains(player.Permissions, admin.PermissionAdmin) {
		player.Permissions = append(slices.Clone(player.Permissions), admin.PermissionAdmin)
	}

	switch step.Action {
	case ActionWait:
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(step.WaitSeconds * float64(time.Second))):
			return nil
		}

	case ActionRegister:
		var out admin.Outcome
		req := handlers.RegisterRequest{
			Player: &player,
			Sight:  host.Sight{Hit: true, ButtonID: buttonID, Distance: step.Distance},
		}
		status, err := r.do(ctx, http.MethodPost, "/v1/buttons/register", req, &out)
		if err != nil {
			return err
		}
		return checkRegister(step.Expect, status, out)

	case ActionPress:
		powered := true
		if step.Powered != nil {
			powered = *step.Powered
		}
		var res press.Result
		req := handlers.PressRequest{
			Button: &host.ButtonSnapshot{ButtonID: buttonID, Powered: powered},
			Player: &player,
		}
		status, err := r.do(ctx, http.MethodPost, "/v1/press", req, &res)
		if err != nil {
			return err
		}
		return checkPress(step.Expect, status, res)

	case ActionUpdate:
		if step.Behavior == nil {
			return fmt.Errorf("update step needs a behavior")
		}
		var resp handlers.ButtonResponse
		status, err := r.do(ctx, http.MethodPut, fmt.Sprintf("/v1/buttons/%d", buttonID), step.Behavior, &resp)
		if err != nil {
			return err
		}
		return checkStatus(step.Expect, status)

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

// do sends a JSON request and decodes the response body into out when the
// body is not an error response. It returns the HTTP status code.
func (r *Runner) do(ctx context.Context, method, path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 400 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func checkStatus(exp Expectations, status int) error {
	want := http.StatusOK
	if exp.HTTPStatus != nil {
		want = *exp.HTTPStatus
	}
	if status != want {
		return fmt.Errorf("expected HTTP %d, got %d", want, status)
	}
	return nil
}

func checkRegister(exp Expectations, status int, out admin.Outcome) error {
	if exp.HTTPStatus != nil {
		if err := checkStatus(exp, status); err != nil {
			return err
		}
	}
	if exp.Status != nil && string(out.Status) != *exp.Status {
		return fmt.Errorf("expected status %q, got %q", *exp.Status, out.Status)
	}
	return checkMessage(exp, out.Message)
}

func checkPress(exp Expectations, status int, res press.Result) error {
	if err := checkStatus(exp, status); err != nil {
		return err
	}
	if exp.Outcome != nil && string(res.Outcome) != *exp.Outcome {
		return fmt.Errorf("expected outcome %q, got %q", *exp.Outcome, res.Outcome)
	}
	if exp.SuppressOutput != nil && res.SuppressOutput != *exp.SuppressOutput {
		return fmt.Errorf("expected suppress_output %t, got %t", *exp.SuppressOutput, res.SuppressOutput)
	}
	if exp.CommandCount != nil && len(res.Commands) != *exp.CommandCount {
		return fmt.Errorf("expected %d commands, got %d", *exp.CommandCount, len(res.Commands))
	}
	for _, want := range exp.CommandsContain {
		found := slices.ContainsFunc(res.Commands, func(c press.Command) bool {
			return strings.Contains(c.Text, want)
		})
		if !found {
			return fmt.Errorf("no command contains %q", want)
		}
	}
	if exp.MinRemainingSecs != nil && res.RemainingSeconds < *exp.MinRemainingSecs {
		return fmt.Errorf("expected at least %gs remaining, got %g", *exp.MinRemainingSecs, res.RemainingSeconds)
	}
	return checkMessage(exp, res.Message)
}

func checkMessage(exp Expectations, msg string) error {
	for _, want := range exp.MessageContains {
		if !strings.Contains(msg, want) {
			return fmt.Errorf("message %q does not contain %q", msg, want)
		}
	}
	return nil
}
