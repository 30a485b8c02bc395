package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewParityResult(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		a, b       int
		wantPassed bool
	}{
		{name: "equal counts", a: 5, b: 5, wantPassed: true},
		{name: "fewer in target", a: 5, b: 4, wantPassed: false},
		{name: "more in target", a: 1, b: 2, wantPassed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewParityResult("Email Notification", tt.a, tt.b)
			if r.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v", r.Passed, tt.wantPassed)
			}
			if r.CountA != tt.a || r.CountB != tt.b {
				t.Errorf("counts = %d/%d, want %d/%d", r.CountA, r.CountB, tt.a, tt.b)
			}
		})
	}
}

func TestFailedParityResult(t *testing.T) {
	t.Parallel()
	r := FailedParityResult("zFirstNameLookup", errors.New("status 500"))
	if r.Passed {
		t.Error("failed result must not pass")
	}
	if r.Error != "status 500" {
		t.Errorf("Error = %q", r.Error)
	}
}

func TestComparisonReportSummaryAndOutcome(t *testing.T) {
	t.Parallel()
	r := ComparisonReport{
		Templates: []EntityCheckResult{
			{Name: "A", Reachable: true},
			{Name: "B", Reachable: true},
			{Name: "C", Reachable: true},
		},
		Forms: []ParityResult{NewParityResult("Email Notification", 5, 5)},
	}
	s := r.Summary()
	if s.Reachable != 3 || s.Unreachable != 0 || s.Passed != 1 || s.Failed != 0 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if r.Outcome() != OutcomePassed {
		t.Errorf("Outcome = %q, want passed", r.Outcome())
	}

	r.Forms = append(r.Forms, NewParityResult("Process Timeframe", 5, 4))
	if r.Outcome() != OutcomeDivergent {
		t.Errorf("Outcome = %q, want divergent", r.Outcome())
	}
}

func TestComparisonReportOutcome_ErrorRowFails(t *testing.T) {
	t.Parallel()
	r := ComparisonReport{
		Templates: []EntityCheckResult{{Name: "A", Reachable: true}},
		Forms: []ParityResult{
			NewParityResult("Email Notification", 5, 5),
			FailedParityResult("zFirstNameLookup", errors.New("status 404")),
		},
	}
	s := r.Summary()
	if s.Passed != 1 || s.Failed != 1 || s.Errored != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if got := r.Outcome(); got != OutcomeFailed {
		t.Errorf("Outcome = %q, want failed", got)
	}
	if code := r.Outcome().ExitCode(); code != 2 {
		t.Errorf("ExitCode = %d, want 2", code)
	}

	// A divergence alongside an error still reports the error.
	r.Forms = append(r.Forms, NewParityResult("Process Timeframe", 5, 4))
	if got := r.Outcome(); got != OutcomeFailed {
		t.Errorf("Outcome = %q, want failed", got)
	}
}

func TestEnvironmentSecretsNotSerialized(t *testing.T) {
	t.Parallel()
	env := validEnvironment()
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"password", "client_secret", "user_id", "client_id", "Password"} {
		if _, ok := m[k]; ok {
			t.Errorf("secret field %q serialized", k)
		}
	}
	if env.DisplayName() != "V5 Dev" {
		t.Errorf("DisplayName = %q", env.DisplayName())
	}
	env.Name = ""
	if env.DisplayName() != "dev" {
		t.Errorf("DisplayName fallback = %q", env.DisplayName())
	}
}
