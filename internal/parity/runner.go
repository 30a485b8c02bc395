package parity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/formparity/parity-go/internal/connectors/vault"
	"github.com/formparity/parity-go/internal/domain"
)

// Compile-time check.
var _ FormsClient = (*vault.Client)(nil)

// Runner authorizes both environments and runs a Checker. Each call to Run
// starts from fresh sessions.
type Runner struct {
	From       domain.Environment
	To         domain.Environment
	Forms      []string
	Options    Options
	HTTPClient *http.Client
}

// Connect authorizes the from and to environments, in that order, and
// returns a Checker bound to both sessions.
func (r *Runner) Connect(ctx context.Context) (*Checker, error) {
	from, err := vault.Authorize(ctx, r.From, r.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("parity: connect from: %w", err)
	}
	to, err := vault.Authorize(ctx, r.To, r.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("parity: connect to: %w", err)
	}
	return NewChecker(from, to, r.Forms, r.Options), nil
}

// Run performs a complete sanity check.
func (r *Runner) Run(ctx context.Context) (*domain.ComparisonReport, error) {
	c, err := r.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx)
}
