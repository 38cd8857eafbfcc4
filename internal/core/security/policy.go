// Package security provides role-based access control for API operations.
//
// Access rules are CEL expressions evaluated per request against the
// authenticated user's roles and the attempted action. Different tenants
// can carry different rule sets without recompiling the server.
package security

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
)

// Well-known action names checked by the HTTP layer.
const (
	ActionCreate    = "create"
	ActionRead      = "read"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionAuditRead = "audit.read"
)

// Policy evaluates compiled access rules keyed by action.
// Actions without a rule are allowed; authentication is enforced
// separately by the auth middleware.
type Policy struct {
	programs map[string]cel.Program
}

// DefaultRules returns the standard rule set: destructive and audit
// operations require the admin role.
func DefaultRules() map[string]string {
	return map[string]string{
		ActionDelete:    `"admin" in roles`,
		ActionAuditRead: `"admin" in roles`,
	}
}

// NewPolicy compiles the given action -> CEL expression rules.
// Every expression must evaluate to bool over the variables
// roles (list of string), action (string), and kind (string).
func NewPolicy(rules map[string]string) (*Policy, error) {
	env, err := cel.NewEnv(
		cel.Variable("roles", cel.ListType(cel.StringType)),
		cel.Variable("action", cel.StringType),
		cel.Variable("kind", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	programs := make(map[string]cel.Program, len(rules))
	for action, expr := range rules {
		ast, iss := env.Compile(expr)
		if iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", action, iss.Err())
		}
		if ast.OutputType().String() != "bool" {
			return nil, fmt.Errorf("rule %q: expression must return bool, got %s", action, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %q: %w", action, err)
		}
		programs[action] = prg
	}

	return &Policy{programs: programs}, nil
}

// Allow checks whether the user in ctx may perform action on kind.
// Returns a Forbidden error when a rule exists and evaluates to false.
func (p *Policy) Allow(ctx context.Context, action, kind string) error {
	prg, ok := p.programs[action]
	if !ok {
		return nil
	}

	var roles []string
	if user := appctx.GetUser(ctx); user != nil {
		roles = user.Roles
	}

	out, _, err := prg.Eval(map[string]any{
		"roles":  roles,
		"action": action,
		"kind":   kind,
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate access rule %q: %w", action, err))
	}

	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return apperror.NewForbidden("operation not permitted").
			WithDetail("action", action).
			WithDetail("kind", kind)
	}
	return nil
}
