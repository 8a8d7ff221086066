package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

var errRejected = errors.New("candidate rejected by validation")

// Outcome reports how Resolve arrived at its value.
type Outcome struct {
	Attempts int
	Fallback bool
	// Issues and Err describe the last rejected attempt when Fallback is set.
	Issues []string
	Err    error
}

// Attempt produces a candidate. instruction is empty on the first call and
// carries corrective guidance afterwards.
type Attempt[T any] func(ctx context.Context, instruction string) (T, error)

// Resolve runs attempt at most maxRetries+1 times until validate reports no
// issues, then falls back. An attempt that errors counts the same as one
// that fails validation. Resolve never returns an error.
func Resolve[T any](ctx context.Context, attempt Attempt[T], validate func(T) []string, fallback func() T, maxRetries int) (T, Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	var (
		out        Outcome
		accepted   T
		ok         bool
		lastIssues []string
		lastErr    error
	)

	policy := retrypolicy.NewBuilder[T]().
		WithMaxRetries(maxRetries).
		HandleIf(func(_ T, err error) bool { return err != nil }).
		Build()

	_, _ = failsafe.With(policy).WithContext(ctx).Get(func() (T, error) {
		instruction := ""
		if out.Attempts > 0 {
			instruction = RetryInstruction(lastIssues, lastErr)
		}
		out.Attempts++

		v, err := attempt(ctx, instruction)
		if err != nil {
			lastErr, lastIssues = err, nil
			return v, err
		}
		if issues := validate(v); len(issues) > 0 {
			lastErr, lastIssues = nil, issues
			return v, errRejected
		}
		accepted, ok = v, true
		return v, nil
	})

	if ok {
		return accepted, out
	}
	out.Fallback = true
	out.Issues = lastIssues
	out.Err = lastErr
	if out.Err == nil && out.Issues == nil {
		out.Err = ctx.Err()
	}
	return fallback(), out
}

// RetryInstruction is the corrective guidance sent with a retry.
func RetryInstruction(issues []string, err error) string {
	if len(issues) > 0 {
		return fmt.Sprintf("The previous draft was rejected: %s. Rewrite it so none of these problems remain.",
			strings.Join(issues, "; "))
	}
	if err != nil {
		return `The previous request failed. Reply again with JSON only: {"content": "<post text>"}.`
	}
	return ""
}

// CopyResolver resolves packs to copy through a generator, a validator and
// a fallback builder.
type CopyResolver struct {
	Generator Generator
	Validator Validator
	Fallback  FallbackBuilder
}

// Resolve resolves pack with up to maxRetries retries. extra, when set, is
// prepended to every instruction; novelty collisions use it to ask for a
// rewrite.
func (r CopyResolver) Resolve(ctx context.Context, pack Pack, extra string, maxRetries int) (Copy, Outcome) {
	fb := r.Fallback
	if fb == nil {
		fb = Templates{}
	}
	gen := r.Generator
	if gen == nil {
		gen = Template{Builder: fb}
	}
	attempt := func(ctx context.Context, instruction string) (Copy, error) {
		return gen.Generate(ctx, pack, joinInstructions(extra, instruction))
	}
	validate := func(c Copy) []string {
		if r.Validator == nil {
			if strings.TrimSpace(c.Content) == "" {
				return []string{"content is empty"}
			}
			return nil
		}
		return r.Validator.Validate(c.Content, pack)
	}
	return Resolve(ctx, attempt, validate, func() Copy { return fb.Build(pack) }, maxRetries)
}

func joinInstructions(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
