package shotpdf

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// pageVars are the variables available in skip conditions.
type pageVars struct {
	name   string
	index  int
	width  int
	height int
}

func (v pageVars) store() map[string]any {
	return map[string]any{
		"name":   v.name,
		"index":  int64(v.index),
		"width":  int64(v.width),
		"height": int64(v.height),
	}
}

// skipper evaluates skip conditions written in CEL (Common Expression Language).
type skipper struct {
	conds []string
	prgs  []cel.Program
}

func newSkipper(conds []string) (*skipper, error) {
	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("index", cel.IntType),
		cel.Variable("width", cel.IntType),
		cel.Variable("height", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	s := &skipper{}
	for _, cond := range conds {
		cond = strings.TrimSpace(cond)
		if cond == "" {
			continue
		}
		ast, issues := env.Compile(cond)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("skip condition compilation error for '%s': %w", cond, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("skip condition program creation error for '%s': %w", cond, err)
		}
		s.conds = append(s.conds, cond)
		s.prgs = append(s.prgs, prg)
	}
	return s, nil
}

func (s *skipper) empty() bool {
	return s == nil || len(s.prgs) == 0
}

// skip returns the first condition that is true for v.
func (s *skipper) skip(v pageVars) (string, bool, error) {
	if s.empty() {
		return "", false, nil
	}
	store := v.store()
	for i, prg := range s.prgs {
		out, _, err := prg.Eval(store)
		if err != nil {
			return "", false, fmt.Errorf("skip condition evaluation error for '%s': %w", s.conds[i], err)
		}
		b, ok := out.Value().(bool)
		if !ok {
			return "", false, fmt.Errorf("skip condition '%s' did not evaluate to bool", s.conds[i])
		}
		if b {
			return s.conds[i], true, nil
		}
	}
	return "", false, nil
}
