package resolution

import (
	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
)

// Resolver is the pure rule engine. It reads only its Context and has no side
// effects, so resolutions for distinct (employee, date) keys can run in
// parallel with no coordination.
type Resolver struct {
	rules []Rule
}

func NewResolver() *Resolver {
	return &Resolver{rules: defaultRules()}
}

// Resolve evaluates the cascade; the first matching rule wins, no
// fallthrough.
func (r *Resolver) Resolve(rctx Context) attendance.ResolvedStatus {
	for _, rule := range r.rules {
		if rs, ok := rule.Evaluate(rctx); ok {
			return rs
		}
	}
	// Unreachable: the pending rule always matches.
	return withTotals(attendance.ResolvedStatus{Status: attendance.StatusWorkingDay}, rctx)
}
