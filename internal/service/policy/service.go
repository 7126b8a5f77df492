package policy

import (
	"context"

	"github.com/veritas-hq/attendance-engine/internal/domain/policy"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

type PolicyServiceImpl struct {
	policies policy.Repository
	resolver *resolution.Service
}

func NewPolicyService(policies policy.Repository, resolver *resolution.Service) policy.Service {
	return &PolicyServiceImpl{policies: policies, resolver: resolver}
}

// Get implements policy.Service. It reports the effective policy, which
// carries documented defaults when nothing (or something invalid) is stored.
func (p *PolicyServiceImpl) Get(ctx context.Context) (policy.PolicyResponse, error) {
	pol, err := p.resolver.Policy(ctx)
	if err != nil {
		return policy.PolicyResponse{}, err
	}
	return policy.NewPolicyResponse(pol), nil
}

// Update implements policy.Service.
func (p *PolicyServiceImpl) Update(ctx context.Context, req policy.UpdatePolicyRequest) (policy.PolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return policy.PolicyResponse{}, err
	}

	stored, err := p.policies.Upsert(ctx, policy.Policy{
		GracePeriodMinutes:      req.GracePeriodMinutes,
		SaturdayPolicy:          policy.SaturdayPolicy(req.SaturdayPolicy),
		FullDayThresholdMinutes: req.FullDayThresholdMinutes,
		ShiftStart:              req.ShiftStart,
	})
	if err != nil {
		return policy.PolicyResponse{}, err
	}

	// A policy change can reclassify any cached day; flush before the caller
	// sees the acknowledgement.
	p.resolver.InvalidatePolicy()

	return policy.NewPolicyResponse(stored), nil
}
