package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/veritas-hq/attendance-engine/internal/domain/policy"
	"github.com/veritas-hq/attendance-engine/internal/pkg/database"
)

type policyRepository struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) policy.Repository {
	return &policyRepository{db: db}
}

// Get implements policy.Repository. The table holds at most one row.
func (p *policyRepository) Get(ctx context.Context) (policy.Policy, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT id, grace_period_minutes, saturday_policy, full_day_threshold_minutes, shift_start, updated_at
		FROM attendance_policy
		LIMIT 1
	`

	var (
		pol      policy.Policy
		saturday string
	)
	err := q.QueryRow(ctx, query).Scan(
		&pol.ID, &pol.GracePeriodMinutes, &saturday, &pol.FullDayThresholdMinutes, &pol.ShiftStart, &pol.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return policy.Policy{}, policy.ErrPolicyNotFound
		}
		return policy.Policy{}, fmt.Errorf("failed to get attendance policy: %w", err)
	}

	pol.SaturdayPolicy = policy.SaturdayPolicy(saturday)
	return pol, nil
}

// Upsert implements policy.Repository.
func (p *policyRepository) Upsert(ctx context.Context, pol policy.Policy) (policy.Policy, error) {
	q := GetQuerier(ctx, p.db)

	if pol.ID == "" {
		existing, err := p.Get(ctx)
		switch {
		case err == nil:
			pol.ID = existing.ID
		case errors.Is(err, policy.ErrPolicyNotFound):
			pol.ID = uuid.NewString()
		default:
			return policy.Policy{}, err
		}
	}

	query := `
		INSERT INTO attendance_policy (id, grace_period_minutes, saturday_policy, full_day_threshold_minutes, shift_start)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			saturday_policy = EXCLUDED.saturday_policy,
			full_day_threshold_minutes = EXCLUDED.full_day_threshold_minutes,
			shift_start = EXCLUDED.shift_start,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		pol.ID,
		pol.GracePeriodMinutes,
		string(pol.SaturdayPolicy),
		pol.FullDayThresholdMinutes,
		pol.ShiftStart,
	).Scan(&pol.UpdatedAt)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("failed to upsert attendance policy: %w", err)
	}

	return pol, nil
}
