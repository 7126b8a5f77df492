package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/veritas-hq/attendance-engine/internal/domain/attendance"
	"github.com/veritas-hq/attendance-engine/internal/domain/leave"
	"github.com/veritas-hq/attendance-engine/internal/service/resolution"
)

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type LeaveServiceImpl struct {
	txr      TxRunner
	leaves   leave.Repository
	resolver *resolution.Service

	now func() time.Time
}

func NewLeaveService(
	txr TxRunner,
	leaves leave.Repository,
	resolver *resolution.Service,
) leave.Service {
	return &LeaveServiceImpl{
		txr:      txr,
		leaves:   leaves,
		resolver: resolver,
		now:      time.Now,
	}
}

func claimsFromContext(ctx context.Context) (employeeID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}
	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", fmt.Errorf("employee_id claim is missing or invalid")
	}
	return employeeID, nil
}

// Apply implements leave.Service.
func (l *LeaveServiceImpl) Apply(ctx context.Context, req leave.ApplyRequest) (leave.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.RequestResponse{}, err
	}

	employeeID, err := claimsFromContext(ctx)
	if err != nil {
		return leave.RequestResponse{}, err
	}

	loc := l.resolver.Location()
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, loc)
	if err != nil {
		return leave.RequestResponse{}, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, loc)
	if err != nil {
		return leave.RequestResponse{}, fmt.Errorf("invalid end_date: %w", err)
	}
	if end.Before(start) {
		return leave.RequestResponse{}, leave.ErrInvalidDateRange
	}

	subtype, err := attendance.ParseLeaveSubtype(req.Subtype)
	if err != nil {
		return leave.RequestResponse{}, err
	}

	var created leave.Request
	err = l.txr.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := l.leaves.ListApprovedInRange(ctx, employeeID, start, end)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return leave.ErrOverlappingRequest
		}

		var reason *string
		if req.Reason != "" {
			reason = &req.Reason
		}
		created, err = l.leaves.Create(ctx, leave.Request{
			EmployeeID: employeeID,
			StartDate:  start,
			EndDate:    end,
			Status:     leave.StatusPending,
			Subtype:    subtype,
			Type:       leave.Type(req.Type),
			Reason:     reason,
		})
		return err
	})
	if err != nil {
		return leave.RequestResponse{}, err
	}

	return leave.NewRequestResponse(created), nil
}

// Approve implements leave.Service.
func (l *LeaveServiceImpl) Approve(ctx context.Context, id string) (leave.RequestResponse, error) {
	return l.decide(ctx, id, leave.StatusApproved)
}

// Reject implements leave.Service.
func (l *LeaveServiceImpl) Reject(ctx context.Context, id string) (leave.RequestResponse, error) {
	return l.decide(ctx, id, leave.StatusRejected)
}

func (l *LeaveServiceImpl) decide(ctx context.Context, id string, status leave.RequestStatus) (leave.RequestResponse, error) {
	decidedBy, err := claimsFromContext(ctx)
	if err != nil {
		return leave.RequestResponse{}, err
	}

	req, err := l.leaves.GetByID(ctx, id)
	if err != nil {
		return leave.RequestResponse{}, err
	}
	if req.Status != leave.StatusPending {
		return leave.RequestResponse{}, leave.ErrLeaveRequestAlreadyProcessed
	}

	decidedAt := l.now()
	if err := l.leaves.UpdateStatus(ctx, id, status, decidedBy, decidedAt); err != nil {
		return leave.RequestResponse{}, err
	}

	// Approval changes how the covered days resolve; drop the caches before
	// acknowledging so the next read cannot serve the pre-approval answer.
	if status == leave.StatusApproved {
		l.resolver.InvalidateLeaveRange(req.EmployeeID, req.StartDate, req.EndDate)
	}

	req.Status = status
	req.DecidedBy = &decidedBy
	req.DecidedAt = &decidedAt
	return leave.NewRequestResponse(req), nil
}

// ListMine implements leave.Service.
func (l *LeaveServiceImpl) ListMine(ctx context.Context) ([]leave.RequestResponse, error) {
	employeeID, err := claimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	reqs, err := l.leaves.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	out := make([]leave.RequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, leave.NewRequestResponse(req))
	}
	return out, nil
}
