package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/veritas-hq/attendance-engine/internal/domain/employee"
	"github.com/veritas-hq/attendance-engine/internal/pkg/jwt"
)

type AuthServiceImpl struct {
	employees  employee.Repository
	jwtService jwt.Service
}

func NewAuthService(employees employee.Repository, jwtService jwt.Service) employee.AuthService {
	return &AuthServiceImpl{
		employees:  employees,
		jwtService: jwtService,
	}
}

// Login implements employee.AuthService. Lookup failures and bad passwords
// collapse into the same error so the response does not leak which emails
// exist.
func (a *AuthServiceImpl) Login(ctx context.Context, req employee.LoginRequest) (employee.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.LoginResponse{}, err
	}

	emp, err := a.employees.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.LoginResponse{}, employee.ErrInvalidCredentials
		}
		return employee.LoginResponse{}, fmt.Errorf("failed to look up employee: %w", err)
	}

	if !emp.IsActive {
		return employee.LoginResponse{}, employee.ErrEmployeeInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)); err != nil {
		return employee.LoginResponse{}, employee.ErrInvalidCredentials
	}

	token, _, err := a.jwtService.GenerateAccessToken(emp.ID, emp.Email, emp.Role)
	if err != nil {
		return employee.LoginResponse{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return employee.LoginResponse{
		AccessToken: token,
		Employee:    employee.NewEmployeeResponse(emp),
	}, nil
}

// Logout implements employee.AuthService. The bearer token is revoked until
// its natural expiry.
func (a *AuthServiceImpl) Logout(_ context.Context, rawToken string) error {
	if rawToken == "" {
		return fmt.Errorf("missing bearer token")
	}
	a.jwtService.RevokeToken(rawToken)
	return nil
}
