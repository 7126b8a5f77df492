package employee

import "context"

// AuthService authenticates employees and issues access tokens.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)

	// Logout revokes the presented bearer token until its natural expiry
	Logout(ctx context.Context, rawToken string) error
}
