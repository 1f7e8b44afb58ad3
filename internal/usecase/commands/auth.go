package commands

import (
	"context"
	"time"

	"fleetbook/internal/domain/user"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/pkg/jwt"
	"fleetbook/internal/pkg/password"
)

type AuthCommands interface {
	Login(ctx context.Context, email, plainPassword string) (*AuthSession, error)
}

type AuthSession struct {
	User      *user.User
	Token     string
	ExpiresAt time.Time
}

type authCommandsImpl struct {
	users         UserRepository
	jwtService    *jwt.Service
	tokenDuration time.Duration
}

func NewAuthCommands(users UserRepository, jwtService *jwt.Service, tokenDuration time.Duration) AuthCommands {
	return &authCommandsImpl{
		users:         users,
		jwtService:    jwtService,
		tokenDuration: tokenDuration,
	}
}

func (a *authCommandsImpl) Login(ctx context.Context, email, plainPassword string) (*AuthSession, error) {
	u, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// Same error as a bad password so account enumeration learns nothing.
			return nil, errs.Mark(errs.New("invalid credentials"), errs.ErrUnauthorized)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if err := password.ComparePassword(u.PasswordHash(), plainPassword); err != nil {
		return nil, errs.Mark(errs.New("invalid credentials"), errs.ErrUnauthorized)
	}

	token, err := a.jwtService.GenerateToken(u.ID(), string(u.Role()))
	if err != nil {
		return nil, errs.Wrap(err, "failed to generate token")
	}
	return &AuthSession{
		User:      u,
		Token:     token,
		ExpiresAt: time.Now().Add(a.tokenDuration),
	}, nil
}
