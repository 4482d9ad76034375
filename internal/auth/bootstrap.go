package auth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Bootstrap makes sure a permission manager exists for email. On first run it
// creates the user and issues a token, logging the raw value once. Later runs
// leave an existing account untouched.
func Bootstrap(ctx context.Context, repo *Repository, tokens *TokenStore, email, name string, logger *zap.Logger) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	existing, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}
	if existing != nil {
		if !existing.HasRole(RolePermissionManager) {
			logger.Warn("bootstrap admin exists without permission_manager role", zap.String("email", existing.Email))
		}
		return nil
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	user, err := repo.CreateUser(ctx, name, email, UserTypeEmployeeTae, []Role{RolePermissionManager})
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	token, err := tokens.CreateToken(ctx, user.ID, "bootstrap", nil)
	if err != nil {
		return fmt.Errorf("issue bootstrap token: %w", err)
	}

	logger.Info("bootstrap admin created",
		zap.Int64("userId", user.ID),
		zap.String("email", user.Email),
		zap.String("token", token.RawToken),
	)
	return nil
}
