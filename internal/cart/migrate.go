package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/logger"
)

// MigrationResult reports what happened to each guest line during login.
type MigrationResult struct {
	Migrated int
	Skipped  []SkippedLine
}

// SkippedLine names a guest cart line that could not be carried over.
type SkippedLine struct {
	BookID uuid.UUID `json:"book_id"`
	Reason string    `json:"reason"`
}

// Migrator folds a guest session cart into a user cart at login or
// registration. Lines that fail validation (gone, inactive, over stock or
// over the per-item cap) are skipped rather than failing the whole login,
// and the guest cart is cleared regardless of the outcome.
type Migrator struct {
	users   Service
	session SessionService
	logg    *logger.Logger
}

// NewMigrator wires the migration helper.
func NewMigrator(users Service, session SessionService, logg *logger.Logger) (*Migrator, error) {
	if users == nil {
		return nil, fmt.Errorf("user cart service required")
	}
	if session == nil {
		return nil, fmt.Errorf("session cart service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Migrator{users: users, session: session, logg: logg}, nil
}

// Migrate moves every guest line it can into the user's cart.
func (m *Migrator) Migrate(ctx context.Context, sessionID string, userID uuid.UUID) (MigrationResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return MigrationResult{}, nil
	}
	if userID == uuid.Nil {
		return MigrationResult{}, fmt.Errorf("user id is required")
	}

	lines, err := m.session.Snapshot(ctx, sessionID)
	if err != nil {
		return MigrationResult{}, err
	}

	result := MigrationResult{}
	var skippedErrs error
	for _, line := range lines {
		if _, err := m.users.AddItem(ctx, userID, line.BookID, line.Quantity); err != nil {
			result.Skipped = append(result.Skipped, SkippedLine{
				BookID: line.BookID,
				Reason: err.Error(),
			})
			skippedErrs = multierr.Append(skippedErrs, fmt.Errorf("book %s: %w", line.BookID, err))
			continue
		}
		result.Migrated++
	}

	if skippedErrs != nil {
		reasons := make([]string, 0, len(result.Skipped))
		for _, err := range multierr.Errors(skippedErrs) {
			reasons = append(reasons, err.Error())
		}
		m.logg.Warn(
			m.logg.WithFields(ctx, map[string]any{
				"user_id": userID,
				"skipped": len(result.Skipped),
				"reasons": reasons,
			}),
			"some guest cart lines were not migrated",
		)
	}

	if err := m.session.Clear(ctx, sessionID); err != nil {
		// The user cart is already updated; a stale guest key only costs TTL.
		m.logg.Warn(ctx, "failed to clear guest cart after migration")
	}
	return result, nil
}
