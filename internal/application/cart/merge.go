package cart

import (
	"context"
	"errors"
	"fmt"

	domain "shopd/internal/domain/cart"
	"shopd/internal/pkg/logging"

	"go.uber.org/zap"
)

// Merge folds an anonymous session cart into the user's cart at login or
// registration time. Session lines without a user-side match are re-keyed in
// place; as soon as any line matches an existing user line the quantities are
// summed and every remaining anonymous line for that session is bulk-deleted.
// Re-running after a full merge is a no-op, as is merging an empty session.
func (s *Service) Merge(ctx context.Context, sessionToken, userID string) error {
	session := domain.SessionIdentity(sessionToken)
	user := domain.UserIdentity(userID)
	if session.IsZero() || user.IsZero() {
		return domain.ErrIdentityRequired
	}

	lines, err := s.repo.ListLines(ctx, session)
	if err != nil {
		return fmt.Errorf("cart: merge list: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	merged := 0
	for _, sessionLine := range lines {
		userLine, ferr := s.repo.FindLine(ctx, user, sessionLine.ProductID)
		switch {
		case ferr == nil:
			if err := s.repo.UpdateLineQuantity(ctx, userLine.ID, userLine.Quantity+sessionLine.Quantity); err != nil {
				return fmt.Errorf("cart: merge sum: %w", err)
			}
			// Deliberate bulk cleanup: once any line has been folded in,
			// all remaining anonymous lines for the session go away.
			if err := s.repo.Clear(ctx, session); err != nil {
				return fmt.Errorf("cart: merge cleanup: %w", err)
			}
			merged++
			s.invalidate(ctx, session)
			s.invalidate(ctx, user)
			logging.FromContext(ctx).Info("cart_merged",
				zap.String("user_id", userID),
				zap.Int("rekeyed", merged-1),
			)
			return nil
		case errors.Is(ferr, domain.ErrNotFound):
			if err := s.repo.RekeyLine(ctx, sessionLine.ID, user); err != nil {
				return fmt.Errorf("cart: merge rekey: %w", err)
			}
			merged++
		default:
			return fmt.Errorf("cart: merge lookup: %w", ferr)
		}
	}

	s.invalidate(ctx, session)
	s.invalidate(ctx, user)
	logging.FromContext(ctx).Info("cart_merged",
		zap.String("user_id", userID),
		zap.Int("rekeyed", merged),
	)
	return nil
}
