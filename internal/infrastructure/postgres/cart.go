package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopd/internal/domain/cart"
)

// identityColumns splits the tagged identity into the nullable session_id and
// user_id columns; a row always has exactly one of the two set.
func identityColumns(i cart.Identity) (sessionID, userID sql.NullString) {
	switch {
	case i.IsSession():
		sessionID = sql.NullString{String: i.SessionToken(), Valid: true}
	case i.IsUser():
		userID = sql.NullString{String: i.UserID(), Valid: true}
	}
	return sessionID, userID
}

func identityFromColumns(sessionID, userID sql.NullString) cart.Identity {
	if userID.Valid {
		return cart.UserIdentity(userID.String)
	}
	return cart.SessionIdentity(sessionID.String)
}

func identityWhere(i cart.Identity) (clause string, arg any) {
	if i.IsUser() {
		return "user_id = $1", i.UserID()
	}
	return "session_id = $1", i.SessionToken()
}

func (s *Store) FindLine(ctx context.Context, identity cart.Identity, productID string) (*cart.Line, error) {
	clause, arg := identityWhere(identity)
	query := `SELECT id, session_id, user_id, product_id, quantity, created_at, updated_at
	          FROM cart_items WHERE ` + clause + ` AND product_id = $2`

	line, err := scanLine(s.db.QueryRowContext(ctx, query, arg, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line: %w", err)
	}
	return line, nil
}

func (s *Store) ListLines(ctx context.Context, identity cart.Identity) ([]*cart.Line, error) {
	clause, arg := identityWhere(identity)
	query := `SELECT id, session_id, user_id, product_id, quantity, created_at, updated_at
	          FROM cart_items WHERE ` + clause + ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []*cart.Line
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *Store) InsertLine(ctx context.Context, line *cart.Line) error {
	sessionID, userID := identityColumns(line.Identity)
	query := `INSERT INTO cart_items (id, session_id, user_id, product_id, quantity, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		line.ID, sessionID, userID, line.ProductID, line.Quantity, line.CreatedAt, line.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}
	return nil
}

func (s *Store) UpdateLineQuantity(ctx context.Context, lineID string, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = NOW() WHERE id = $1`, lineID, quantity)
	if err != nil {
		return fmt.Errorf("update cart line quantity: %w", err)
	}
	return requireRow(res, cart.ErrNotFound)
}

func (s *Store) RekeyLine(ctx context.Context, lineID string, to cart.Identity) error {
	sessionID, userID := identityColumns(to)
	res, err := s.db.ExecContext(ctx,
		`UPDATE cart_items SET session_id = $2, user_id = $3, updated_at = NOW() WHERE id = $1`,
		lineID, sessionID, userID)
	if err != nil {
		return fmt.Errorf("rekey cart line: %w", err)
	}
	return requireRow(res, cart.ErrNotFound)
}

func (s *Store) DeleteLine(ctx context.Context, lineID string) (*cart.Line, error) {
	query := `DELETE FROM cart_items WHERE id = $1
	          RETURNING id, session_id, user_id, product_id, quantity, created_at, updated_at`

	line, err := scanLine(s.db.QueryRowContext(ctx, query, lineID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete cart line: %w", err)
	}
	return line, nil
}

func (s *Store) Clear(ctx context.Context, identity cart.Identity) error {
	clause, arg := identityWhere(identity)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE `+clause, arg); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired cart lines: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired cart lines rows affected: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLine(row rowScanner) (*cart.Line, error) {
	var (
		line              cart.Line
		sessionID, userID sql.NullString
	)
	err := row.Scan(&line.ID, &sessionID, &userID, &line.ProductID, &line.Quantity,
		&line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return nil, err
	}
	line.Identity = identityFromColumns(sessionID, userID)
	return &line, nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}
