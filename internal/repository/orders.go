package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/lindembergz/123Vendas-sub000/internal/domain"
)

// orderNumberIdx backs the (branch, number) uniqueness defense; a violation
// maps to ErrDuplicateOrderNumber so the create path can fetch a fresh number.
const orderNumberIdx = "orders_branch_number_idx"

// CreateOrder persists a new order, its staged events, and the idempotency
// record in one transaction.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order, events []domain.Event, req *ProcessedRequest) error {
	linesJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create order tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (id, order_number, customer_id, branch_id, status, lines, total_amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	_, insertErr := tx.ExecContext(ctx, query,
		order.ID,
		order.Number,
		order.CustomerID,
		order.BranchID,
		order.Status,
		linesJSON,
		order.Total(),
		order.CreatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == orderNumberIdx {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}
	if err := insertProcessedRequest(ctx, tx, req); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order tx: %w", err)
	}
	return nil
}

// UpdateOrder persists the mutated aggregate state, the staged events, and
// the idempotency record in one transaction.
func (r *Repository) UpdateOrder(ctx context.Context, order *domain.Order, events []domain.Event, req *ProcessedRequest) error {
	linesJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update order tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE orders SET status = $2, lines = $3, total_amount = $4, updated_at = NOW() WHERE id = $1`

	res, updateErr := tx.ExecContext(ctx, query, order.ID, order.Status, linesJSON, order.Total())
	if updateErr != nil {
		return fmt.Errorf("update order: %w", updateErr)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}
	if err := insertProcessedRequest(ctx, tx, req); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update order tx: %w", err)
	}
	return nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT id, order_number, customer_id, branch_id, status, lines, created_at
	          FROM orders WHERE id = $1`

	var order domain.Order
	var linesJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.Number,
		&order.CustomerID,
		&order.BranchID,
		&order.Status,
		&linesJSON,
		&order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := json.Unmarshal(linesJSON, &order.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal order lines: %w", err)
	}

	return &order, nil
}
