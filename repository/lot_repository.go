package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auctionhouse/database"
	"auctionhouse/models"
	"auctionhouse/service"

	"github.com/jackc/pgx/v5"
)

const lotColumns = `id, owner_id, title, description, initial_price, current_price,
	current_leader_id, start_date, end_date, status, category_id, created_at, updated_at`

// lotDetailSelect joins a lot with the names shown to clients
const lotDetailSelect = `
	SELECT l.id, l.title, l.description, l.initial_price, l.current_price,
	       l.start_date, l.end_date, l.status, l.category_id, c.name,
	       o.username, leader.username
	FROM lots l
	JOIN categories c ON c.id = l.category_id
	JOIN users o ON o.id = l.owner_id
	LEFT JOIN users leader ON leader.id = l.current_leader_id
`

// LotRepository implements the LotRepository interface
type LotRepository struct {
	q queryable
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *database.DB) *LotRepository {
	return &LotRepository{q: db.Pool}
}

// newLotRepositoryWithTx creates a new lot repository with a transaction
func newLotRepositoryWithTx(tx queryable) *LotRepository {
	return &LotRepository{q: tx}
}

func scanLot(row pgx.Row) (*models.Lot, error) {
	var lot models.Lot
	err := row.Scan(
		&lot.ID,
		&lot.OwnerID,
		&lot.Title,
		&lot.Description,
		&lot.InitialPrice,
		&lot.CurrentPrice,
		&lot.CurrentLeaderID,
		&lot.StartDate,
		&lot.EndDate,
		&lot.Status,
		&lot.CategoryID,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

func scanLotDetail(row pgx.Row) (*models.LotDetail, error) {
	var detail models.LotDetail
	err := row.Scan(
		&detail.ID,
		&detail.Title,
		&detail.Description,
		&detail.InitialPrice,
		&detail.CurrentPrice,
		&detail.StartDate,
		&detail.EndDate,
		&detail.Status,
		&detail.CategoryID,
		&detail.CategoryName,
		&detail.OwnerUsername,
		&detail.CurrentLeaderUsername,
	)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *LotRepository) queryDetails(ctx context.Context, query string, args ...any) ([]*models.LotDetail, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []*models.LotDetail
	for rows.Next() {
		detail, err := scanLotDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		details = append(details, detail)
	}
	return details, rows.Err()
}

func (r *LotRepository) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan lot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create inserts a new lot
func (r *LotRepository) Create(ctx context.Context, lot *models.Lot) error {
	query := `
		INSERT INTO lots (owner_id, title, description, initial_price, current_price,
		                  current_leader_id, start_date, end_date, status, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		lot.OwnerID,
		lot.Title,
		lot.Description,
		lot.InitialPrice,
		lot.CurrentPrice,
		lot.CurrentLeaderID,
		lot.StartDate,
		lot.EndDate,
		lot.Status,
		lot.CategoryID,
	).Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
	if database.IsCheckViolation(err) {
		return fmt.Errorf("%w: lot violates a pricing or date constraint", service.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to create lot: %w", err)
	}
	return nil
}

// GetByID retrieves a lot by ID
func (r *LotRepository) GetByID(ctx context.Context, id int64) (*models.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`

	lot, err := scanLot(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot %d: %w", id, err)
	}
	return lot, nil
}

// GetByIDForUpdate retrieves a lot and holds its row lock for the rest of the transaction
func (r *LotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1 FOR UPDATE`

	lot, err := scanLot(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock lot %d: %w", id, err)
	}
	return lot, nil
}

// Update writes every mutable column of the lot
func (r *LotRepository) Update(ctx context.Context, lot *models.Lot) error {
	query := `
		UPDATE lots
		SET title = $1, description = $2, initial_price = $3, current_price = $4,
		    current_leader_id = $5, start_date = $6, end_date = $7, status = $8,
		    category_id = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		lot.Title,
		lot.Description,
		lot.InitialPrice,
		lot.CurrentPrice,
		lot.CurrentLeaderID,
		lot.StartDate,
		lot.EndDate,
		lot.Status,
		lot.CategoryID,
		lot.ID,
	).Scan(&lot.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: lot %d", service.ErrNotFound, lot.ID)
	}
	if database.IsCheckViolation(err) {
		return fmt.Errorf("%w: lot violates a pricing or date constraint", service.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to update lot %d: %w", lot.ID, err)
	}
	return nil
}

// UpdateStatus writes only the status column
func (r *LotRepository) UpdateStatus(ctx context.Context, id int64, status models.LotStatus) error {
	query := `UPDATE lots SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.q.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of lot %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: lot %d", service.ErrNotFound, id)
	}
	return nil
}

// Delete removes the lot row
func (r *LotRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lot %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: lot %d", service.ErrNotFound, id)
	}
	return nil
}

// GetDetail returns the lot joined with its owner, leader and category names
func (r *LotRepository) GetDetail(ctx context.Context, id int64) (*models.LotDetail, error) {
	query := lotDetailSelect + ` WHERE l.id = $1`

	detail, err := scanLotDetail(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot detail %d: %w", id, err)
	}
	return detail, nil
}

// ListByCategories returns a page of lots, newest first
func (r *LotRepository) ListByCategories(ctx context.Context, categoryIDs []int64, limit, offset int) ([]*models.LotDetail, error) {
	var (
		details []*models.LotDetail
		err     error
	)
	if len(categoryIDs) == 0 {
		query := lotDetailSelect + ` ORDER BY l.created_at DESC, l.id DESC LIMIT $1 OFFSET $2`
		details, err = r.queryDetails(ctx, query, limit, offset)
	} else {
		query := lotDetailSelect + ` WHERE l.category_id = ANY($1) ORDER BY l.created_at DESC, l.id DESC LIMIT $2 OFFSET $3`
		details, err = r.queryDetails(ctx, query, categoryIDs, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	return details, nil
}

// CountByCategories counts lots in any of the categories
func (r *LotRepository) CountByCategories(ctx context.Context, categoryIDs []int64) (int64, error) {
	var (
		count int64
		err   error
	)
	if len(categoryIDs) == 0 {
		err = r.q.QueryRow(ctx, `SELECT COUNT(*) FROM lots`).Scan(&count)
	} else {
		err = r.q.QueryRow(ctx, `SELECT COUNT(*) FROM lots WHERE category_id = ANY($1)`, categoryIDs).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count lots: %w", err)
	}
	return count, nil
}

// ListLatest returns the most recently created lots, highest id first
func (r *LotRepository) ListLatest(ctx context.Context, limit int) ([]*models.LotDetail, error) {
	query := lotDetailSelect + ` ORDER BY l.id DESC LIMIT $1`

	details, err := r.queryDetails(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest lots: %w", err)
	}
	return details, nil
}

// ListByOwner returns every lot owned by the user
func (r *LotRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.LotDetail, error) {
	query := lotDetailSelect + ` WHERE l.owner_id = $1 ORDER BY l.created_at DESC, l.id DESC`

	details, err := r.queryDetails(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots of owner %d: %w", ownerID, err)
	}
	return details, nil
}

// ListFollowedBy returns the lots the user follows, soonest ending first then highest price
func (r *LotRepository) ListFollowedBy(ctx context.Context, userID int64) ([]*models.LotDetail, error) {
	query := lotDetailSelect + `
		JOIN follows f ON f.lot_id = l.id
		WHERE f.user_id = $1
		ORDER BY l.end_date ASC, l.current_price DESC, l.id ASC
	`

	details, err := r.queryDetails(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots followed by %d: %w", userID, err)
	}
	return details, nil
}

// ListIDsDueForRefresh returns lots whose stored status lags the clock
func (r *LotRepository) ListIDsDueForRefresh(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		SELECT id FROM lots
		WHERE (status = 'IN_PROGRESS' AND end_date < $1)
		   OR (status = 'PENDING' AND start_date <= $1)
		ORDER BY end_date ASC, id ASC
	`

	ids, err := r.queryIDs(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots due for refresh: %w", err)
	}
	return ids, nil
}

// ListIDsEndedBefore returns lots in one of the statuses that ended before cutoff
func (r *LotRepository) ListIDsEndedBefore(ctx context.Context, statuses []models.LotStatus, cutoff time.Time) ([]int64, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	query := `
		SELECT id FROM lots
		WHERE status = ANY($1) AND end_date < $2
		ORDER BY end_date ASC, id ASC
	`

	ids, err := r.queryIDs(ctx, query, names, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list ended lots: %w", err)
	}
	return ids, nil
}
