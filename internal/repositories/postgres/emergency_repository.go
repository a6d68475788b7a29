package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodconnect/internal/models"
	"bloodconnect/internal/repositories/interfaces"
	"bloodconnect/internal/utils"
)

type emergencyRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewEmergencyRepository(pool *pgxpool.Pool) interfaces.EmergencyRepository {
	return &emergencyRepository{pool: pool, now: time.Now}
}

const emergencyColumns = `id, blood_type, hospital, urgency, units_required, details, latitude, longitude, requested_by, status, created_at, closed_at`

func (r *emergencyRepository) Create(ctx context.Context, request *models.EmergencyRequest) error {
	id := uuid.New()
	createdAt := r.now().UTC().Truncate(time.Microsecond)

	var requestedBy *string
	if request.RequestedBy != "" {
		requestedBy = &request.RequestedBy
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO emergency_requests (`+emergencyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL)`,
		id, string(request.BloodType), request.Hospital, string(request.Urgency), request.UnitsRequired,
		request.Details, request.Origin.Lat, request.Origin.Lng, requestedBy,
		string(models.EmergencyStatusActive), createdAt,
	)
	if err != nil {
		return translateError("create emergency request", err)
	}

	request.ID = id.String()
	request.Status = models.EmergencyStatusActive
	request.CreatedAt = createdAt
	request.ClosedAt = nil
	return nil
}

func (r *emergencyRepository) GetByID(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("emergency request %q: %w", id, utils.ErrNotFound)
	}

	row := r.pool.QueryRow(ctx, `SELECT `+emergencyColumns+` FROM emergency_requests WHERE id = $1`, uid)
	request, err := scanEmergency(row)
	if err != nil {
		return nil, translateError(fmt.Sprintf("get emergency request %s", id), err)
	}
	return request, nil
}

func (r *emergencyRepository) UpdateStatus(ctx context.Context, id string, status models.EmergencyStatus) (*models.EmergencyRequest, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("emergency request %q: %w", id, utils.ErrNotFound)
	}

	var closedAt *time.Time
	if status == models.EmergencyStatusClosed {
		t := r.now().UTC().Truncate(time.Microsecond)
		closedAt = &t
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE emergency_requests
		SET status = $2, closed_at = COALESCE($3, closed_at)
		WHERE id = $1 AND status <> $2
		RETURNING `+emergencyColumns,
		uid, string(status), closedAt,
	)
	request, err := scanEmergency(row)
	if err == nil {
		return request, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, translateError("update emergency request status", err)
	}

	// Either missing or already in the target status.
	return r.GetByID(ctx, id)
}

func (r *emergencyRepository) ListActive(ctx context.Context, limit int) ([]*models.EmergencyRequest, error) {
	if limit <= 0 {
		limit = utils.DefaultActiveRequestList
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+emergencyColumns+`
		FROM emergency_requests
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		string(models.EmergencyStatusActive), limit,
	)
	if err != nil {
		return nil, translateError("list active emergency requests", err)
	}
	defer rows.Close()

	requests := make([]*models.EmergencyRequest, 0, limit)
	for rows.Next() {
		request, err := scanEmergency(rows)
		if err != nil {
			return nil, translateError("scan emergency request", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterate emergency requests", err)
	}

	return requests, nil
}

func scanEmergency(row pgx.Row) (*models.EmergencyRequest, error) {
	var (
		request     models.EmergencyRequest
		id          uuid.UUID
		bloodType   string
		urgency     string
		status      string
		requestedBy sql.NullString
		closedAt    sql.NullTime
	)
	err := row.Scan(&id, &bloodType, &request.Hospital, &urgency, &request.UnitsRequired, &request.Details,
		&request.Origin.Lat, &request.Origin.Lng, &requestedBy, &status, &request.CreatedAt, &closedAt)
	if err != nil {
		return nil, err
	}

	request.ID = id.String()
	request.BloodType = models.BloodType(bloodType)
	request.Urgency = models.Urgency(urgency)
	request.Status = models.EmergencyStatus(status)
	request.CreatedAt = request.CreatedAt.UTC()
	if requestedBy.Valid {
		request.RequestedBy = requestedBy.String
	}
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		request.ClosedAt = &t
	}
	return &request, nil
}
