package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloodconnect/internal/models"
	"bloodconnect/internal/repositories/interfaces"
	"bloodconnect/internal/utils"
)

type donorRepository struct {
	pool *pgxpool.Pool
}

func NewDonorRepository(pool *pgxpool.Pool) interfaces.DonorRepository {
	return &donorRepository{pool: pool}
}

const donorColumns = `id, full_name, blood_type, is_donor, latitude, longitude, phone, last_donation`

func (r *donorRepository) FindDonors(ctx context.Context, filter models.DonorFilter) ([]*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM profiles WHERE is_donor = true`
	var args []interface{}
	if !filter.MatchesAnyType() {
		query += ` AND blood_type = $1`
		args = append(args, string(filter.BloodType))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError("find donors", err)
	}
	defer rows.Close()

	var donors []*models.Donor
	for rows.Next() {
		donor, err := scanDonor(rows)
		if err != nil {
			return nil, translateError("scan donor", err)
		}
		donors = append(donors, donor)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("iterate donors", err)
	}

	return donors, nil
}

func (r *donorRepository) GetByID(ctx context.Context, id string) (*models.Donor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+donorColumns+` FROM profiles WHERE id = $1`, id)
	donor, err := scanDonor(row)
	if err != nil {
		return nil, translateError(fmt.Sprintf("get donor %s", id), err)
	}
	return donor, nil
}

func scanDonor(row pgx.Row) (*models.Donor, error) {
	var (
		donor     models.Donor
		bloodType string
		lat, lng  sql.NullFloat64
		phone     sql.NullString
		last      sql.NullTime
	)
	if err := row.Scan(&donor.ID, &donor.FullName, &bloodType, &donor.IsDonor, &lat, &lng, &phone, &last); err != nil {
		return nil, err
	}

	donor.BloodType = models.BloodType(bloodType)
	// A location needs both columns.
	if lat.Valid && lng.Valid {
		donor.Location = &utils.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	if phone.Valid {
		donor.Phone = phone.String
	}
	if last.Valid {
		t := last.Time
		donor.LastDonation = &t
	}
	return &donor, nil
}
