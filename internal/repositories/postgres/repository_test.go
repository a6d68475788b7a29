//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"bloodconnect/internal/models"
	"bloodconnect/internal/utils"
	"bloodconnect/pkg/database"
)

var (
	testPool *pgxpool.Pool
	tc       testcontainers.Container
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "bloodconnect",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(90 * time.Second),
	}

	var err error
	tc, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Println("cannot start container:", err)
		os.Exit(1)
	}

	host, _ := tc.Host(ctx)
	mappedPort, _ := tc.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/bloodconnect?sslmode=disable", host, mappedPort.Port())

	testPool, err = database.NewPostgres(ctx, &database.PostgresConfig{DSN: dsn, ConnectTimeout: 30 * time.Second})
	if err != nil {
		fmt.Println("connect:", err)
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := database.BootstrapPostgres(ctx, testPool); err != nil {
		fmt.Println("bootstrap:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()
	_ = tc.Terminate(ctx)
	os.Exit(code)
}

func truncate(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE TABLE profiles, emergency_requests`)
	require.NoError(t, err)
}

func insertProfile(t *testing.T, id, bloodType string, isDonor bool, lat, lng *float64, phone *string) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`INSERT INTO profiles (id, full_name, blood_type, is_donor, latitude, longitude, phone) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, "Donor "+id, bloodType, isDonor, lat, lng, phone)
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }

func TestDonorRepository_FindDonors(t *testing.T) {
	truncate(t)
	insertProfile(t, "d1", "O+", true, ptr(37.7749), ptr(-122.4194), ptr("+15550001"))
	insertProfile(t, "d2", "O+", true, nil, nil, nil)
	insertProfile(t, "d3", "A-", true, ptr(37.78), ptr(-122.41), nil)
	insertProfile(t, "p1", "O+", false, ptr(37.77), ptr(-122.42), nil)

	repo := NewDonorRepository(testPool)

	oPos, err := repo.FindDonors(context.Background(), models.DonorFilter{BloodType: models.BloodTypeOPos})
	require.NoError(t, err)
	require.Len(t, oPos, 2)

	byID := map[string]*models.Donor{}
	for _, d := range oPos {
		byID[d.ID] = d
	}
	require.NotNil(t, byID["d1"].Location)
	assert.Equal(t, "+15550001", byID["d1"].Phone)
	assert.Nil(t, byID["d2"].Location)

	all, err := repo.FindDonors(context.Background(), models.DonorFilter{BloodType: models.BloodTypeAny})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDonorRepository_GetByIDNotFound(t *testing.T) {
	truncate(t)

	_, err := NewDonorRepository(testPool).GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestEmergencyRepository_Lifecycle(t *testing.T) {
	truncate(t)
	repo := NewEmergencyRepository(testPool)
	ctx := context.Background()

	request := &models.EmergencyRequest{
		BloodType:     models.BloodTypeONeg,
		Hospital:      "General",
		Urgency:       models.UrgencyHigh,
		UnitsRequired: 3,
		Origin:        utils.Coordinate{Lat: 37.7749, Lng: -122.4194},
		RequestedBy:   "user-1",
	}
	require.NoError(t, repo.Create(ctx, request))
	require.NotEmpty(t, request.ID)

	stored, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusActive, stored.Status)
	assert.Equal(t, "user-1", stored.RequestedBy)
	assert.True(t, request.CreatedAt.Equal(stored.CreatedAt))

	active, err := repo.ListActive(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 1)

	closed, err := repo.UpdateStatus(ctx, request.ID, models.EmergencyStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, models.EmergencyStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	again, err := repo.UpdateStatus(ctx, request.ID, models.EmergencyStatusClosed)
	require.NoError(t, err)
	assert.True(t, closed.ClosedAt.Equal(*again.ClosedAt))

	active, err = repo.ListActive(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestEmergencyRepository_UnknownID(t *testing.T) {
	truncate(t)
	repo := NewEmergencyRepository(testPool)

	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = repo.UpdateStatus(context.Background(), "3f1c1d1e-0000-4000-8000-000000000000", models.EmergencyStatusClosed)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
