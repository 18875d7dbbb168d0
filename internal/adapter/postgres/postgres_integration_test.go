//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/migrations"
	"github.com/Temutjin2k/tracker-admin/pkg/trm"
)

// Run with: go test -tags integration ./internal/adapter/postgres/...

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}

	ctx = context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "tracker",
				"POSTGRES_PASSWORD": "tracker",
				"POSTGRES_DB":       "tracker",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, fmt.Sprintf("postgres://tracker:tracker@%s:%s/tracker?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.Up(ctx, pool))
	return pool
}

func TestDeviceRepo_Integration(t *testing.T) {
	pool := startPostgres(t)
	repo := NewDeviceRepo(pool)
	ctx := context.Background()

	d := &models.Device{ID: "10", Name: "Joachim Pixel", Color: "#e74c3c"}
	require.NoError(t, repo.Create(ctx, d))
	assert.True(t, d.IsActive)

	err := repo.Create(ctx, &models.Device{ID: "10", Name: "dup", Color: "#000000"})
	assert.ErrorIs(t, err, types.ErrDeviceExists)

	name := "Pixel 8"
	updated, err := repo.Update(ctx, "10", models.DevicePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Pixel 8", updated.Name)
	assert.Equal(t, "#e74c3c", updated.Color)

	_, found, err := repo.Lookup(ctx, "11")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SoftDelete(ctx, "10"))
	assert.ErrorIs(t, repo.SoftDelete(ctx, "10"), types.ErrDeviceNotFound)
	_, err = repo.Get(ctx, "10")
	assert.ErrorIs(t, err, types.ErrDeviceNotFound)
	_, err = repo.Update(ctx, "10", models.DevicePatch{Name: &name})
	assert.ErrorIs(t, err, types.ErrDeviceNotFound)

	// a soft-deleted id can be registered again
	revived := &models.Device{ID: "10", Name: "Revived", Color: "#3498db"}
	require.NoError(t, repo.Create(ctx, revived))
	assert.Equal(t, "Revived", revived.Name)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, types.DeviceID("10"), all[0].ID)
}

func TestUserAndTokenRepo_Integration(t *testing.T) {
	pool := startPostgres(t)
	users := NewUserRepo(pool)
	tokens := NewRefreshTokenRepo(pool)
	tx := trm.New(pool)
	ctx := context.Background()

	u := &models.User{Username: "admin", Role: types.RoleAdmin}
	u.SetPassword("hash")
	require.NoError(t, users.Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)

	dup := &models.User{Username: "ADMIN", Role: types.RoleViewer}
	dup.SetPassword("hash")
	assert.ErrorIs(t, users.Create(ctx, dup), types.ErrUsernameTaken)

	got, err := users.GetByUsername(ctx, "Admin")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.GetPassword())

	n, err := users.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rt := models.RefreshToken{ID: uuid.New(), UserID: u.ID, TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour), CreatedAt: time.Now()}
	require.NoError(t, tokens.Save(ctx, rt))

	err = tx.Do(ctx, func(ctx context.Context) error {
		stored, err := tokens.GetForUpdate(ctx, rt.ID)
		if err != nil {
			return err
		}
		assert.Nil(t, stored.RevokedAt)
		return tokens.Revoke(ctx, rt.ID)
	})
	require.NoError(t, err)

	stored, err := tokens.GetForUpdate(ctx, rt.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.RevokedAt)

	require.NoError(t, users.SoftDelete(ctx, u.ID))
	_, err = users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, types.ErrUserNotFound)

	list, total, err := users.List(ctx, models.NewUserFilters(1, 20, "username"))
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}
