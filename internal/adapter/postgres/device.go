package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
)

type DeviceRepo struct {
	db *pgxpool.Pool
}

func NewDeviceRepo(db *pgxpool.Pool) *DeviceRepo {
	return &DeviceRepo{
		db: db,
	}
}

const deviceColumns = `id, name, color, description, icon, owner_id::text, is_active, created_at, updated_at`

// Create inserts a device. An id that belongs to a soft-deleted device revives
// that row with the new attributes; an id of an active device fails with
// types.ErrDeviceExists.
func (r *DeviceRepo) Create(ctx context.Context, d *models.Device) error {
	const op = "DeviceRepo.Create"
	query := `
		INSERT INTO devices (id, name, color, description, icon, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6::uuid)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			color = EXCLUDED.color,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			owner_id = EXCLUDED.owner_id,
			is_active = TRUE,
			created_at = now(),
			updated_at = now()
		WHERE devices.is_active = FALSE
		RETURNING ` + deviceColumns

	row := TxorDB(ctx, r.db).QueryRow(ctx, query,
		string(d.ID),
		d.Name,
		d.Color,
		d.Description,
		d.Icon,
		d.OwnerID,
	)

	created, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ErrDeviceExists
		}
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	*d = created
	return nil
}

// Get returns an active device.
func (r *DeviceRepo) Get(ctx context.Context, id types.DeviceID) (models.Device, error) {
	const op = "DeviceRepo.Get"
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1 AND is_active`

	d, err := scanDevice(TxorDB(ctx, r.db).QueryRow(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Device{}, types.ErrDeviceNotFound
		}
		return models.Device{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return d, nil
}

// Lookup is Get that reports absence with a flag instead of an error.
func (r *DeviceRepo) Lookup(ctx context.Context, id types.DeviceID) (models.Device, bool, error) {
	d, err := r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrDeviceNotFound) {
			return models.Device{}, false, nil
		}
		return models.Device{}, false, err
	}
	return d, true, nil
}

// ListAll returns active devices ordered by name.
func (r *DeviceRepo) ListAll(ctx context.Context) ([]models.Device, error) {
	const op = "DeviceRepo.ListAll"
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE is_active ORDER BY name, id`

	rows, err := TxorDB(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	devices := make([]models.Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return devices, nil
}

// Update writes the patch to an active device and returns the stored row.
func (r *DeviceRepo) Update(ctx context.Context, id types.DeviceID, patch models.DevicePatch) (models.Device, error) {
	const op = "DeviceRepo.Update"

	sets := make([]string, 0, 4)
	args := []any{string(id)}
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", patch.Name)
	add("color", patch.Color)
	add("description", patch.Description)
	add("icon", patch.Icon)

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	query := `
		UPDATE devices SET ` + strings.Join(sets, ", ") + `, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING ` + deviceColumns

	d, err := scanDevice(TxorDB(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Device{}, types.ErrDeviceNotFound
		}
		return models.Device{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return d, nil
}

// SoftDelete marks an active device inactive.
func (r *DeviceRepo) SoftDelete(ctx context.Context, id types.DeviceID) error {
	const op = "DeviceRepo.SoftDelete"
	query := `
		UPDATE devices SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND is_active`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, string(id))
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	if tag.RowsAffected() == 0 {
		return types.ErrDeviceNotFound
	}
	return nil
}

func scanDevice(row pgx.Row) (models.Device, error) {
	var (
		d       models.Device
		id      string
		ownerID *string
	)
	if err := row.Scan(
		&id,
		&d.Name,
		&d.Color,
		&d.Description,
		&d.Icon,
		&ownerID,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return models.Device{}, err
	}
	d.ID = types.DeviceID(id)
	d.OwnerID = ownerID
	return d, nil
}
