package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	pgclient "github.com/Temutjin2k/tracker-admin/pkg/postgres"
)

type UserRepo struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

const userColumns = `id, username, COALESCE(email, ''), password_hash, role, is_active, created_at, updated_at, last_login_at`

// Create inserts a user. The password hash must already be set on u.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	const op = "UserRepo.Create"
	query := `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		RETURNING ` + userColumns

	created, err := scanUser(TxorDB(ctx, r.db).QueryRow(ctx, query,
		u.Username,
		u.Email,
		u.GetPassword(),
		string(u.Role),
	))
	if err != nil {
		if pgclient.IsUniqueViolation(err) {
			return types.ErrUsernameTaken
		}
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	*u = created
	return nil
}

// GetByUsername returns an active user, matching the name case-insensitively.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "UserRepo.GetByUsername"
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1) AND is_active`

	u, err := scanUser(TxorDB(ctx, r.db).QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return &u, nil
}

// GetByID returns an active user.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "UserRepo.GetByID"
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_active`

	u, err := scanUser(TxorDB(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return &u, nil
}

// List returns a page of active users and the total number of active users.
func (r *UserRepo) List(ctx context.Context, filters models.Filters) ([]models.User, int, error) {
	const op = "UserRepo.List"
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), `+userColumns+`
		FROM users
		WHERE is_active
		ORDER BY %s %s, id ASC
		LIMIT $1 OFFSET $2`, filters.SortColumn(), filters.SortDirection())

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, filters.Limit(), filters.Offset())
	if err != nil {
		return nil, 0, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	var (
		total int
		users = make([]models.User, 0)
	)
	for rows.Next() {
		var (
			u    models.User
			hash string
			role string
		)
		if err := rows.Scan(&total, &u.ID, &u.Username, &u.Email, &hash, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt); err != nil {
			return nil, 0, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
		}
		u.Role = types.UserRole(role)
		u.SetPassword(hash)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return users, total, nil
}

// Update persists username, email, role and password hash of an active user.
func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	const op = "UserRepo.Update"
	query := `
		UPDATE users
		SET username = $2, email = NULLIF($3, ''), role = $4, password_hash = $5, updated_at = now()
		WHERE id = $1 AND is_active
		RETURNING ` + userColumns

	updated, err := scanUser(TxorDB(ctx, r.db).QueryRow(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		string(u.Role),
		u.GetPassword(),
	))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return types.ErrUserNotFound
		case pgclient.IsUniqueViolation(err):
			return types.ErrUsernameTaken
		}
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	*u = updated
	return nil
}

// SoftDelete marks an active user inactive.
func (r *UserRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const op = "UserRepo.SoftDelete"
	query := `UPDATE users SET is_active = FALSE, updated_at = now() WHERE id = $1 AND is_active`

	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	const op = "UserRepo.TouchLastLogin"
	query := `UPDATE users SET last_login_at = now() WHERE id = $1`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, id); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// CountAdmins returns the number of active admins.
func (r *UserRepo) CountAdmins(ctx context.Context) (int, error) {
	const op = "UserRepo.CountAdmins"
	query := `SELECT count(*) FROM users WHERE is_active AND role = $1`

	var n int
	if err := TxorDB(ctx, r.db).QueryRow(ctx, query, string(types.RoleAdmin)).Scan(&n); err != nil {
		return 0, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return n, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		u    models.User
		hash string
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &hash, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt); err != nil {
		return models.User{}, err
	}
	u.Role = types.UserRole(strings.ToUpper(role))
	u.SetPassword(hash)
	return u, nil
}
