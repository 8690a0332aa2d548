package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/caridad-unsta/caridad/internal/apperror"
	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// UserDB stores users. Obtain one with DB.Users().
type UserDB struct {
	db *DB
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, external_id, email, name, role, member_code, password_hash, created_at, updated_at`

// userSortColumns maps the public sort field names to SQL expressions.
// Only values from this map are ever interpolated into a query.
var userSortColumns = map[string]string{
	"name":      "name COLLATE NOCASE",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u   model.User
		ext sql.NullString
	)
	err := s.Scan(
		&u.ID,
		&ext,
		&u.Email,
		&u.Name,
		&u.Role,
		&u.MemberCode,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.ExternalID = ext.String
	return &u, nil
}

// Create inserts a new user, filling in ID and timestamps.
// Returns a ConflictError when the email or external id is taken.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	if user.Role == "" {
		user.Role = model.RoleMember
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		nullString(user.ExternalID),
		user.Email,
		user.Name,
		user.Role,
		user.MemberCode,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if cerr := constraintError(err, "user", user.Email); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.getBy(ctx, "id", id)
}

// GetByExternalID looks a user up by the identity provider's subject.
func (u *UserDB) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return u.getBy(ctx, "external_id", externalID)
}

// GetByEmail matches the email case-insensitively.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.getBy(ctx, "email", email)
}

func (u *UserDB) getBy(ctx context.Context, column, value string) (*model.User, error) {
	row := u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}
	return user, nil
}

// List returns users matching filter, ordered by sort.
// The default order is newest first.
func (u *UserDB) List(ctx context.Context, filter repository.UserFilter, sort repository.UserSort) ([]model.User, error) {
	var (
		where []string
		args  []any
	)
	if filter.Role != "" {
		where = append(where, "role = ?")
		args = append(args, filter.Role)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		where = append(where, `(name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ` + userOrderBy(sort)

	rows, err := u.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}
	return users, nil
}

func userOrderBy(sort repository.UserSort) string {
	column, ok := userSortColumns[sort.Field]
	if !ok {
		return "created_at DESC, id DESC"
	}
	dir := "ASC"
	if sort.Direction == repository.SortDesc {
		dir = "DESC"
	}
	return column + " " + dir + ", id " + dir
}

// escapeLike escapes the LIKE wildcards so a search term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Update writes every mutable column of user and bumps UpdatedAt.
func (u *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := u.db.conn.ExecContext(ctx,
		`UPDATE users
		 SET external_id = ?, email = ?, name = ?, role = ?, member_code = ?,
		     password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		nullString(user.ExternalID),
		user.Email,
		user.Name,
		user.Role,
		user.MemberCode,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if cerr := constraintError(err, "user", user.Email); cerr != nil {
			return cerr
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	return checkAffected(result, "user", user.ID)
}

// Delete removes a user together with their registrations, targeted
// notifications and read receipts. Users who own donations cannot be deleted.
func (u *UserDB) Delete(ctx context.Context, id string) error {
	result, err := u.db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		if constraintError(err, "user", id) != nil {
			return apperror.ConflictMessage("user still owns donations and cannot be deleted")
		}
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return checkAffected(result, "user", id)
}
