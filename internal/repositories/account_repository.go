package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
	"github.com/gymsite/backend/internal/roles"
	"go.uber.org/zap"
)

const accountColumns = `id, name, email, password_hash, role, created_at`

// accountRepository implements AccountRepository
type accountRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sql.DB, logger *zap.Logger) *accountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Create inserts a new account and assigns its initial role in the same statement:
// super-admin when the table is empty, user otherwise. account.Role is ignored on input and
// holds the stored role on success. ID and CreatedAt are assigned here when empty.
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return apperrors.Store("begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		SELECT ?, ?, ?, ?, CASE WHEN EXISTS (SELECT 1 FROM users) THEN ? ELSE ? END, ?
	`
	_, err = tx.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash,
		string(roles.InitialRole(1)), string(roles.InitialRole(0)), account.CreatedAt)
	if err != nil {
		switch {
		case isSingleSuperAdminViolation(err), isDeadlock(err):
			// Another first account won the race
			r.logger.Warn("concurrent bootstrap signup rejected", zap.String("email", account.Email), zap.Error(err))
			return apperrors.Wrap(apperrors.ErrConflict, "another account was created at the same time, please retry")
		case isUniqueViolation(err):
			return apperrors.Wrap(apperrors.ErrDuplicateEmail, "%s", account.Email)
		}
		r.logger.Error("failed to create account", zap.Error(err))
		return apperrors.Store("create account", err)
	}

	var role models.Role
	if err := tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, account.ID).Scan(&role); err != nil {
		r.logger.Error("failed to read role of new account", zap.Error(err))
		return apperrors.Store("read account role", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit account", zap.Error(err))
		return apperrors.Store("commit account", err)
	}
	account.Role = role
	return nil
}

// GetByID retrieves an account by id
func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = ?`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "user %s", id)
	}
	if err != nil {
		r.logger.Error("failed to get account by id", zap.Error(err), zap.String("id", id))
		return nil, apperrors.Store("get account by id", err)
	}

	return account, nil
}

// GetByEmail retrieves an account by exact email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE email = ?`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "user %s", email)
	}
	if err != nil {
		r.logger.Error("failed to get account by email", zap.Error(err), zap.String("email", email))
		return nil, apperrors.Store("get account by email", err)
	}

	return account, nil
}

// ExistsByEmail checks if an account exists with the given email
func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err), zap.String("email", email))
		return false, apperrors.Store("check email existence", err)
	}

	return exists, nil
}

// List returns every account, oldest first
func (r *accountRepository) List(ctx context.Context) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list accounts", zap.Error(err))
		return nil, apperrors.Store("list accounts", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			r.logger.Error("failed to scan account", zap.Error(err))
			return nil, apperrors.Store("scan account", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("iterate accounts", err)
	}

	return accounts, nil
}

// UpdateRole sets the role of an account if it still has the role from.
// Returns false when no row matched: the account is gone or its role changed meanwhile.
func (r *accountRepository) UpdateRole(ctx context.Context, id string, from, to models.Role) (bool, error) {
	query := `UPDATE users SET role = ? WHERE id = ? AND role = ?`

	result, err := r.db.ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		r.logger.Error("failed to update role", zap.Error(err), zap.String("id", id))
		return false, apperrors.Store("update role", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Store("update role", err)
	}
	return n > 0, nil
}

// Delete removes an account if it still has the given role.
// Returns false when no row matched.
func (r *accountRepository) Delete(ctx context.Context, id string, role models.Role) (bool, error) {
	query := `DELETE FROM users WHERE id = ? AND role = ?`

	result, err := r.db.ExecContext(ctx, query, id, string(role))
	if err != nil {
		r.logger.Error("failed to delete account", zap.Error(err), zap.String("id", id))
		return false, apperrors.Store("delete account", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Store("delete account", err)
	}
	return n > 0, nil
}
