package ledgerauth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the credential store. Email is the sole natural key; the
// token columns are mirrors of whatever the auth service last issued.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	UpdateRefreshToken(ctx context.Context, user *User, token *string) error
	UpdateResetToken(ctx context.Context, user *User, token *string) error
	UpdateResetTokenTx(ctx context.Context, tx bun.IDB, user *User, token *string) error
	UpdatePassword(ctx context.Context, user *User, passwordHash string) error
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, user *User, passwordHash string) error

	ConfirmEmail(ctx context.Context, email string) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

// IsRecordNotFound reports whether err signals a missing user.
func IsRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	return errors.IsNotFound(err)
}

func recordNotFound(email string) error {
	return errors.New("user not found", errors.CategoryNotFound).
		WithCode(errors.CodeNotFound).
		WithMetadata(map[string]any{"email": email})
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recordNotFound(email)
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to query user")
	}
	return record, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create user").
			WithCode(errors.CodeConflict)
	}
	return record, nil
}

func (a *users) UpdateRefreshToken(ctx context.Context, user *User, token *string) error {
	if err := a.updateColumn(ctx, a.db, user, "refresh_token", token); err != nil {
		return err
	}
	user.RefreshToken = token
	return nil
}

func (a *users) UpdateResetToken(ctx context.Context, user *User, token *string) error {
	return a.UpdateResetTokenTx(ctx, a.db, user, token)
}

func (a *users) UpdateResetTokenTx(ctx context.Context, tx bun.IDB, user *User, token *string) error {
	if err := a.updateColumn(ctx, tx, user, "password_reset_token", token); err != nil {
		return err
	}
	user.PasswordResetToken = token
	return nil
}

func (a *users) UpdatePassword(ctx context.Context, user *User, passwordHash string) error {
	return a.UpdatePasswordTx(ctx, a.db, user, passwordHash)
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, user *User, passwordHash string) error {
	if err := a.updateColumn(ctx, tx, user, "password_hash", passwordHash); err != nil {
		return err
	}
	user.PasswordHash = passwordHash
	return nil
}

func (a *users) ConfirmEmail(ctx context.Context, email string) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("confirmed = ?", true).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.email = ?", email).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to confirm email")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return recordNotFound(email)
	}
	return nil
}

func (a *users) updateColumn(ctx context.Context, tx bun.IDB, user *User, column string, value any) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update user").
			WithMetadata(map[string]any{"column": column})
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return recordNotFound(user.Email)
	}
	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}
}
