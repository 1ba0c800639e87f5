package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/keneanapp/kenean/core"
	"github.com/keneanapp/kenean/core/user"
)

const userTable = `"user"`

var userColumns = []string{
	"id", "name", "email", "role", "banned", "ban_reason", "ban_expires",
	"password_hash", "created_at", "updated_at", "last_login",
}

type dbUser struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	Role         string     `db:"role"`
	Banned       bool       `db:"banned"`
	BanReason    string     `db:"ban_reason"`
	BanExpires   *time.Time `db:"ban_expires"`
	PasswordHash []byte     `db:"password_hash"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLogin    time.Time  `db:"last_login"`
}

func (u dbUser) toCore() user.User {
	return user.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         user.Role(u.Role),
		Banned:       u.Banned,
		BanReason:    u.BanReason,
		BanExpires:   u.BanExpires,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		LastLogin:    u.LastLogin.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	b := psql.Select("COUNT(*)").From(userTable).Where(sq.Eq{"email": email})
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		b = b.Where(sq.NotEq{"id": ids})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var count int
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &count, q, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	q, args, err := psql.Insert(userTable).
		Columns(userColumns...).
		Values(
			usr.ID, usr.Name, usr.Email, usr.Role, usr.Banned, usr.BanReason, usr.BanExpires,
			usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
		).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, args...); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	b := psql.Select(userColumns...).From(userTable)
	switch {
	case filter.ID != "":
		b = b.Where(sq.Eq{"id": filter.ID})
	case filter.Email != "":
		b = b.Where(sq.Eq{"email": filter.Email})
	default:
		return user.User{}, user.ErrNotFound
	}
	q, args, err := b.ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}

	var u dbUser
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &u, q, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return u.toCore(), nil
}

func applyUserFilter(b sq.SelectBuilder, filter *user.QueryFilter) sq.SelectBuilder {
	if filter == nil {
		return b
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		b = b.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"email": pattern},
		})
	}
	if filter.Role != "" {
		b = b.Where(sq.Eq{"role": filter.Role})
	}
	if filter.Banned != nil {
		b = b.Where(sq.Eq{"banned": *filter.Banned})
	}
	if !filter.CreatedFrom.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": filter.CreatedFrom})
	}
	if !filter.CreatedTo.IsZero() {
		b = b.Where(sq.LtOrEq{"created_at": filter.CreatedTo})
	}
	return b
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	b := applyUserFilter(psql.Select(userColumns...).From(userTable), filter)
	if len(ordering) > 0 {
		for _, ord := range ordering {
			b = b.OrderBy(ord.String())
		}
	} else {
		b = b.OrderBy("created_at DESC")
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbUser
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, u := range rows {
		users = append(users, u.toCore())
	}
	return users, nil
}

func (repo userRepository) CountUsers(ctx context.Context, filter *user.QueryFilter, exec ...core.DBExecutor) (int, error) {
	q, args, err := applyUserFilter(psql.Select("COUNT(*)").From(userTable), filter).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var count int
	if err := sqlx.GetContext(ctx, getExec(repo.db, exec), &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return count, nil
}

func (repo userRepository) userSetMap(usr user.User) map[string]interface{} {
	return map[string]interface{}{
		"name":          usr.Name,
		"email":         usr.Email,
		"role":          usr.Role,
		"banned":        usr.Banned,
		"ban_reason":    usr.BanReason,
		"ban_expires":   usr.BanExpires,
		"password_hash": usr.PasswordHash,
		"updated_at":    usr.UpdatedAt,
		"last_login":    usr.LastLogin,
	}
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q, args, err := psql.Update(userTable).
		SetMap(repo.userSetMap(usr)).
		Where(sq.Eq{"id": usr.ID}).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	updated, err := repo.UpdateUser(ctx, usr, exec...)
	if err == nil {
		return updated, nil
	}
	if errors.Cause(err) != user.ErrNotFound {
		return user.User{}, err
	}

	q, args, err := psql.Insert(userTable).
		Columns(userColumns...).
		Values(
			usr.ID, usr.Name, usr.Email, usr.Role, usr.Banned, usr.BanReason, usr.BanExpires,
			usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
		).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, args...); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := psql.Delete(userTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := getExec(repo.db, exec).ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
