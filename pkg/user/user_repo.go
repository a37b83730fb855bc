package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repo interface {
	// UpsertUser creates the user on first login and refreshes the profile on later ones.
	UpsertUser(ctx context.Context, user User) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	DeleteUserByUid(ctx context.Context, uid string) error
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

func (u *UserRepoImpl) UpsertUser(ctx context.Context, user User) (User, error) {
	query := `INSERT INTO users (uid, email, display_name, photo_url) VALUES ($1, $2, $3, $4)
				ON CONFLICT (uid) DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name,
				photo_url = EXCLUDED.photo_url, last_login_at = now()
				RETURNING id, uid, email, display_name, photo_url, created_at, last_login_at`
	var stored User
	err := u.db.QueryRow(ctx, query, user.Uid, user.Email, user.DisplayName, user.PhotoUrl).
		Scan(
			&stored.Id,
			&stored.Uid,
			&stored.Email,
			&stored.DisplayName,
			&stored.PhotoUrl,
			&stored.CreatedAt,
			&stored.LastLoginAt,
		)
	if err != nil {
		log.Errorf("failed to upsert user: %v", err)
		return User{}, err
	}
	return stored, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT id, uid, email, display_name, photo_url, created_at, last_login_at FROM users WHERE uid = $1`

	var user User
	err := u.db.QueryRow(ctx, query, uid).
		Scan(
			&user.Id,
			&user.Uid,
			&user.Email,
			&user.DisplayName,
			&user.PhotoUrl,
			&user.CreatedAt,
			&user.LastLoginAt,
		)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Infof("user with uid %s not found", uid)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) DeleteUserByUid(ctx context.Context, uid string) error {
	query := `DELETE FROM users WHERE uid = $1`
	result, err := u.db.Exec(ctx, query, uid)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		log.Info("no rows affected of deleting user")
		return ErrUserNotFound
	}
	return nil
}
