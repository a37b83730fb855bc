package user

import (
	"context"
	"fmt"

	"github.com/klokku/spendwise/internal/event_bus"
	"github.com/klokku/spendwise/pkg/session"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Login records a successful Google login.
	Login(ctx context.Context, user User) (User, error)
	GetCurrentUser(ctx context.Context) (User, error)
	// DeleteCurrentUser removes the logged-in user's account. Every session of the user ends with it.
	DeleteCurrentUser(ctx context.Context) error
}

type UserServiceImpl struct {
	repo     Repo
	eventBus *event_bus.EventBus
}

func NewUserService(repo Repo, eventBus *event_bus.EventBus) *UserServiceImpl {
	return &UserServiceImpl{repo: repo, eventBus: eventBus}
}

func (u *UserServiceImpl) Login(ctx context.Context, user User) (User, error) {
	if user.Uid == "" {
		return User{}, fmt.Errorf("login without account id")
	}
	return u.repo.UpsertUser(ctx, user)
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	uid, err := currentUid(ctx)
	if err != nil {
		return User{}, err
	}
	return u.repo.GetUserByUid(ctx, uid)
}

func (u *UserServiceImpl) DeleteCurrentUser(ctx context.Context) error {
	uid, err := currentUid(ctx)
	if err != nil {
		return err
	}
	if err := u.repo.DeleteUserByUid(ctx, uid); err != nil {
		return err
	}
	log.Infof("deleted user %s", uid)

	err = u.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.UserDeletedType, event_bus.UserDeleted{Uid: uid}))
	if err != nil {
		return fmt.Errorf("user deleted but cleanup failed: %w", err)
	}
	return nil
}

func currentUid(ctx context.Context) (string, error) {
	state, err := session.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current session: %w", err)
	}
	identity := state.Identity()
	if identity.Kind != session.KindLoggedIn || identity.UserUid == "" {
		return "", ErrNotLoggedIn
	}
	return identity.UserUid, nil
}
