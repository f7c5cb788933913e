package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/dbx"
	"github.com/sampottinger/kipling-package-index/internal/logging"
	"github.com/sampottinger/kipling-package-index/internal/server/metadata"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
	"github.com/sampottinger/kipling-package-index/internal/server/notify"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages accounts. Passwords are generated by the server and
// sent by e-mail; only their bcrypt hash is stored.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *AccessControl
	notifier    notify.Notifier
	log         logging.Logger

	cost             int
	generatePassword func(n int) (string, error)
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, n notify.Notifier, log logging.Logger) *UserService {
	return &UserService{
		db:               db,
		repomanager:      m,
		access:           NewAccessControl(db, m),
		notifier:         n,
		log:              log.With("module", "users"),
		cost:             bcrypt.DefaultCost,
		generatePassword: common.GeneratePassword,
	}
}

// Register creates an account for username and e-mails it a generated
// password. Both the username and the email must be unused.
//
// When the e-mail cannot be sent the account still exists and the error
// wraps ErrNotification.
func (s *UserService) Register(ctx context.Context, username, email string) error {
	if username == "" {
		return &metadata.ValidationError{Field: "username"}
	}
	if email == "" {
		return &metadata.ValidationError{Field: "email"}
	}

	password, err := s.generatePassword(common.GeneratedPasswordSize)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hash, err := hashPassword(password, s.cost)
	if err != nil {
		return err
	}

	err = s.repomanager.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		for _, lookup := range []func() (*models.User, error){
			func() (*models.User, error) { return repo.GetByUsername(ctx, username) },
			func() (*models.User, error) { return repo.GetByEmail(ctx, email) },
		} {
			taken, err := exists(lookup())
			if err != nil {
				return err
			}
			if taken {
				return ErrUserExists
			}
		}

		err := repo.Create(ctx, &models.User{Username: username, Email: email, PasswordHash: hash})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return ErrUserExists
		}
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "user registered", "user", username)
	return s.send(ctx, notify.PasswordMessage(username, email, password))
}

// ChangePassword replaces the password of username after checking the old
// one, then sends a confirmation without the password.
func (s *UserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if newPassword == "" {
		return &metadata.ValidationError{Field: "new_password"}
	}

	ok, err := s.access.VerifyCredentials(ctx, username, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermission
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("load user %q: %w", username, err)
	}

	user.PasswordHash, err = hashPassword(newPassword, s.cost)
	if err != nil {
		return err
	}
	if err := repo.Upsert(ctx, user); err != nil {
		return err
	}

	s.log.Info(ctx, "password changed", "user", username)
	return s.send(ctx, notify.ConfirmationMessage(username, user.Email))
}

func (s *UserService) send(ctx context.Context, msg notify.Message) error {
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.log.Error(ctx, "account e-mail failed", "to", msg.ToAddress, "error", err)
		return fmt.Errorf("%w: %w", ErrNotification, err)
	}
	return nil
}

// exists turns a lookup result into a presence flag.
func exists(_ *models.User, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	return false, err
}
