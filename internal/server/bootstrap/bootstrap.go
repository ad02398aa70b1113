// Package bootstrap seeds the administrator account at startup.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/mneme/internal/common"
	"github.com/dmitrijs2005/mneme/internal/logging"
	"github.com/dmitrijs2005/mneme/internal/server/config"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/services"
	"golang.org/x/term"
)

type UserCreator interface {
	Exists(ctx context.Context, userName string) (bool, error)
	CreateUser(ctx context.Context, in services.NewUser) (*models.User, error)
}

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
)

var ErrNoAdminPassword = errors.New("admin password is not configured and stdin is not a terminal")

// SeedAdmin creates the configured admin account unless the instance is
// public or the account already exists. With no configured password the
// operator is prompted on the terminal.
func SeedAdmin(ctx context.Context, users UserCreator, cfg *config.Config, prompt io.Writer, logger logging.Logger) error {
	logger = logger.With("module", "bootstrap")

	if cfg.Instance == common.InstancePublic {
		logger.Debug(ctx, "public instance, no admin seeded")
		return nil
	}

	exists, err := users.Exists(ctx, cfg.AdminUsername)
	if err != nil {
		return fmt.Errorf("look up admin: %w", err)
	}
	if exists {
		logger.Debug(ctx, "admin account present", "username", cfg.AdminUsername)
		return nil
	}

	password := cfg.AdminPassword
	if password == "" {
		if password, err = askPassword(prompt, cfg.AdminUsername); err != nil {
			return err
		}
	}

	_, err = users.CreateUser(ctx, services.NewUser{
		UserName:  cfg.AdminUsername,
		Password:  password,
		Encrypted: cfg.AdminEncrypted,
		Admin:     true,
	})
	if errors.Is(err, common.ErrorConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Info(ctx, "admin account created", "username", cfg.AdminUsername)
	return nil
}

func askPassword(w io.Writer, userName string) (string, error) {
	fd := stdinFd()
	if !isTerminal(fd) {
		return "", ErrNoAdminPassword
	}

	if _, err := fmt.Fprintf(w, "Password for admin account %q: ", userName); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return "", fmt.Errorf("empty admin password: %w", common.ErrorInvalidInput)
	}
	return string(pw), nil
}
