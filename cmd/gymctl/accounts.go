package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/auth/service"
	"github.com/gymsite/backend/internal/logger"
	"github.com/gymsite/backend/internal/models"
	"github.com/gymsite/backend/internal/repositories"
	"github.com/gymsite/backend/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// readPassword prompts for a password without echo when stdin is a terminal,
// otherwise it reads the first line of stdin.
func readPassword(in *os.File, out io.Writer) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(out, "Password: ")
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return readLine(in)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var createAccountCmd = &cobra.Command{
	Use:   "create-account",
	Short: "Create an account, the first account becomes the super-admin",
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		admin, _ := cmd.Flags().GetBool("admin")

		password, err := readPassword(os.Stdin, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		repo := repositories.NewAccountRepository(e.db, logger.Logger)
		tokens := service.NewTokenGenerator(e.cfg.JWT.Secret, e.cfg.JWT.AccessTokenExpiry)
		auth := services.NewAuthService(repo, services.NewBcryptHasher(0), tokens, logger.Logger)

		resp, err := auth.Signup(ctx, &models.SignupRequest{Name: name, Email: email, Password: password})
		if err != nil {
			return err
		}
		account := resp.Account

		if admin && account.Role == models.RoleUser {
			if err := setRole(ctx, repo, account, models.RoleAdmin); err != nil {
				return err
			}
			account.Role = models.RoleAdmin
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with role %s\n", account.Email, account.ID, account.Role)
		return nil
	}),
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Set the role of an account to user or admin",
	Long: `Set the role of an account to user or admin.

This bypasses the promotion rules of the API and is meant for recovery, for
example when every admin lost access. The super-admin can neither be changed
nor created with this command.`,
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		roleName, _ := cmd.Flags().GetString("role")

		role, ok := models.ParseRole(roleName)
		if !ok || role == models.RoleSuperAdmin {
			return fmt.Errorf("invalid role %q, must be user or admin", roleName)
		}

		repo := repositories.NewAccountRepository(e.db, logger.Logger)
		account, err := repo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}

		if err := setRole(ctx, repo, account, role); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", account.Email, role)
		return nil
	}),
}

// roleUpdater is the part of the account repository setRole needs
type roleUpdater interface {
	UpdateRole(ctx context.Context, id string, from, to models.Role) (bool, error)
}

// setRole changes the role of account, refusing to touch the super-admin
func setRole(ctx context.Context, repo roleUpdater, account *models.Account, role models.Role) error {
	if account.Role == models.RoleSuperAdmin {
		return apperrors.Wrap(apperrors.ErrInvalidTransition, "cannot modify super-admin")
	}
	if account.Role == role {
		return nil
	}

	ok, err := repo.UpdateRole(ctx, account.ID, account.Role, role)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Wrap(apperrors.ErrConflict, "account %s was modified concurrently", account.Email)
	}
	logger.Logger.Info("role set from command line",
		zap.String("target_id", account.ID),
		zap.String("from", string(account.Role)),
		zap.String("to", string(role)),
	)
	return nil
}
