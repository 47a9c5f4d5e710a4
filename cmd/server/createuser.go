package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"doc-converter/internal/config"
	"doc-converter/internal/domain"
	"doc-converter/internal/repository"
	"doc-converter/internal/service"
	apperrors "doc-converter/pkg/errors"
	"doc-converter/pkg/logger"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var createUserCmd = &cobra.Command{
	Use:   "create-user <username> <email>",
	Short: "Register an account from the command line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		db, err := config.OpenUserDatabase(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		auth := service.NewAuthService(repository.NewSQLUserRepository(db), logger.NewLogger(cfg.LogLevel))
		return createUser(cmd.Context(), auth, args[0], args[1], cmd.ErrOrStderr(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)
}

// createUser prompts twice for the password and registers the account.
func createUser(ctx context.Context, auth domain.AuthService, username, email string, prompt, out io.Writer) error {
	password, err := promptPassword(prompt, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(prompt, "Confirm password: ")
	if err != nil {
		return err
	}
	if string(password) != string(confirm) {
		return errors.New("passwords do not match")
	}

	user, err := auth.Register(ctx, username, email, string(password))
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Type != apperrors.ErrorTypeInternal {
			return errors.New(appErr.Message)
		}
		return err
	}

	fmt.Fprintf(out, "created user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func promptPassword(w io.Writer, label string) ([]byte, error) {
	if _, err := fmt.Fprint(w, label); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}
