package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/repository"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userConfirmCmd = &cobra.Command{
	Use:   "confirm <email>",
	Short: "Mark an account as confirmed without a mailed token",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		userRepo, db, err := newUserRepositoryForUserCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		email := args[0]
		user, err := userRepo.FindByEmail(context.Background(), email)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no account with email %q", email)
		}
		if user.IsConfirmed {
			fmt.Printf("account %s is already confirmed\n", email)
			return nil
		}

		if err := userRepo.SetConfirmed(context.Background(), user.ID); err != nil {
			return err
		}

		fmt.Printf("account %s confirmed\n", email)
		return nil
	},
}

var userRevokeCmd = &cobra.Command{
	Use:   "revoke <email>",
	Short: "Revoke the stored refresh token, forcing a fresh login",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		userRepo, db, err := newUserRepositoryForUserCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		email := args[0]
		user, err := userRepo.FindByEmail(context.Background(), email)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no account with email %q", email)
		}
		if !user.RefreshToken.Valid {
			fmt.Printf("account %s has no active session\n", email)
			return nil
		}

		if err := userRepo.UpdateRefreshToken(context.Background(), user.ID, sql.NullString{}); err != nil {
			return err
		}

		fmt.Printf("refresh token revoked for %s\n", email)
		return nil
	},
}

func init() {
	userCmd.AddCommand(userConfirmCmd)
	userCmd.AddCommand(userRevokeCmd)
	rootCmd.AddCommand(userCmd)
}

func newUserRepositoryForUserCommands() (*repository.UserRepository, *sql.DB, error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		return nil, nil, errors.New("MYSQL_DSN environment variable is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}

	return repository.NewUserRepository(db), db, nil
}
