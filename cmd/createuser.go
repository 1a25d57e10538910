/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/qbank-io/apiserver/config"
	"github.com/qbank-io/apiserver/internal/db"
	"github.com/qbank-io/apiserver/internal/store"
	"github.com/qbank-io/apiserver/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	createUserUsername string
	createUserEmail    string
	createUserPassword string
	createUserRole     string
)

// createUserCmd bootstraps accounts; there is no self-registration, so the
// first admin has to come from here.
var createUserCmd = &cobra.Command{
	Use:   "createuser",
	Short: "Create a user account",
	Long: `Creates a user account directly in the database. Usage:

	qbank createuser --username admin --email admin@example.com --password secret --role admin
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role := types.Role(createUserRole)
		if !role.IsValid() {
			return fmt.Errorf("invalid role %q (want admin, editor or viewer)", createUserRole)
		}

		cfg := config.LoadConfig()
		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		hashed, err := bcrypt.GenerateFromPassword([]byte(createUserPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		users := store.NewUserRepository(dbConn)
		user, err := users.Create(cmd.Context(), types.User{
			Username:     createUserUsername,
			Email:        createUserEmail,
			Role:         role,
			PasswordHash: string(hashed),
			IsActive:     true,
		})
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("username or email already registered")
			}
			return err
		}

		fmt.Printf("created user %q (id %d, role %s)\n", user.Username, user.ID, user.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)

	createUserCmd.Flags().StringVar(&createUserUsername, "username", "", "login name")
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "email address")
	createUserCmd.Flags().StringVar(&createUserPassword, "password", "", "initial password")
	createUserCmd.Flags().StringVar(&createUserRole, "role", "viewer", "role: admin, editor or viewer")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}
