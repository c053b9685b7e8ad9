package main

import (
	"fmt"

	"license-key-server/internal/model"
	"license-key-server/internal/service"

	"github.com/spf13/cobra"
)

var (
	newUsername string
	newPassword string
	newRole     string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an administrator or viewer account",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer db.Close()

		users := service.NewAuthService(db, nil, log)
		user, err := users.Register(cmd.Context(), 0, model.RegisterInput{
			Username: newUsername,
			Password: newPassword,
			Role:     newRole,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s user %q (id %d)\n", user.Role, user.Username, user.ID)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVarP(&newUsername, "username", "u", "", "username")
	createUserCmd.Flags().StringVarP(&newPassword, "password", "p", "", "password, at least 8 characters")
	createUserCmd.Flags().StringVar(&newRole, "role", model.RoleAdmin, "admin or viewer")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")
}
