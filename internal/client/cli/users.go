package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrPasswordMismatch is returned before any request when the new password
// and its confirmation differ.
var ErrPasswordMismatch = errors.New("new password and confirm password don't match")

func (a *App) useraddCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "useradd USERNAME",
		Short: "Register an account; the password is sent by e-mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				e, err := GetSimpleText(a.in, "Email address", a.out)
				if err != nil {
					return err
				}
				email = e
			}
			resp, err := a.api.Register(cmd.Context(), args[0], email)
			if err != nil {
				return err
			}
			a.success(resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "e-mail address (prompted when empty)")
	return cmd
}

func (a *App) passwdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd USERNAME",
		Short: "Change an account password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := GetPassword(a.in, "Password", a.out)
			if err != nil {
				return err
			}
			next, err := GetPassword(a.in, "New password", a.out)
			if err != nil {
				return err
			}
			confirm, err := GetPassword(a.in, "Confirm new password", a.out)
			if err != nil {
				return err
			}
			if next != confirm {
				return ErrPasswordMismatch
			}

			resp, err := a.api.ChangePassword(cmd.Context(), args[0], current, next)
			if err != nil {
				return err
			}
			a.success(resp.Message)
			return nil
		},
	}
}
