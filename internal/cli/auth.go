package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/expense-tracker-go/internal/api/request"
	"github.com/mcoot/expense-tracker-go/internal/api/response"
)

func newSignUpCmd(a *app) *cobra.Command {
	var req request.SignUpRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.AuthResponse

			if err := a.client.Post("/api/v1/auth/signup", req, &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "user", "", "Username (required)")
	cmd.Flags().StringVar(&req.DisplayName, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.Password, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "Gender: male or female (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("pass")
	_ = cmd.MarkFlagRequired("gender")

	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var req request.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.AuthResponse

			if err := a.client.Post("/api/v1/auth/login", req, &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "user", "", "Username (required)")
	cmd.Flags().StringVar(&req.Password, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MessageResponse

			if err := a.client.Post("/api/v1/auth/logout", nil, &result); err != nil {
				return err
			}
			// The server clears the cookie, but drop the local copy even if
			// it did not recognise the session
			if err := a.cfg.SaveCookie(""); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}
}

func newLogoutAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout-all",
		Short: "End every session of the current account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.LogoutAllResponse

			if err := a.client.Post("/api/v1/auth/logout-all", nil, &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}
}

func newMeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MeResponse

			if err := a.client.Get("/api/v1/auth/me", &result); err != nil {
				return err
			}

			a.output(cmd).Print(result)
			return nil
		},
	}
}
