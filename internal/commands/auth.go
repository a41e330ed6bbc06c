package commands

import (
	"github.com/spf13/cobra"

	"github.com/and161185/studyflow/internal/app"
)

func addSignUp(topLevel *cobra.Command, e *env) {
	var form app.SignUpForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in.",
		Example: `
studyflow signup --email ada@example.com --username ada
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if form.Email, err = e.orAsk(form.Email, "Email"); err != nil {
				return err
			}
			if form.Username, err = e.orAsk(form.Username, "Username"); err != nil {
				return err
			}
			if form.Secret, err = e.orAsk(form.Secret, "Password"); err != nil {
				return err
			}
			if form.Confirm, err = e.orAsk(form.Confirm, "Confirm password"); err != nil {
				return err
			}
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := e.timeout(cmd.Context())
			defer cancel()
			return reported(e.shell.Auth().SignUp(ctx, form))
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Username, "username", "", "display name")
	cmd.Flags().StringVar(&form.Secret, "password", "", "password (asked when empty)")
	cmd.Flags().StringVar(&form.Confirm, "confirm", "", "password again (asked when empty)")
	topLevel.AddCommand(cmd)
}

func addLogin(topLevel *cobra.Command, e *env) {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session.",
		Example: `
studyflow login --email ada@example.com
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = e.orAsk(email, "Email"); err != nil {
				return err
			}
			if password, err = e.orAsk(password, "Password"); err != nil {
				return err
			}
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := e.timeout(cmd.Context())
			defer cancel()
			return reported(e.shell.Auth().SignIn(ctx, email, password))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (asked when empty)")
	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			return reported(e.shell.SignOut(cmd.Context()))
		},
	}
	topLevel.AddCommand(cmd)
}

func addResetPassword(topLevel *cobra.Command, e *env) {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Mail a password reset link.",
		Example: `
studyflow reset-password --email ada@example.com
studyflow reset-password confirm --token <token from the mail>
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = e.orAsk(email, "Email"); err != nil {
				return err
			}
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := e.timeout(cmd.Context())
			defer cancel()
			return reported(e.shell.Auth().ResetPassword(ctx, email))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")

	var token, password string
	confirm := &cobra.Command{
		Use:   "confirm",
		Short: "Set a new password with the token from the reset mail.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if token, err = e.orAsk(token, "Token"); err != nil {
				return err
			}
			if password, err = e.orAsk(password, "New password"); err != nil {
				return err
			}
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := e.timeout(cmd.Context())
			defer cancel()
			if err := e.sessions.ConfirmPasswordReset(ctx, token, password); err != nil {
				return err
			}
			e.out.line("Password changed. You can log in now.")
			return nil
		},
	}
	confirm.Flags().StringVar(&token, "token", "", "reset token")
	confirm.Flags().StringVar(&password, "password", "", "new password (asked when empty)")
	cmd.AddCommand(confirm)

	topLevel.AddCommand(cmd)
}

func addWhoAmI(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.connect(cmd.Context()); err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			id := e.sessions.Current()
			e.out.line("%s <%s>", id.Name(), id.Email)
			e.out.line("User ID: %s", id.UserID)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
