package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dipanjanswapna/ongonbd/internal/application/dto"
	"github.com/dipanjanswapna/ongonbd/internal/application/services"
	"github.com/dipanjanswapna/ongonbd/internal/application/validation"
	"github.com/dipanjanswapna/ongonbd/pkg/errors"
)

// Run executes the portal command line and returns the process exit code.
func Run(ctx context.Context, build Builder, args []string, out, errOut io.Writer) int {
	r := &runner{build: build, out: out, errOut: errOut}
	root := newRootCommand(r)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	r.flush()
	if r.app != nil && r.app.Close != nil {
		if cerr := r.app.Close(); cerr != nil {
			fmt.Fprintf(errOut, "Error: %v\n", cerr)
		}
	}
	if err == nil {
		return 0
	}
	if !errors.Is(err, ErrCommandFailed) {
		fmt.Fprintf(errOut, "Error: %v\n", err)
	}
	return 1
}

func newRootCommand(r *runner) *cobra.Command {
	root := &cobra.Command{
		Use:   "portal",
		Short: "Account and session tool for the ongonbd portal API",
		Long: `portal signs you in to the ongonbd API and manages your account.

The session is kept between runs in the configured token store, so a login
in one invocation is picked up by the next.

Examples:
  portal register --first-name Rahim --last-name Uddin --email rahim@example.com ...
  portal login --email rahim@example.com --password ...
  portal whoami
  portal logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.build(r.configPath)
			if err != nil {
				return err
			}
			r.app = app
			app.Session.RestoreSession(cmd.Context())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&r.configPath, "config", "", "config file (default is $PORTAL_CONFIG)")

	root.AddCommand(
		r.loginCmd(),
		r.registerCmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.refreshCmd(),
		r.profileCmd(),
		r.passwordCmd(),
		r.verifyEmailCmd(),
		r.resendVerificationCmd(),
		r.healthCmd(),
	)
	return root
}

func (r *runner) loginCmd() *cobra.Command {
	var req dto.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if msg := validation.EmailProblem(req.Email); msg != "" {
				return r.invalid(fieldProblem("email", msg))
			}
			res := r.app.Session.Login(cmd.Context(), req)
			return r.report(res, "Signed in", services.WithTitle("Login failed"))
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (r *runner) registerCmd() *cobra.Command {
	var form validation.RegistrationForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verrs := validation.ValidateRegistration(form); verrs != nil {
				return r.invalid(verrs)
			}
			res := r.app.Session.Register(cmd.Context(), form.Request())
			if err := r.report(res, "Account created", services.WithTitle("Registration failed")); err != nil {
				return err
			}
			if !r.app.Session.IsAuthenticated() {
				r.app.Notifications.Info("Check your inbox, then run 'portal login'")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.FirstName, "first-name", "", "First name")
	f.StringVar(&form.LastName, "last-name", "", "Last name")
	f.StringVar(&form.Email, "email", "", "Email address")
	f.StringVar(&form.Phone, "phone", "", "Phone number")
	f.StringVar(&form.Password, "password", "", "Password")
	f.StringVar(&form.ConfirmPassword, "confirm-password", "", "Password again")
	f.BoolVar(&form.AgreeToTerms, "accept-terms", false, "Accept the terms and conditions")
	return cmd
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !r.app.Session.IsAuthenticated() {
				r.app.Notifications.Info("Not signed in")
				return nil
			}
			name := r.app.Session.DisplayName()
			r.app.Session.Logout(cmd.Context())
			r.app.Notifications.Success("Signed out " + name)
			return nil
		},
	}
}

func (r *runner) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !r.requireSession() {
				return ErrCommandFailed
			}
			u := r.app.Session.User()

			roles := make([]string, 0, len(u.Roles))
			var perms []string
			for _, role := range u.Roles {
				roles = append(roles, role.Name)
				for _, p := range role.Permissions {
					perms = append(perms, p.Name)
				}
			}
			sort.Strings(perms)

			verified := "no"
			if u.IsVerified {
				verified = "yes"
			}
			renderFields(r.out,
				"Name", r.app.Session.DisplayName(),
				"Email", u.Email,
				"Phone", u.Phone,
				"Verified", verified,
				"Roles", strings.Join(roles, ", "),
				"Permissions", strings.Join(perms, ", "),
			)
			return nil
		},
	}
}

func (r *runner) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Trade the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !r.requireSession() {
				return ErrCommandFailed
			}
			if _, err := r.app.Session.RefreshAccessToken(cmd.Context()); err != nil {
				r.app.Notifications.Error(errors.Message(err), services.WithTitle("Session expired"))
				return ErrCommandFailed
			}
			r.app.Notifications.Success("Access token refreshed")
			return nil
		},
	}
}

func (r *runner) profileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	var req dto.UpdateProfileRequest
	update := &cobra.Command{
		Use:   "update",
		Short: "Change name or phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !r.requireSession() {
				return ErrCommandFailed
			}
			if req == (dto.UpdateProfileRequest{}) {
				r.app.Notifications.Warning("Nothing to update")
				return nil
			}
			res := r.app.Session.UpdateProfile(cmd.Context(), req)
			return r.report(res, "Profile updated")
		},
	}
	update.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	update.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	update.Flags().StringVar(&req.Phone, "phone", "", "Phone number")

	profile.AddCommand(update)
	return profile
}

func (r *runner) passwordCmd() *cobra.Command {
	password := &cobra.Command{
		Use:   "password",
		Short: "Change or recover your password",
	}

	var change dto.ChangePasswordRequest
	changeCmd := &cobra.Command{
		Use:   "change",
		Short: "Change the password of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !r.requireSession() {
				return ErrCommandFailed
			}
			if verrs := newPasswordProblems(change.NewPassword, change.ConfirmPassword); verrs != nil {
				return r.invalid(verrs)
			}
			res := r.app.Session.ChangePassword(cmd.Context(), change)
			return r.report(res, "Password changed")
		},
	}
	changeCmd.Flags().StringVar(&change.CurrentPassword, "current", "", "Current password (required)")
	changeCmd.Flags().StringVar(&change.NewPassword, "new", "", "New password (required)")
	changeCmd.Flags().StringVar(&change.ConfirmPassword, "confirm", "", "New password again (required)")
	_ = changeCmd.MarkFlagRequired("current")
	_ = changeCmd.MarkFlagRequired("new")
	_ = changeCmd.MarkFlagRequired("confirm")

	var email string
	forgotCmd := &cobra.Command{
		Use:   "forgot",
		Short: "Email a password reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := r.app.Session.ForgotPassword(cmd.Context(), email)
			return r.report(res, "Reset instructions sent")
		},
	}
	forgotCmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	_ = forgotCmd.MarkFlagRequired("email")

	var reset dto.ResetPasswordRequest
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verrs := newPasswordProblems(reset.Password, reset.ConfirmPassword); verrs != nil {
				return r.invalid(verrs)
			}
			res := r.app.Session.ResetPassword(cmd.Context(), reset)
			return r.report(res, "Password reset")
		},
	}
	resetCmd.Flags().StringVar(&reset.Token, "token", "", "Reset token from the email (required)")
	resetCmd.Flags().StringVar(&reset.Password, "password", "", "New password (required)")
	resetCmd.Flags().StringVar(&reset.ConfirmPassword, "confirm", "", "New password again (required)")
	_ = resetCmd.MarkFlagRequired("token")
	_ = resetCmd.MarkFlagRequired("password")
	_ = resetCmd.MarkFlagRequired("confirm")

	password.AddCommand(changeCmd, forgotCmd, resetCmd)
	return password
}

func (r *runner) verifyEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Confirm your email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := r.app.Session.VerifyEmail(cmd.Context(), args[0])
			return r.report(res, "Email verified")
		},
	}
}

func (r *runner) resendVerificationCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resend-verification",
		Short: "Email a new verification token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" && r.app.Session.IsAuthenticated() {
				email = r.app.Session.User().Email
			}
			if email == "" {
				return r.invalid(fieldProblem("email", "Email is required"))
			}
			res := r.app.Session.ResendVerification(cmd.Context(), email)
			return r.report(res, "Verification email sent")
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (defaults to the signed-in user)")
	return cmd
}

func (r *runner) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := r.app.Health.Health(cmd.Context())
			if err != nil {
				r.app.Notifications.Error(errors.Message(err), services.WithTitle("API unreachable"))
				return ErrCommandFailed
			}

			names := make([]string, 0, len(resp.Checks))
			for name := range resp.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			pairs := []string{"Status", resp.Status}
			for _, name := range names {
				pairs = append(pairs, name, resp.Checks[name])
			}
			renderFields(r.out, pairs...)
			return nil
		},
	}
}

func (r *runner) requireSession() bool {
	if r.app.Session.IsAuthenticated() {
		return true
	}
	r.app.Notifications.Warning("Not signed in. Run 'portal login' first.")
	return false
}

// invalid prints form problems on stderr, one line per field, and fails the
// command. The notification queue is left for operation outcomes.
func (r *runner) invalid(verrs *errors.ValidationErrors) error {
	renderFieldErrors(r.errOut, verrs)
	return ErrCommandFailed
}

func fieldProblem(field, message string) *errors.ValidationErrors {
	verrs := &errors.ValidationErrors{}
	verrs.Add(field, message)
	return verrs
}

func newPasswordProblems(password, confirm string) *errors.ValidationErrors {
	verrs := &errors.ValidationErrors{}
	if msg := validation.PasswordProblem(password); msg != "" {
		verrs.Add("password", msg)
	}
	if password != confirm {
		verrs.Add("confirm_password", "Passwords do not match")
	}
	if !verrs.HasErrors() {
		return nil
	}
	return verrs
}

func fieldLabel(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
