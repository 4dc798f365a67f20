package cmd

import (
	"fmt"

	"campusdate/internal/models"
	"campusdate/internal/screens"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newLoginCmd(get func() *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [email-or-username]",
		Short: "Sign in and store the session locally",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := a.deps()
			if err != nil {
				return err
			}

			var identifier string
			if len(args) == 1 {
				identifier = args[0]
			} else if identifier, err = a.prompt("Email or username: "); err != nil {
				return err
			}
			if password == "" {
				if password, err = a.prompt("Password: "); err != nil {
					return err
				}
			}

			_, err = screens.NewLoginScreen(d).Login(cmd.Context(), identifier, password)
			return err
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when empty)")
	return cmd
}

func newSignupCmd(get func() *app) *cobra.Command {
	var req models.SignupRequest

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := a.deps()
			if err != nil {
				return err
			}
			if req.Password == "" {
				if req.Password, err = a.prompt("Password: "); err != nil {
					return err
				}
			}
			_, err = screens.NewSignupScreen(d).Signup(cmd.Context(), req)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Username, "username", "", "username")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.FirstName, "first", "", "first name")
	f.StringVar(&req.LastName, "last", "", "last name")
	f.IntVar(&req.Age, "age", 0, "age")
	f.StringVarP(&req.Password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			a.session.ClearSession(cmd.Context())
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			sess, ok := a.session.GetSession(cmd.Context())
			if !ok {
				terminalNav{out: a.out}.Replace(screens.RouteLogin)
				return screens.ErrNoSession
			}

			fmt.Fprintf(a.out, "%s (@%s, id %d)\n", sess.User.FirstName+" "+sess.User.LastName, sess.User.Username, sess.User.UserID)
			if exp, ok := a.session.ExpiresAt(cmd.Context()); ok {
				fmt.Fprintf(a.out, "Session expires %s\n", humanize.Time(exp))
			}
			return nil
		},
	}
}
