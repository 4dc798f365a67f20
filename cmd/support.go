package cmd

import (
	"fmt"
	"strconv"

	"campusdate/internal/models"
	"campusdate/internal/screens"

	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newTicketsCmd(get func() *app) *cobra.Command {
	var watching, all bool

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List your support tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if all {
				return withTickets(cmd, a, func(s *screens.TicketsScreen) error {
					tickets, err := s.All(cmd.Context())
					if err == nil {
						renderTickets(a.out, tickets)
					}
					return err
				})
			}
			d, err := screenDeps(cmd.Context(), a, watching)
			if err != nil {
				return err
			}
			s := screens.NewTicketsScreen(d)
			return show(cmd.Context(), a, s, watching, a.cfg.Poll.Tickets, func() {
				renderTickets(a.out, s.Tickets())
			})
		},
	}
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "keep refreshing")
	cmd.Flags().BoolVar(&all, "all", false, "list every ticket, not only yours")
	cmd.AddCommand(
		newTicketCreateCmd(get),
		newTicketShowCmd(get),
		newTicketEditCmd(get),
		newTicketRemoveCmd(get),
	)
	return cmd
}

// withTickets mounts a tickets screen and runs fn against it
func withTickets(cmd *cobra.Command, a *app, fn func(*screens.TicketsScreen) error) error {
	d, err := a.deps()
	if err != nil {
		return err
	}
	s := screens.NewTicketsScreen(d)
	if err := s.Mount(cmd.Context()); err != nil {
		return err
	}
	defer s.Unmount()
	return fn(s)
}

func newTicketShowCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a := get()
			return withTickets(cmd, a, func(s *screens.TicketsScreen) error {
				t, err := s.Ticket(cmd.Context(), id)
				if err != nil {
					return err
				}
				renderTicket(a.out, *t)
				return nil
			})
		},
	}
}

func newTicketEditCmd(get func() *app) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the description of a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a := get()
			return withTickets(cmd, a, func(s *screens.TicketsScreen) error {
				t, err := s.Edit(cmd.Context(), id, description)
				if err != nil {
					return err
				}
				renderTicket(a.out, *t)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func newTicketRemoveCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Withdraw a ticket",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a := get()
			return withTickets(cmd, a, func(s *screens.TicketsScreen) error {
				if err := s.Delete(cmd.Context(), id); err != nil {
					return err
				}
				renderTickets(a.out, s.Tickets())
				return nil
			})
		},
	}
}

func newTicketCreateCmd(get func() *app) *cobra.Command {
	var issueType, description string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Report an issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := a.deps()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s := screens.NewTicketsScreen(d)
			if err := s.Mount(ctx); err != nil {
				return err
			}
			defer s.Unmount()

			if description == "" {
				if description, err = a.prompt("Describe the issue: "); err != nil {
					return err
				}
			}
			if _, err := s.Create(ctx, issueType, description); err != nil {
				return err
			}
			renderTickets(a.out, s.Tickets())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&issueType, "type", "t", models.IssueBugReport, "BUG_REPORT, USER_REPORT, FEEDBACK or OTHER")
	f.StringVarP(&description, "description", "d", "", "what went wrong")
	return cmd
}

func newContactsCmd(get func() *app) *cobra.Command {
	var watching bool

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage emergency contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := screenDeps(cmd.Context(), a, watching)
			if err != nil {
				return err
			}
			s := screens.NewContactsScreen(d)
			return show(cmd.Context(), a, s, watching, a.cfg.Poll.Contacts, func() {
				renderContacts(a.out, s.Contacts())
			})
		},
	}
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "keep refreshing")
	cmd.AddCommand(
		newContactAddCmd(get),
		newContactUpdateCmd(get),
		newContactRemoveCmd(get),
	)
	return cmd
}

// withContacts mounts a contacts screen, runs fn, then prints the list
func withContacts(cmd *cobra.Command, a *app, fn func(*screens.ContactsScreen) error) error {
	d, err := a.deps()
	if err != nil {
		return err
	}
	s := screens.NewContactsScreen(d)
	if err := s.Mount(cmd.Context()); err != nil {
		return err
	}
	defer s.Unmount()

	if err := fn(s); err != nil {
		return err
	}
	renderContacts(a.out, s.Contacts())
	return nil
}

func newContactAddCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <phone>",
		Short: "Add an emergency contact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContacts(cmd, get(), func(s *screens.ContactsScreen) error {
				_, err := s.Add(cmd.Context(), args[0], args[1])
				return err
			})
		},
	}
}

func newContactUpdateCmd(get func() *app) *cobra.Command {
	var name, phone string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an emergency contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withContacts(cmd, get(), func(s *screens.ContactsScreen) error {
				c := models.EmergencyContact{ContactID: id}
				for _, existing := range s.Contacts() {
					if existing.ContactID == id {
						c = existing
						break
					}
				}
				if cmd.Flags().Changed("name") {
					c.Name = name
				}
				if cmd.Flags().Changed("phone") {
					c.PhoneNumber = phone
				}
				_, err := s.Update(cmd.Context(), c)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone number")
	return cmd
}

func newContactRemoveCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Remove an emergency contact",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withContacts(cmd, get(), func(s *screens.ContactsScreen) error {
				return s.Delete(cmd.Context(), id)
			})
		},
	}
}

func newAlertCmd(get func() *app) *cobra.Command {
	var (
		message  string
		lat, lon float64
		history  bool
	)

	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Send an emergency alert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := a.deps()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s := screens.NewEmergencyScreen(d)
			if err := s.Mount(ctx); err != nil {
				return err
			}
			defer s.Unmount()

			if !history {
				var loc *models.GeoLocation
				if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
					loc = &models.GeoLocation{Latitude: lat, Longitude: lon}
				}
				if _, err := s.SendAlert(ctx, message, loc); err != nil {
					return err
				}
			}
			renderAlerts(a.out, s.History())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&message, "message", "m", "", "alert message")
	f.Float64Var(&lat, "lat", 0, "latitude")
	f.Float64Var(&lon, "lon", 0, "longitude")
	f.BoolVar(&history, "history", false, "only list sent alerts")
	return cmd
}
