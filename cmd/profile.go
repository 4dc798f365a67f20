package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"campusdate/internal/models"
	"campusdate/internal/screens"

	"github.com/spf13/cobra"
)

func newProfileCmd(get func() *app) *cobra.Command {
	var (
		update    models.UserUpdate
		first     string
		last      string
		bio       string
		inst      string
		age       int
		interests []string
		image     string
		refresh   bool
		remove    bool
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "profile [user-id]",
		Short: "Show or edit your profile, or view someone else's",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := a.deps()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				v := screens.NewUserProfileScreen(d, id)
				if err := v.Mount(ctx); err != nil {
					return err
				}
				if u, ok := v.User(); ok {
					renderProfile(a.out, u.Snapshot())
				}
				return nil
			}

			s := screens.NewProfileScreen(d)
			if err := s.Mount(ctx); err != nil {
				return err
			}

			if remove {
				if !yes {
					answer, err := a.prompt("Delete your account permanently? Type \"delete\" to confirm: ")
					if err != nil {
						return err
					}
					if answer != "delete" {
						fmt.Fprintln(a.out, "Account kept.")
						return nil
					}
				}
				return s.DeleteAccount(ctx)
			}

			f := cmd.Flags()
			if f.Changed("first") {
				update.FirstName = &first
			}
			if f.Changed("last") {
				update.LastName = &last
			}
			if f.Changed("bio") {
				update.Bio = &bio
			}
			if f.Changed("institution") {
				update.Institution = &inst
			}
			if f.Changed("age") {
				update.Age = &age
			}
			if f.Changed("interests") {
				update.Interests = interests
			}

			edited := anyChanged(cmd, "first", "last", "bio", "institution", "age", "interests")
			switch {
			case edited:
				if _, err := s.Update(ctx, update); err != nil {
					return err
				}
			case refresh:
				if err := s.Refresh(ctx); err != nil {
					return err
				}
			}

			if image != "" {
				data, err := os.ReadFile(image)
				if err != nil {
					return fmt.Errorf("failed to read image: %w", err)
				}
				if err := s.UploadImage(ctx, filepath.Base(image), data); err != nil {
					return err
				}
			}

			if snap, ok := s.Snapshot(); ok {
				renderProfile(a.out, snap)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&first, "first", "", "new first name")
	f.StringVar(&last, "last", "", "new last name")
	f.StringVar(&bio, "bio", "", "new bio")
	f.StringVar(&inst, "institution", "", "new institution")
	f.IntVar(&age, "age", 0, "new age")
	f.StringSliceVar(&interests, "interests", nil, "comma separated interests")
	f.StringVar(&image, "image", "", "path of a new profile picture")
	f.BoolVar(&refresh, "refresh", false, "re-fetch the profile from the server")
	f.BoolVar(&remove, "delete", false, "delete your account")
	f.BoolVarP(&yes, "yes", "y", false, "skip the delete confirmation")
	return cmd
}

func newPrefsCmd(get func() *app) *cobra.Command {
	var (
		pref  models.Preference
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or save your discovery preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := a.deps()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s := screens.NewPreferencesScreen(d)
			if err := s.Mount(ctx); err != nil {
				return err
			}

			if reset {
				if err := s.Reset(ctx); err != nil {
					return err
				}
			}

			if anyChanged(cmd, prefFlags...) {
				// unset flags keep the stored values
				if cur, ok := s.Preference(); ok {
					mergePreference(cmd, &pref, cur)
				}
				if _, err := s.Save(ctx, pref); err != nil {
					return err
				}
			}

			cur, ok := s.Preference()
			if !ok {
				fmt.Fprintln(a.out, "No preferences saved yet.")
				return nil
			}
			renderPreference(a.out, cur)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&pref.MinAge, "min-age", 0, "minimum age")
	f.IntVar(&pref.MaxAge, "max-age", 0, "maximum age")
	f.StringVar(&pref.PreferredGender, "gender", "", "preferred gender")
	f.StringVar(&pref.RelationshipType, "relationship", "", "relationship type")
	f.StringSliceVar(&pref.PreferredInterests, "interests", nil, "comma separated interests")
	f.StringSliceVar(&pref.PreferredCourses, "courses", nil, "comma separated courses")
	f.IntVar(&pref.MaxDistance, "max-distance", 0, "maximum distance in km")
	f.BoolVar(&pref.SmokingPreference, "smoking", false, "smoking is fine")
	f.BoolVar(&pref.DrinkingPreference, "drinking", false, "drinking is fine")
	f.BoolVar(&reset, "reset", false, "delete the stored preferences first")
	return cmd
}

var prefFlags = []string{
	"min-age", "max-age", "gender", "relationship", "interests",
	"courses", "max-distance", "smoking", "drinking",
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

func mergePreference(cmd *cobra.Command, p *models.Preference, cur models.Preference) {
	f := cmd.Flags()
	if !f.Changed("min-age") {
		p.MinAge = cur.MinAge
	}
	if !f.Changed("max-age") {
		p.MaxAge = cur.MaxAge
	}
	if !f.Changed("gender") {
		p.PreferredGender = cur.PreferredGender
	}
	if !f.Changed("relationship") {
		p.RelationshipType = cur.RelationshipType
	}
	if !f.Changed("interests") {
		p.PreferredInterests = cur.PreferredInterests
	}
	if !f.Changed("courses") {
		p.PreferredCourses = cur.PreferredCourses
	}
	if !f.Changed("max-distance") {
		p.MaxDistance = cur.MaxDistance
	}
	if !f.Changed("smoking") {
		p.SmokingPreference = cur.SmokingPreference
	}
	if !f.Changed("drinking") {
		p.DrinkingPreference = cur.DrinkingPreference
	}
}
