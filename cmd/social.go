package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campusdate/internal/screens"

	"github.com/spf13/cobra"
)

// mountable is a polling screen as seen by the command line
type mountable interface {
	Mount(ctx context.Context) error
	Unmount()
}

// show mounts s, renders once or keeps rendering in watch mode, and unmounts
func show(ctx context.Context, a *app, s mountable, watching bool, interval time.Duration, render func()) error {
	if err := s.Mount(ctx); err != nil {
		return err
	}
	defer s.Unmount()

	if !watching {
		render()
		return nil
	}
	return watch(ctx, interval, func() {
		clearScreen(a.out)
		render()
	})
}

// screenDeps picks realtime-backed deps in watch mode
func screenDeps(ctx context.Context, a *app, watching bool) (screens.Deps, error) {
	if watching {
		return a.watchDeps(ctx)
	}
	return a.deps()
}

func newChatsCmd(get func() *app) *cobra.Command {
	var watching bool

	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List your chats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := screenDeps(cmd.Context(), a, watching)
			if err != nil {
				return err
			}
			s := screens.NewChatsScreen(d)
			return show(cmd.Context(), a, s, watching, a.cfg.Poll.Chats, func() {
				renderChats(a.out, s.Chats())
			})
		},
	}
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "keep refreshing")
	return cmd
}

func newChatCmd(get func() *app) *cobra.Command {
	var (
		matchID  int64
		send     string
		watching bool
	)

	cmd := &cobra.Command{
		Use:   "chat <chat-id>",
		Short: "Read or send messages in a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || chatID <= 0 {
				return fmt.Errorf("invalid chat id %q", args[0])
			}

			a := get()
			ctx := cmd.Context()
			d, err := screenDeps(ctx, a, watching)
			if err != nil {
				return err
			}

			s := screens.NewChatScreen(d, chatID, matchID)
			if err := s.Mount(ctx); err != nil {
				return err
			}
			defer s.Unmount()

			if send != "" {
				if _, err := s.Send(ctx, send); err != nil {
					return err
				}
			}

			selfID, _ := a.session.UserID(ctx)
			render := func() { renderMessages(a.out, s.Header(), selfID, s.Messages()) }
			if !watching {
				render()
				return nil
			}
			return watch(ctx, a.cfg.Poll.Messages, func() {
				clearScreen(a.out)
				render()
			})
		},
	}
	f := cmd.Flags()
	f.Int64Var(&matchID, "match", 0, "match id, used to show who the chat is with")
	f.StringVarP(&send, "send", "s", "", "send a message before showing the chat")
	f.BoolVarP(&watching, "watch", "w", false, "keep refreshing")
	return cmd
}

func newMatchesCmd(get func() *app) *cobra.Command {
	var watching bool

	cmd := &cobra.Command{
		Use:   "matches",
		Short: "List your matches and who liked you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := screenDeps(cmd.Context(), a, watching)
			if err != nil {
				return err
			}
			s := screens.NewMatchesScreen(d)
			return show(cmd.Context(), a, s, watching, a.cfg.Poll.Matches, func() {
				renderCards(a.out, "Matches", s.Matches())
				renderCards(a.out, "Liked you", s.LikedBy())
			})
		},
	}
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "keep refreshing")
	cmd.AddCommand(newMatchChatCmd(get))
	return cmd
}

func newMatchChatCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <match-id>",
		Short: "Open the chat of a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID, err := parseID(args[0])
			if err != nil {
				return err
			}
			a := get()
			d, err := a.deps()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s := screens.NewMatchesScreen(d)
			if err := s.Mount(ctx); err != nil {
				return err
			}
			defer s.Unmount()

			chat, err := s.OpenChat(ctx, matchID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Chat %d is open. Run `campusdate chat %d --match %d`.\n", chat.ChatID, chat.ChatID, matchID)
			return nil
		},
	}
}

func newFeedUnlikeCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlike <user-id>",
		Short: "Withdraw a like",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0])
			if err != nil {
				return err
			}
			a := get()
			d, err := a.deps()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s := screens.NewFeedScreen(d)
			if err := s.Mount(ctx); err != nil {
				return err
			}
			defer s.Unmount()
			return s.Unlike(ctx, userID)
		},
	}
}

func newFeedCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Swipe through candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			d, err := a.deps()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s := screens.NewFeedScreen(d)
			if err := s.Mount(ctx); err != nil {
				return err
			}
			defer s.Unmount()

			for {
				u, ok := s.Current()
				if !ok {
					fmt.Fprintln(a.out, "No more candidates. Check back later.")
					return nil
				}
				renderCandidate(a.out, u, s.Remaining())

				choice, err := a.prompt("[l]ike, [d]ismiss, [q]uit: ")
				if err != nil {
					return err
				}
				switch strings.ToLower(choice) {
				case "l", "like":
					if _, err := s.Like(ctx); err != nil && !errors.Is(err, screens.ErrNoCandidate) {
						return err
					}
				case "d", "dismiss":
					s.Dismiss()
				case "q", "quit":
					return nil
				}
			}
		},
	}
	cmd.AddCommand(newFeedUnlikeCmd(get))
	return cmd
}
