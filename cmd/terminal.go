package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"campusdate/internal/models"
	"campusdate/internal/screens"

	"github.com/dustin/go-humanize"
)

// terminalNav turns route changes into hints about which command to run
type terminalNav struct {
	out io.Writer
}

func (n terminalNav) Replace(route string) { n.show(route) }
func (n terminalNav) Push(route string)    { n.show(route) }

func (n terminalNav) show(route string) {
	switch route {
	case screens.RouteLogin:
		fmt.Fprintln(n.out, "You are not logged in. Run `campusdate login` first.")
	case screens.RouteSignup:
		fmt.Fprintln(n.out, "Run `campusdate signup` to create an account.")
	case screens.RouteProfile:
		fmt.Fprintln(n.out, "Run `campusdate profile` to see your profile.")
	}
}

// terminalAlerts prints alerts inline
type terminalAlerts struct {
	out io.Writer
}

func (a terminalAlerts) Alert(title, message string) {
	if message == "" {
		fmt.Fprintf(a.out, "[%s]\n", title)
		return
	}
	fmt.Fprintf(a.out, "[%s] %s\n", title, message)
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func clearScreen(out io.Writer) {
	fmt.Fprint(out, "\033[H\033[2J")
}

func renderProfile(out io.Writer, u models.UserSnapshot) {
	w := newTable(out)
	fmt.Fprintf(w, "ID\t%d\n", u.UserID)
	fmt.Fprintf(w, "Name\t%s %s\n", u.FirstName, u.LastName)
	fmt.Fprintf(w, "Username\t%s\n", u.Username)
	fmt.Fprintf(w, "Email\t%s\n", u.Email)
	if u.Age > 0 {
		fmt.Fprintf(w, "Age\t%d\n", u.Age)
	}
	if u.Institution != "" {
		fmt.Fprintf(w, "Institution\t%s\n", u.Institution)
	}
	if u.Bio != "" {
		fmt.Fprintf(w, "Bio\t%s\n", u.Bio)
	}
	if len(u.Interests) > 0 {
		fmt.Fprintf(w, "Interests\t%s\n", strings.Join(u.Interests, ", "))
	}
	if u.Image != nil && u.Image.Base64String != "" {
		fmt.Fprintf(w, "Image\t%s encoded\n", humanize.Bytes(uint64(len(u.Image.Base64String))))
	}
	w.Flush()
}

func renderChats(out io.Writer, chats []screens.ChatSummary) {
	if len(chats) == 0 {
		fmt.Fprintln(out, "No chats yet.")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "CHAT\tMATCH\tWITH\tLAST MESSAGE\tWHEN")
	for _, c := range chats {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", c.ChatID, c.MatchID, c.Name, c.Preview(), ago(c.LastSentAt))
	}
	w.Flush()
}

func renderMessages(out io.Writer, header string, selfID int64, msgs []models.Message) {
	if header != "" {
		fmt.Fprintf(out, "Chat with %s\n\n", header)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No messages yet.")
		return
	}
	for _, m := range msgs {
		who := header
		if m.SenderID == selfID {
			who = "You"
		}
		fmt.Fprintf(out, "%s (%s): %s\n", who, ago(m.SentAt), m.Content)
	}
}

func renderCards(out io.Writer, title string, cards []screens.Card) {
	fmt.Fprintf(out, "%s (%d)\n", title, len(cards))
	for _, c := range cards {
		fmt.Fprintf(out, "  #%d  %s\n", c.OtherUserID, c.Name)
	}
}

func renderCandidate(out io.Writer, u models.User, remaining int) {
	fmt.Fprintf(out, "\n%s", u.FullName())
	if u.Age > 0 {
		fmt.Fprintf(out, ", %d", u.Age)
	}
	fmt.Fprintln(out)
	if u.Institution != "" {
		fmt.Fprintln(out, u.Institution)
	}
	if u.Bio != "" {
		fmt.Fprintln(out, u.Bio)
	}
	if len(u.Interests) > 0 {
		fmt.Fprintln(out, "Into:", strings.Join(u.Interests, ", "))
	}
	fmt.Fprintf(out, "(%d left)\n", remaining)
}

func renderTickets(out io.Writer, tickets []models.Ticket) {
	if len(tickets) == 0 {
		fmt.Fprintln(out, "No tickets.")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tCREATED\tDESCRIPTION")
	for _, t := range tickets {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.TicketID, t.IssueType, t.StatusOrPending(), ago(t.CreatedAt), t.Description)
	}
	w.Flush()
}

func renderTicket(out io.Writer, t models.Ticket) {
	w := newTable(out)
	fmt.Fprintf(w, "Ticket\t%d\n", t.TicketID)
	fmt.Fprintf(w, "Type\t%s\n", t.IssueType)
	fmt.Fprintf(w, "Status\t%s\n", t.StatusOrPending())
	fmt.Fprintf(w, "Created\t%s\n", ago(t.CreatedAt))
	fmt.Fprintf(w, "Updated\t%s\n", ago(t.UpdatedAt))
	if t.ResolvedAt != nil {
		fmt.Fprintf(w, "Resolved\t%s\n", ago(*t.ResolvedAt))
	}
	fmt.Fprintf(w, "Description\t%s\n", t.Description)
	w.Flush()
}

func renderContacts(out io.Writer, contacts []models.EmergencyContact) {
	if len(contacts) == 0 {
		fmt.Fprintln(out, "No emergency contacts.")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tPHONE")
	for _, c := range contacts {
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.ContactID, c.Name, c.PhoneNumber)
	}
	w.Flush()
}

func renderAlerts(out io.Writer, alerts []models.EmergencyAlert) {
	if len(alerts) == 0 {
		fmt.Fprintln(out, "No alerts sent.")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tSTATUS\tSENT\tMESSAGE")
	for _, a := range alerts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.AlertID, a.Status, ago(a.CreatedAt), a.Message)
	}
	w.Flush()
}

func renderPreference(out io.Writer, p models.Preference) {
	w := newTable(out)
	fmt.Fprintf(w, "Ages\t%d-%d\n", p.MinAge, p.MaxAge)
	fmt.Fprintf(w, "Gender\t%s\n", p.PreferredGender)
	fmt.Fprintf(w, "Relationship\t%s\n", p.RelationshipType)
	fmt.Fprintf(w, "Interests\t%s\n", strings.Join(p.PreferredInterests, ", "))
	fmt.Fprintf(w, "Courses\t%s\n", strings.Join(p.PreferredCourses, ", "))
	fmt.Fprintf(w, "Max distance\t%s km\n", humanize.Comma(int64(p.MaxDistance)))
	fmt.Fprintf(w, "Smoking / drinking\t%t / %t\n", p.SmokingPreference, p.DrinkingPreference)
	w.Flush()
}
