package cli

import (
	"context"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/fitbot/internal/constants"
	"github.com/julianstephens/fitbot/internal/ledger"
	"github.com/julianstephens/fitbot/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func usersTable(users []models.User) *table.Table {
	t := newTable("ID", "First name", "Last name", "Username", "Weight ("+constants.WeightUnit+")")
	for _, u := range users {
		weight := "-"
		if u.Weight != nil {
			weight = ledger.FormatWeight(*u.Weight)
		}
		t.Row(strconv.FormatInt(u.ID, 10), u.FirstName, orDash(u.LastName), orDash(u.Username), weight)
	}
	return t
}

func historyTable(entries []models.WeightEntry) *table.Table {
	t := newTable("Date", "Weight ("+constants.WeightUnit+")", "Source")
	for _, e := range entries {
		t.Row(e.Date, ledger.FormatWeight(e.Weight), e.Source)
	}
	return t
}

type UsersCmd struct{}

func (c *UsersCmd) Run(ctx *Context) error {
	bg := context.Background()
	if err := ctx.load(bg); err != nil {
		return err
	}
	defer ctx.Store.Close()

	users, err := ctx.Store.ListUsers(bg)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		ctx.println("No users registered")
		return nil
	}
	ctx.println(usersTable(users).String())
	return nil
}

type HistoryCmd struct {
	UserID string `arg:"" help:"Telegram user id."`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	id, err := parseUserID(c.UserID)
	if err != nil {
		return err
	}
	bg := context.Background()
	if err := ctx.load(bg); err != nil {
		return err
	}
	defer ctx.Store.Close()

	l, err := ctx.ledger()
	if err != nil {
		return err
	}
	entries, err := l.GetHistory(bg, id)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ctx.println(constants.MsgHistoryEmpty)
		return nil
	}
	ctx.println(historyTable(entries).String())
	return nil
}
