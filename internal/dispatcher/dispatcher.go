// Package dispatcher maps chat events to ledger operations and renders the
// replies. Its only state is the per-user session, so a reply is a function
// of (session state, event).
package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/fitbot/internal/constants"
	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/ledger"
	"github.com/julianstephens/fitbot/internal/logger"
	"github.com/julianstephens/fitbot/internal/models"
	"github.com/julianstephens/fitbot/internal/session"
)

// Ledger is the set of use cases the dispatcher drives.
type Ledger interface {
	Register(ctx context.Context, id int64, firstName string, lastName, username *string) (bool, error)
	GetProfile(ctx context.Context, id int64) (models.ProfileView, error)
	LogWeight(ctx context.Context, id int64, raw string) (float64, error)
	GetHistory(ctx context.Context, id int64) ([]models.WeightEntry, error)
	DeleteAccount(ctx context.Context, id int64) error
}

var _ Ledger = (*ledger.Ledger)(nil)

// MainMenu is the keyboard shown after /start.
var MainMenu = []Button{
	{Label: constants.LabelWorkout1, Data: constants.CallbackWorkout1},
	{Label: constants.LabelWorkout2, Data: constants.CallbackWorkout2},
	{Label: constants.LabelWorkout3, Data: constants.CallbackWorkout3},
	{Label: constants.LabelLogWeight, Data: constants.CallbackLogWeight},
	{Label: constants.LabelViewHistory, Data: constants.CallbackViewHistory},
	{Label: constants.LabelProfile, Data: constants.CallbackProfile},
}

type Dispatcher struct {
	ledger   Ledger
	sessions session.Store
	// users serialises events of one user, so a session read and the write
	// that follows it are not interleaved with another event's.
	users *userLocks
}

func New(l Ledger, sessions session.Store) *Dispatcher {
	if sessions == nil {
		sessions = session.NewMemory()
	}
	return &Dispatcher{ledger: l, sessions: sessions, users: newUserLocks()}
}

// Handle processes ev and returns the replies to send, in order. It never
// returns internal error detail to the user. Events of the same user are
// handled one at a time; different users proceed in parallel.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) []Reply {
	if ev == nil {
		return nil
	}
	unlock := d.users.lock(ev.From())
	defer unlock()

	switch e := ev.(type) {
	case Command:
		return d.handleCommand(ctx, e)
	case CallbackPress:
		return d.handleCallback(ctx, e)
	case FreeText:
		return d.handleText(ctx, e)
	default:
		logger.Warn("Unhandled event type", "type", fmt.Sprintf("%T", ev))
		return nil
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, c Command) []Reply {
	switch strings.ToLower(c.Name) {
	case constants.CommandStart:
		created, err := d.ledger.Register(ctx, c.UserID, c.User.FirstName,
			models.StringPtr(c.User.LastName), models.StringPtr(c.User.Username))
		if err != nil {
			return d.fail(c, err)
		}
		greeting := constants.MsgRegisteredAgain
		if created {
			greeting = constants.MsgRegisteredNew
		}
		return []Reply{
			TextReply{Text: fmt.Sprintf(greeting, c.User.FirstName)},
			MenuReply{Text: constants.MsgWelcome, Buttons: MainMenu},
		}

	case constants.CommandStatus:
		view, err := d.ledger.GetProfile(ctx, c.UserID)
		if apperr.IsNotFound(err) {
			return text(constants.MsgNotRegistered)
		}
		if err != nil {
			return d.fail(c, err)
		}
		return text(fmt.Sprintf(constants.MsgStatusTemplate, view.FirstName, view.LastName, view.Username, view.Weight))

	case constants.CommandDelete:
		d.sessions.Clear(ctx, c.UserID)
		if err := d.ledger.DeleteAccount(ctx, c.UserID); err != nil {
			return d.fail(c, err)
		}
		return text(constants.MsgDeleted)

	case constants.CommandHelp:
		return text(constants.MsgCommandMenu)

	default:
		return text(constants.MsgUnknownCommand)
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb CallbackPress) []Reply {
	switch cb.Data {
	case constants.CallbackWorkout1, constants.CallbackWorkout2, constants.CallbackWorkout3:
		return []Reply{EditReply{Text: fmt.Sprintf(constants.MsgWorkoutVideo, cb.Data)}}

	case constants.CallbackLogWeight:
		if _, err := d.ledger.GetProfile(ctx, cb.UserID); err != nil {
			if apperr.IsNotFound(err) {
				return text(constants.MsgNotRegistered)
			}
			return d.fail(cb, err)
		}
		d.sessions.Set(ctx, cb.UserID, session.AwaitingWeight)
		return text(constants.MsgAskWeight)

	case constants.CallbackViewHistory:
		entries, err := d.ledger.GetHistory(ctx, cb.UserID)
		if err != nil {
			return d.fail(cb, err)
		}
		return text(RenderHistory(entries))

	case constants.CallbackProfile:
		view, err := d.ledger.GetProfile(ctx, cb.UserID)
		if apperr.IsNotFound(err) {
			return text(constants.MsgProfileNotFound)
		}
		if err != nil {
			return d.fail(cb, err)
		}
		return text(fmt.Sprintf(constants.MsgProfileTemplate, view.FirstName, view.LastName, view.Username, view.Weight) +
			constants.MsgCommandMenu)

	default:
		logger.Debug("Unknown callback data", "user_id", cb.UserID, "event_id", cb.ID, "data", cb.Data)
		return text(constants.MsgUnknownButton)
	}
}

func (d *Dispatcher) handleText(ctx context.Context, ft FreeText) []Reply {
	if d.sessions.Get(ctx, ft.UserID) != session.AwaitingWeight {
		return text(constants.MsgPressLogWeight)
	}

	_, err := d.ledger.LogWeight(ctx, ft.UserID, ft.Text)
	switch {
	case err == nil:
		d.sessions.Set(ctx, ft.UserID, session.Idle)
		return text(constants.MsgWeightSaved)
	case apperr.IsValidation(err):
		// Still awaiting a value.
		return text(constants.MsgWeightInvalid)
	case apperr.IsNotFound(err):
		d.sessions.Set(ctx, ft.UserID, session.Idle)
		return text(constants.MsgNotRegistered)
	default:
		return d.fail(ft, err)
	}
}

// fail maps an error to a fixed reply. Weight validation is handled where it
// can occur, so anything else reaching here is logged.
func (d *Dispatcher) fail(ev Event, err error) []Reply {
	if apperr.IsNotFound(err) {
		return text(constants.MsgNotRegistered)
	}
	logger.Error("Event handling failed", "user_id", ev.From(), "event_id", ev.EventID(), "error", err)
	return text(constants.MsgInternalError)
}

// RenderHistory renders entries newest first as "date: weight кг" lines under
// a header.
func RenderHistory(entries []models.WeightEntry) string {
	var b strings.Builder
	b.WriteString(constants.MsgHistoryHeader)
	b.WriteString("\n")
	if len(entries) == 0 {
		b.WriteString(constants.MsgHistoryEmpty)
		return b.String()
	}
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s %s", e.Date, ledger.FormatWeight(e.Weight), constants.WeightUnit)
	}
	return b.String()
}

func text(s string) []Reply {
	return []Reply{TextReply{Text: s}}
}
