// Package ledger holds the weight-tracking use cases: registration, profile
// projection, weight logging, history and the weekly snapshot pass.
package ledger

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/fitbot/internal/constants"
	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/logger"
	"github.com/julianstephens/fitbot/internal/models"
)

// Store is the subset of storage.Provider the ledger needs.
type Store interface {
	UpsertUser(ctx context.Context, id int64, firstName string, lastName, username *string) (bool, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListAllUsersWithWeight(ctx context.Context) ([]models.UserWeight, error)
	AppendSnapshot(ctx context.Context, userID int64, date string) (bool, error)
	RecordWeight(ctx context.Context, userID int64, date string, weight float64) error
	ListWeightHistory(ctx context.Context, userID int64) ([]models.WeightEntry, error)
}

// Ledger is stateless between calls; the store owns everything durable.
type Ledger struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

type Option func(*Ledger)

// WithClock replaces time.Now, which decides the calendar day of new entries.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New returns a Ledger dating entries in loc. A nil loc means time.Local.
func New(store Store, loc *time.Location, opts ...Option) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	l := &Ledger{store: store, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today is the current calendar day in the ledger's location.
func (l *Ledger) Today() string {
	return l.now().In(l.loc).Format(constants.DateFormat)
}

// Register creates the user with a null weight if absent. The first name is
// stored as given, even when empty; empty optional fields are stored as null.
func (l *Ledger) Register(ctx context.Context, id int64, firstName string, lastName, username *string) (bool, error) {
	created, err := l.store.UpsertUser(ctx, id, firstName, blankToNil(lastName), blankToNil(username))
	if err != nil {
		return false, err
	}
	if created {
		logger.Info("User registered", "user_id", id)
	}
	return created, nil
}

func (l *Ledger) GetProfile(ctx context.Context, id int64) (models.ProfileView, error) {
	u, err := l.store.GetUser(ctx, id)
	if err != nil {
		return models.ProfileView{}, err
	}
	view := models.ProfileView{
		FirstName: u.FirstName,
		LastName:  constants.PlaceholderLastName,
		Username:  constants.PlaceholderNotSet,
		Weight:    constants.PlaceholderNotSet,
	}
	if u.LastName != nil && *u.LastName != "" {
		view.LastName = *u.LastName
	}
	if u.Username != nil && *u.Username != "" {
		view.Username = *u.Username
	}
	if u.Weight != nil {
		view.Weight = FormatWeight(*u.Weight)
	}
	return view, nil
}

// LogWeight parses raw and records it as today's entry and the current
// weight. Malformed input is rejected before the store is touched.
func (l *Ledger) LogWeight(ctx context.Context, id int64, raw string) (float64, error) {
	weight, err := ParseWeight(raw)
	if err != nil {
		return 0, err
	}
	if err := l.store.RecordWeight(ctx, id, l.Today(), weight); err != nil {
		return 0, err
	}
	logger.Debug("Weight logged", "user_id", id, "weight", weight)
	return weight, nil
}

func (l *Ledger) GetHistory(ctx context.Context, id int64) ([]models.WeightEntry, error) {
	entries, err := l.store.ListWeightHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.WeightEntry{}
	}
	return entries, nil
}

// DeleteAccount removes the user and all history. Deleting an unknown user
// succeeds.
func (l *Ledger) DeleteAccount(ctx context.Context, id int64) error {
	if err := l.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	logger.Info("User deleted", "user_id", id)
	return nil
}

// RunWeeklySnapshot appends one snapshot entry per user with a known weight.
// The weight is read by the store at insert time, so a user deleted or
// re-weighed after the list was taken gets no entry or the newer weight.
// A failing user is collected in the result and the pass moves on; the
// returned error is only set when the user list itself cannot be read.
func (l *Ledger) RunWeeklySnapshot(ctx context.Context) (models.SnapshotResult, error) {
	res := models.SnapshotResult{RunID: uuid.New(), Date: l.Today()}
	log := logger.With("run_id", res.RunID.String())

	users, err := l.store.ListAllUsersWithWeight(ctx)
	if err != nil {
		return res, err
	}
	for _, uw := range users {
		written, err := l.store.AppendSnapshot(ctx, uw.UserID, res.Date)
		if err != nil {
			res.Failed = append(res.Failed, models.SnapshotFailure{UserID: uw.UserID, Err: err})
			log.Warn("Snapshot entry failed", "user_id", uw.UserID, "error", err)
			continue
		}
		if !written {
			log.Debug("User gone before snapshot", "user_id", uw.UserID)
			continue
		}
		res.Written++
	}
	log.Info("Weekly snapshot complete", "date", res.Date, "written", res.Written, "failed", len(res.Failed))
	return res, nil
}

// decimalPattern admits plain decimals with an optional exponent. It keeps
// out the hex floats, underscores and inf/nan spellings ParseFloat accepts.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseWeight accepts a positive finite number, with either '.' or ',' as
// the decimal separator.
func ParseWeight(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, apperr.Validation("empty weight")
	}
	s = strings.Replace(s, ",", ".", 1)
	if !decimalPattern.MatchString(s) {
		return 0, apperr.Validation("weight %q is not a number", raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperr.Validation("weight %q is not a number", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, apperr.Validation("weight %q out of range", raw)
	}
	return v, nil
}

// FormatWeight renders the shortest decimal that round-trips: 65.5, 70.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
