package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/fitbot/internal/constants"
	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/ledger"
	"github.com/julianstephens/fitbot/internal/models"
	"github.com/julianstephens/fitbot/internal/session"
	"github.com/julianstephens/fitbot/internal/storage/memory"
)

var testNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

type harness struct {
	d        *Dispatcher
	db       *memory.DB
	sessions *session.Memory
}

func newHarness() *harness {
	db := memory.New()
	l := ledger.New(db, time.UTC, ledger.WithClock(func() time.Time { return testNow }))
	sessions := session.NewMemory()
	return &harness{d: New(l, sessions), db: db, sessions: sessions}
}

func (h *harness) send(ev Event) []Reply {
	return h.d.Handle(context.Background(), ev)
}

func start(id int64, first string) Command {
	return Command{ID: "ev", Name: "start", UserID: id, RawText: "/start", User: Profile{FirstName: first}}
}

func press(id int64, data string) CallbackPress {
	return CallbackPress{ID: "ev", UserID: id, Data: data}
}

func say(id int64, s string) FreeText {
	return FreeText{ID: "ev", UserID: id, Text: s}
}

func onlyText(t *testing.T, replies []Reply) string {
	t.Helper()
	if len(replies) != 1 {
		t.Fatalf("replies = %#v, want one", replies)
	}
	r, ok := replies[0].(TextReply)
	if !ok {
		t.Fatalf("reply = %#v, want TextReply", replies[0])
	}
	return r.Text
}

func TestStartRegistersAndShowsMenu(t *testing.T) {
	h := newHarness()
	replies := h.send(start(1, "Ann"))
	if len(replies) != 2 {
		t.Fatalf("replies = %#v, want greeting and menu", replies)
	}
	if got := replies[0].(TextReply).Text; got != "Вы успешно зарегистрированы! Привет, Ann!" {
		t.Errorf("greeting = %q", got)
	}
	menu, ok := replies[1].(MenuReply)
	if !ok {
		t.Fatalf("second reply = %#v, want MenuReply", replies[1])
	}
	if menu.Text != constants.MsgWelcome || len(menu.Buttons) != 6 {
		t.Errorf("menu = %+v", menu)
	}
	wantData := []string{"1", "2", "3", "log_weight", "view_weight_history", "profile"}
	for i, b := range menu.Buttons {
		if b.Data != wantData[i] {
			t.Errorf("button %d data = %q, want %q", i, b.Data, wantData[i])
		}
	}

	replies = h.send(start(1, "Changed"))
	if got := replies[0].(TextReply).Text; got != fmt.Sprintf(constants.MsgRegisteredAgain, "Changed") {
		t.Errorf("returning greeting = %q", got)
	}
	u, _ := h.db.GetUser(context.Background(), 1)
	if u.FirstName != "Ann" {
		t.Errorf("re-registration overwrote first name: %q", u.FirstName)
	}
}

func TestStartWithBlankFirstName(t *testing.T) {
	h := newHarness()
	replies := h.send(start(5, ""))
	if len(replies) != 2 {
		t.Fatalf("replies = %#v, want greeting and menu", replies)
	}
	if got := replies[0].(TextReply).Text; got != fmt.Sprintf(constants.MsgRegisteredNew, "") {
		t.Errorf("greeting = %q", got)
	}
	if _, err := h.db.GetUser(context.Background(), 5); err != nil {
		t.Errorf("GetUser: %v", err)
	}
}

func TestScenarioLogAndViewHistory(t *testing.T) {
	h := newHarness()
	h.send(start(1, "Ann"))

	if got := onlyText(t, h.send(press(1, constants.CallbackLogWeight))); got != constants.MsgAskWeight {
		t.Fatalf("log_weight reply = %q", got)
	}
	if got := onlyText(t, h.send(say(1, "65.5"))); got != constants.MsgWeightSaved {
		t.Fatalf("weight reply = %q", got)
	}
	got := onlyText(t, h.send(press(1, constants.CallbackViewHistory)))
	want := "История веса:\n2024-03-04: 65.5 кг"
	if got != want {
		t.Errorf("history = %q, want %q", got, want)
	}
	if h.sessions.Get(context.Background(), 1) != session.Idle {
		t.Error("session not back to Idle after a logged weight")
	}
}

func TestScenarioUnregisteredStatus(t *testing.T) {
	h := newHarness()
	if got := onlyText(t, h.send(Command{Name: "status", UserID: 2})); got != constants.MsgNotRegistered {
		t.Errorf("status reply = %q", got)
	}
	if _, err := h.db.GetUser(context.Background(), 2); !apperr.IsNotFound(err) {
		t.Errorf("status created a row: %v", err)
	}
}

func TestStatusAndProfile(t *testing.T) {
	h := newHarness()
	h.send(Command{Name: "start", UserID: 1, User: Profile{FirstName: "Ann", Username: "ann"}})

	status := onlyText(t, h.send(Command{Name: "status", UserID: 1}))
	wantStatus := "Вы зарегистрированы!\nИмя: Ann\nФамилия: Не указана\nИмя пользователя: ann\nТекущий вес: Не указан кг"
	if status != wantStatus {
		t.Errorf("status = %q, want %q", status, wantStatus)
	}

	h.send(press(1, constants.CallbackLogWeight))
	h.send(say(1, "70"))
	profile := onlyText(t, h.send(press(1, constants.CallbackProfile)))
	if !strings.HasPrefix(profile, "Ваш профиль:\n\nИмя: Ann\n") {
		t.Errorf("profile = %q", profile)
	}
	if !strings.Contains(profile, "Текущий вес: 70 кг\n\n") || !strings.HasSuffix(profile, constants.MsgCommandMenu) {
		t.Errorf("profile = %q", profile)
	}

	if got := onlyText(t, h.send(press(9, constants.CallbackProfile))); got != constants.MsgProfileNotFound {
		t.Errorf("unregistered profile = %q", got)
	}
}

func TestInvalidWeightKeepsAwaiting(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.send(start(1, "Ann"))
	h.send(press(1, constants.CallbackLogWeight))

	for _, bad := range []string{"abc", "", "-1"} {
		if got := onlyText(t, h.send(say(1, bad))); got != constants.MsgWeightInvalid {
			t.Errorf("reply to %q = %q", bad, got)
		}
		if h.sessions.Get(ctx, 1) != session.AwaitingWeight {
			t.Fatalf("state after %q left AwaitingWeight", bad)
		}
	}
	if history, _ := h.db.ListWeightHistory(ctx, 1); len(history) != 0 {
		t.Errorf("invalid input wrote history: %+v", history)
	}

	if got := onlyText(t, h.send(say(1, "70,2"))); got != constants.MsgWeightSaved {
		t.Errorf("reply = %q", got)
	}
}

func TestFreeTextWhileIdle(t *testing.T) {
	h := newHarness()
	h.send(start(1, "Ann"))
	if got := onlyText(t, h.send(say(1, "70"))); got != constants.MsgPressLogWeight {
		t.Errorf("reply = %q", got)
	}
	if u, _ := h.db.GetUser(context.Background(), 1); u.Weight != nil {
		t.Errorf("idle free text logged weight %v", *u.Weight)
	}
}

func TestLogWeightRequiresRegistration(t *testing.T) {
	h := newHarness()
	if got := onlyText(t, h.send(press(5, constants.CallbackLogWeight))); got != constants.MsgNotRegistered {
		t.Errorf("reply = %q", got)
	}
	if h.sessions.Get(context.Background(), 5) != session.Idle {
		t.Error("unregistered user moved to AwaitingWeight")
	}
}

func TestDeleteResetsSession(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.send(start(1, "Ann"))
	h.send(press(1, constants.CallbackLogWeight))

	if got := onlyText(t, h.send(Command{Name: "delete", UserID: 1})); got != constants.MsgDeleted {
		t.Errorf("delete reply = %q", got)
	}
	if h.sessions.Get(ctx, 1) != session.Idle {
		t.Error("session survived /delete")
	}
	if got := onlyText(t, h.send(press(1, constants.CallbackViewHistory))); got != "История веса:\nИстория веса пуста." {
		t.Errorf("history after delete = %q", got)
	}
	if got := onlyText(t, h.send(Command{Name: "delete", UserID: 1})); got != constants.MsgDeleted {
		t.Errorf("second delete reply = %q", got)
	}
}

func TestWorkoutButtonsEdit(t *testing.T) {
	h := newHarness()
	for _, id := range []string{"1", "2", "3"} {
		replies := h.send(press(1, id))
		if len(replies) != 1 {
			t.Fatalf("replies = %#v", replies)
		}
		edit, ok := replies[0].(EditReply)
		if !ok || edit.Text != "Видео для тренировки "+id+": [Ссылка на видео]" {
			t.Errorf("reply for %s = %#v", id, replies[0])
		}
	}
}

func TestUnknownInputs(t *testing.T) {
	h := newHarness()
	if got := onlyText(t, h.send(Command{Name: "dance", UserID: 1})); got != constants.MsgUnknownCommand {
		t.Errorf("unknown command = %q", got)
	}
	if got := onlyText(t, h.send(press(1, "legacy_token"))); got != constants.MsgUnknownButton {
		t.Errorf("unknown button = %q", got)
	}
	if got := onlyText(t, h.send(Command{Name: "help", UserID: 1})); got != constants.MsgCommandMenu {
		t.Errorf("help = %q", got)
	}
}

func TestRenderHistoryOrder(t *testing.T) {
	got := RenderHistory([]models.WeightEntry{
		{Date: "2024-03-11", Weight: 70},
		{Date: "2024-03-04", Weight: 71.25},
	})
	want := "История веса:\n2024-03-11: 70 кг\n2024-03-04: 71.25 кг"
	if got != want {
		t.Errorf("RenderHistory = %q, want %q", got, want)
	}
}

// mockLedger lets a test fail individual use cases.
type mockLedger struct {
	registerFn func(ctx context.Context, id int64, first string, last, user *string) (bool, error)
	profileFn  func(ctx context.Context, id int64) (models.ProfileView, error)
	logFn      func(ctx context.Context, id int64, raw string) (float64, error)
	historyFn  func(ctx context.Context, id int64) ([]models.WeightEntry, error)
	deleteFn   func(ctx context.Context, id int64) error
}

func (m *mockLedger) Register(ctx context.Context, id int64, first string, last, user *string) (bool, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, id, first, last, user)
	}
	return true, nil
}

func (m *mockLedger) GetProfile(ctx context.Context, id int64) (models.ProfileView, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, id)
	}
	return models.ProfileView{}, nil
}

func (m *mockLedger) LogWeight(ctx context.Context, id int64, raw string) (float64, error) {
	if m.logFn != nil {
		return m.logFn(ctx, id, raw)
	}
	return 0, nil
}

func (m *mockLedger) GetHistory(ctx context.Context, id int64) ([]models.WeightEntry, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, id)
	}
	return nil, nil
}

func (m *mockLedger) DeleteAccount(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func TestStoreErrorsBecomeGenericReply(t *testing.T) {
	storeErr := &apperr.StoreError{Op: "get user", Err: errors.New("database is locked")}
	m := &mockLedger{
		registerFn: func(context.Context, int64, string, *string, *string) (bool, error) { return false, storeErr },
		profileFn:  func(context.Context, int64) (models.ProfileView, error) { return models.ProfileView{}, storeErr },
		historyFn:  func(context.Context, int64) ([]models.WeightEntry, error) { return nil, storeErr },
		deleteFn:   func(context.Context, int64) error { return storeErr },
		logFn:      func(context.Context, int64, string) (float64, error) { return 0, storeErr },
	}
	sessions := session.NewMemory()
	d := New(m, sessions)
	ctx := context.Background()

	events := []Event{
		start(1, "Ann"),
		Command{Name: "status", UserID: 1},
		Command{Name: "delete", UserID: 1},
		press(1, constants.CallbackViewHistory),
		press(1, constants.CallbackProfile),
		press(1, constants.CallbackLogWeight),
	}
	for _, ev := range events {
		t.Run(fmt.Sprintf("%T", ev), func(t *testing.T) {
			got := onlyText(t, d.Handle(ctx, ev))
			if got != constants.MsgInternalError {
				t.Errorf("reply = %q, want generic failure", got)
			}
			if strings.Contains(got, "locked") {
				t.Error("internal detail leaked")
			}
		})
	}

	sessions.Set(ctx, 1, session.AwaitingWeight)
	if got := onlyText(t, d.Handle(ctx, say(1, "70"))); got != constants.MsgInternalError {
		t.Errorf("log weight store failure reply = %q", got)
	}
	if sessions.Get(ctx, 1) != session.AwaitingWeight {
		t.Error("store failure should leave the user awaiting a retry")
	}
}

func TestConcurrentTextsConsumeOneAwaitingValue(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.send(start(1, "Ann"))
	h.send(press(1, constants.CallbackLogWeight))

	replies := make(chan []Reply, 2)
	var wg sync.WaitGroup
	for _, v := range []string{"60", "61"} {
		v := v
		wg.Add(1)
		go func() {
			defer wg.Done()
			replies <- h.send(say(1, v))
		}()
	}
	wg.Wait()
	close(replies)

	got := map[string]int{}
	for r := range replies {
		got[onlyText(t, r)]++
	}
	if got[constants.MsgWeightSaved] != 1 || got[constants.MsgPressLogWeight] != 1 {
		t.Errorf("replies = %v, want one saved and one idle hint", got)
	}
	history, _ := h.db.ListWeightHistory(ctx, 1)
	if len(history) != 1 {
		t.Errorf("history = %+v, want exactly one entry", history)
	}
	if st := h.sessions.Get(ctx, 1); st != session.Idle {
		t.Errorf("session = %v, want Idle", st)
	}
	if n := h.d.users.len(); n != 0 {
		t.Errorf("%d user locks left behind", n)
	}
}

func TestDifferentUsersDoNotBlockEachOther(t *testing.T) {
	h := newHarness()
	h.send(start(1, "Ann"))
	h.send(start(2, "Bob"))

	unlock := h.d.users.lock(1)
	defer unlock()

	done := make(chan []Reply, 1)
	go func() { done <- h.send(press(2, constants.CallbackLogWeight)) }()
	select {
	case r := <-done:
		if onlyText(t, r) != constants.MsgAskWeight {
			t.Errorf("reply = %#v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("user 2 blocked behind user 1")
	}
}
