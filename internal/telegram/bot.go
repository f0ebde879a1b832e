// Package telegram connects the dispatcher to the Telegram Bot API over long
// polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/julianstephens/fitbot/internal/constants"
	"github.com/julianstephens/fitbot/internal/dispatcher"
	"github.com/julianstephens/fitbot/internal/logger"
)

// Sender is the part of *tgbotapi.BotAPI used to deliver replies.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler produces replies for an event. *dispatcher.Dispatcher implements it.
type Handler interface {
	Handle(ctx context.Context, ev dispatcher.Event) []dispatcher.Reply
}

type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	handler Handler

	retries    int
	retryDelay time.Duration

	wg    sync.WaitGroup
	lanes *lanes
}

// New authenticates with token. The Bot API call fails fast on a bad token.
func New(token string, handler Handler, debug bool) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = debug
	logger.Info("Authorized on Telegram", "account", api.Self.UserName)
	b := NewWithSender(api, handler)
	b.api = api
	return b, nil
}

// NewWithSender builds a Bot that only delivers replies, for tests and for
// callers that feed updates themselves through HandleUpdate.
func NewWithSender(sender Sender, handler Handler) *Bot {
	return &Bot{
		sender:     sender,
		handler:    handler,
		lanes:      newLanes(),
		retries:    constants.SendRetries,
		retryDelay: constants.SendRetryDelay,
	}
}

// Run polls until ctx is cancelled, handling each update on its own
// goroutine, then waits for in-flight handlers.
func (b *Bot) Run(ctx context.Context) error {
	if b.api == nil {
		return errors.New("telegram: bot has no API client")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = constants.PollTimeoutSec
	updates := b.api.GetUpdatesChan(u)

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			logger.Info("Telegram polling stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(context.WithoutCancel(ctx), upd)
		}
	}
}

// dispatch handles upd on its own goroutine. Updates from one sender run in
// the order they were received; other senders are not held up.
func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	wait, done := b.lanes.enter(senderID(upd))
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer done()
		if wait != nil {
			<-wait
		}
		b.HandleUpdate(ctx, upd)
	}()
}

// HandleUpdate dispatches one update and delivers the replies in order.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	ev, dst, ok := Convert(upd)
	if !ok {
		logger.Debug("Ignoring update", "event_id", upd.UpdateID)
		return
	}
	if dst.callbackID != "" {
		// Stop the client-side spinner before doing any work.
		if _, err := b.sender.Request(tgbotapi.NewCallback(dst.callbackID, "")); err != nil {
			logger.Warn("Failed to answer callback", "event_id", ev.EventID(), "error", err)
		}
	}

	for _, r := range b.handler.Handle(ctx, ev) {
		c := Render(r, dst)
		if c == nil {
			continue
		}
		if err := b.send(ctx, c); err != nil {
			logger.Error("Failed to send reply", "user_id", ev.From(), "event_id", ev.EventID(), "error", err)
			return
		}
	}
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) error {
	var err error
	for attempt := 0; attempt < b.retries; attempt++ {
		if _, err = b.sender.Send(c); err == nil {
			return nil
		}
		delay := b.retryDelay
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.RetryAfter > 0 {
				delay = time.Duration(apiErr.RetryAfter) * time.Second
			} else if apiErr.Code >= 400 && apiErr.Code < 500 {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
