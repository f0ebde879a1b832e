package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/julianstephens/fitbot/internal/dispatcher"
)

// target says where replies to an update go.
type target struct {
	chatID     int64
	messageID  int    // message carrying the pressed keyboard, for edits
	callbackID string // non-empty for callback queries, which must be answered
}

// Convert turns an update into a dispatcher event. ok is false for updates
// the bot does not handle (edits, channel posts, stickers, messages without
// a sender).
func Convert(u tgbotapi.Update) (ev dispatcher.Event, dst target, ok bool) {
	id := strconv.Itoa(u.UpdateID)

	if cb := u.CallbackQuery; cb != nil {
		if cb.From == nil {
			return nil, target{}, false
		}
		dst = target{chatID: cb.From.ID, callbackID: cb.ID}
		if cb.Message != nil {
			dst.messageID = cb.Message.MessageID
			if cb.Message.Chat != nil {
				dst.chatID = cb.Message.Chat.ID
			}
		}
		return dispatcher.CallbackPress{ID: id, Data: cb.Data, UserID: cb.From.ID}, dst, true
	}

	msg := u.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil, target{}, false
	}
	dst = target{chatID: msg.Chat.ID}

	if msg.IsCommand() {
		return dispatcher.Command{
			ID:      id,
			Name:    msg.Command(),
			UserID:  msg.From.ID,
			RawText: msg.Text,
			User: dispatcher.Profile{
				FirstName: msg.From.FirstName,
				LastName:  msg.From.LastName,
				Username:  msg.From.UserName,
			},
		}, dst, true
	}
	if msg.Text == "" {
		return nil, target{}, false
	}
	return dispatcher.FreeText{ID: id, UserID: msg.From.ID, Text: msg.Text}, dst, true
}

// Render builds the Bot API request for one reply. EditReply without a
// source message falls back to a new message.
func Render(r dispatcher.Reply, dst target) tgbotapi.Chattable {
	switch reply := r.(type) {
	case dispatcher.TextReply:
		return tgbotapi.NewMessage(dst.chatID, reply.Text)
	case dispatcher.MenuReply:
		msg := tgbotapi.NewMessage(dst.chatID, reply.Text)
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Buttons))
		for _, b := range reply.Buttons {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data)))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		return msg
	case dispatcher.EditReply:
		if dst.messageID == 0 {
			return tgbotapi.NewMessage(dst.chatID, reply.Text)
		}
		return tgbotapi.NewEditMessageText(dst.chatID, dst.messageID, reply.Text)
	default:
		return nil
	}
}
