package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
)

const maxAlertLen = 4096

// TelegramAlerter forwards error notices to an ops Telegram chat.
type TelegramAlerter struct {
	bot    *bot.Bot
	chatID int64
}

func NewTelegramAlerter(b *bot.Bot, chatID int64) *TelegramAlerter {
	return &TelegramAlerter{bot: b, chatID: chatID}
}

func (t *TelegramAlerter) Alert(text string) {
	if t.chatID == 0 {
		return
	}

	msg := fmt.Sprintf("❌ *Nova error*\n\n%s\n*Time:* %s", text, time.Now().Format("2006-01-02 15:04:05"))
	if len([]rune(msg)) > maxAlertLen {
		msg = string([]rune(msg)[:maxAlertLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      msg,
		ParseMode: "Markdown",
	})
	if err != nil {
		slog.Error("failed to send telegram alert", "error", err)
	}
}
