package gateway

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/max/internal/plan"
)

type TelegramGateway struct {
	Bot      *tgbotapi.BotAPI
	Pipeline Handler
	Confirm  *Confirmations
}

func NewTelegramGateway(token string, h Handler, confirm *Confirmations) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	tg := &TelegramGateway{Bot: bot, Pipeline: h, Confirm: confirm}
	if confirm != nil {
		confirm.Bind("telegram", tg.Send)
	}
	return tg, nil
}

func (tg *TelegramGateway) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}

		log.Printf("[%s] %s", update.Message.From.UserName, update.Message.Text)

		sessionID := fmt.Sprintf("telegram:%d", update.Message.Chat.ID)
		text := update.Message.Text

		// A pending confirmation claims the next yes/no from this chat.
		if tg.Confirm != nil && tg.Confirm.Resolve(sessionID, text) {
			continue
		}

		// Commands run off the update loop so a confirmation
		// round-trip doesn't deadlock against it.
		go func(sessionID, text string, chatID int64) {
			out, err := tg.Pipeline.Handle(context.Background(), plan.Command{
				SessionID: sessionID,
				Text:      text,
			})
			if err != nil {
				log.Printf("Pipeline: %v", err)
			}
			reply := out.Feedback
			if reply == "" {
				reply = "Done."
			}
			msg := tgbotapi.NewMessage(chatID, reply)
			if _, err := tg.Bot.Send(msg); err != nil {
				log.Printf("Failed to reply on Telegram: %v", err)
			}
		}(sessionID, text, update.Message.Chat.ID)
	}
	return nil
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id := int64(0)
	fmt.Sscanf(chatID, "%d", &id)
	if id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	msg := tgbotapi.NewMessage(id, text)
	_, err := tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}
