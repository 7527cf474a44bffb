package gateway

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/rahul/max/internal/plan"
)

type DiscordGateway struct {
	Session  *discordgo.Session
	Pipeline Handler
	Confirm  *Confirmations
}

func NewDiscordGateway(token string, h Handler, confirm *Confirmations) (*DiscordGateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	dg := &DiscordGateway{Session: s, Pipeline: h, Confirm: confirm}
	if confirm != nil {
		confirm.Bind("discord", dg.Send)
	}

	s.AddHandler(dg.onMessage)
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages
	return dg, nil
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID || m.Author.Bot || m.Content == "" {
		return
	}

	log.Printf("[%s] %s", m.Author.Username, m.Content)

	sessionID := "discord:" + m.ChannelID
	if dg.Confirm != nil && dg.Confirm.Resolve(sessionID, m.Content) {
		return
	}

	go func() {
		out, err := dg.Pipeline.Handle(context.Background(), plan.Command{
			SessionID: sessionID,
			Text:      m.Content,
		})
		if err != nil {
			log.Printf("Pipeline: %v", err)
		}
		reply := out.Feedback
		if reply == "" {
			reply = "Done."
		}
		if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
			log.Printf("Failed to reply on Discord: %v", err)
		}
	}()
}

func (dg *DiscordGateway) Start() error {
	return dg.Session.Open()
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	_, err := dg.Session.ChannelMessageSend(chatID, text)
	return err
}

func (dg *DiscordGateway) Stop() error {
	return dg.Session.Close()
}
