package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const embedColor = 0xC9A227

// Discord posts notifications to a channel webhook.
type Discord struct {
	session   *discordgo.Session
	webhookID string
	token     string
	username  string
}

// NewDiscord takes a webhook URL of the form
// https://discord.com/api/webhooks/<id>/<token>.
func NewDiscord(webhookURL string) (*Discord, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Client.Timeout = 10 * time.Second
	return &Discord{session: session, webhookID: id, token: token, username: "Bank Tycoon"}, nil
}

func (d *Discord) Notify(ctx context.Context, title, body string) error {
	_, err := d.session.WebhookExecute(d.webhookID, d.token, false, message(d.username, title, body),
		discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

func message(username, title, body string) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Username: username,
		Embeds: []*discordgo.MessageEmbed{{
			Title:       truncate(title, 256),
			Description: truncate(body, 4096),
			Color:       embedColor,
		}},
	}
}

func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// api/webhooks/<id>/<token>, optionally with a version segment after api
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook url %q has no id/token", raw)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
