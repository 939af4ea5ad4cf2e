package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lemmy-automod/bot"
	"lemmy-automod/models"
	"lemmy-automod/utils"

	"github.com/bwmarrin/discordgo"
)

// discord message content limit
const maxContentLen = 2000

// RuleSource reads stored communities and their rules.
type RuleSource interface {
	ListCommunities(ctx context.Context, prefix string) ([]models.Community, error)
	ListRules(ctx context.Context, communityID int64) (models.RuleSet, error)
}

func optionValue(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// HandleRules handles the logic for the /rules command.
func HandleRules(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text, err := describeRules(ctx, b.Store, optionValue(i, "community"))
	if err != nil {
		respond(s, i, "Error: "+err.Error())
		return
	}
	respond(s, i, text)
}

// HandleStatus handles the logic for the /status command.
func HandleStatus(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	communities, err := b.Store.ListCommunities(ctx, "")
	if err != nil {
		respond(s, i, "Error: "+err.Error())
		return
	}
	names := make([]string, len(communities))
	for n, c := range communities {
		names[n] = c.Name
	}
	respond(s, i, fmt.Sprintf("Running as **%s** on %s.\nCommunities with rules: %s",
		b.Self.Name, b.Client.BaseURL(), strings.Join(names, ", ")))
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
		},
	})
}

func describeRules(ctx context.Context, src RuleSource, name string) (string, error) {
	communities, err := src.ListCommunities(ctx, name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	found := false
	for _, c := range communities {
		if c.Name != name {
			continue
		}
		found = true
		rs, err := src.ListRules(ctx, c.ID)
		if err != nil {
			return "", err
		}
		formatRuleSet(&b, c, rs)
	}
	if !found {
		return fmt.Sprintf("No rules stored for **%s**.", name), nil
	}

	out := b.String()
	if len(out) > maxContentLen {
		out = utils.CutString(out, maxContentLen-4) + "\n..."
	}
	return out, nil
}

func formatRuleSet(b *strings.Builder, c models.Community, rs models.RuleSet) {
	fmt.Fprintf(b, "**%s** (id %d): %d rule(s)\n", c.Name, c.PlatformID, rs.Len())
	for _, r := range rs.Posts {
		fmt.Fprintf(b, "- post %s %s `%s`%s\n", r.Field, r.Kind, r.Match, exemptions(r.Exemptions))
	}
	for _, r := range rs.Comments {
		fmt.Fprintf(b, "- comment %s `%s`%s\n", r.Kind, r.Match, exemptions(r.Exemptions))
	}
	for _, r := range rs.Mentions {
		command := r.Command
		if command == "" {
			command = "(any)"
		}
		fmt.Fprintf(b, "- mention `%s` → %s\n", command, r.Action)
	}
	for _, r := range rs.Exceptions {
		fmt.Fprintf(b, "- exception %s\n", r.UserActorID)
	}
}

func exemptions(e models.Exemptions) string {
	var parts []string
	if e.ModExempt {
		parts = append(parts, "mods exempt")
	}
	if e.WhitelistExempt {
		parts = append(parts, "whitelist exempt")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
