package handlers

import (
	"context"
	"log"
	"time"

	"lemmy-automod/bot"

	"github.com/bwmarrin/discordgo"
)

// discord accepts at most 25 autocomplete choices
const maxChoices = 25

// HandleAutocomplete handles all autocomplete interactions.
func HandleAutocomplete(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "rules":
		for _, opt := range data.Options {
			if opt.Name == "community" && opt.Focused {
				handleCommunityAutocomplete(b.Store, s, i, opt.StringValue())
			}
		}
	}
}

func communityChoices(ctx context.Context, src RuleSource, prefix string) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	communities, err := src.ListCommunities(ctx, prefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(communities))
	for _, c := range communities {
		if seen[c.Name] || len(choices) == maxChoices {
			continue
		}
		seen[c.Name] = true
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  c.Name,
			Value: c.Name,
		})
	}
	return choices, nil
}

func handleCommunityAutocomplete(src RuleSource, s *discordgo.Session, i *discordgo.InteractionCreate, prefix string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	choices, err := communityChoices(ctx, src, prefix)
	if err != nil {
		log.Printf("Error listing communities for autocomplete: %v", err)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		log.Printf("Error responding to autocomplete interaction: %v", err)
	}
}
