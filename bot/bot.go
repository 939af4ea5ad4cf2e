package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lemmy-automod/config"
	"lemmy-automod/database"
	"lemmy-automod/engine"
	automodgrpc "lemmy-automod/grpc"
	"lemmy-automod/lemmy"
	"lemmy-automod/metrics"
	"lemmy-automod/models"
	"lemmy-automod/submission"
	"lemmy-automod/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
)

const moderatorCacheSize = 4096

// Command is a Discord slash command offered in the admin channel.
type Command interface {
	Definition() *discordgo.ApplicationCommand
}

// Bot encapsulates the bot's state.
type Bot struct {
	Config models.AppConfig

	Client     *lemmy.Client
	Store      *database.Store
	Moderators *lemmy.ModeratorCache
	// Self is the bot's own account, resolved once at startup.
	Self     models.Person
	Engine   *engine.Engine
	Workflow *submission.Workflow

	// Session is the optional Discord admin session, nil without a token.
	Session  *discordgo.Session
	Commands map[string]Command
	Events   Events

	ctx     context.Context
	cancel  context.CancelFunc
	poller  *Poller
	cron    *cron.Cron
	metrics *http.Server
	rpc     *automodgrpc.Server
}

// NewBot creates a Bot from cfg. Nothing talks to the network yet.
func NewBot(cfg models.AppConfig) (*Bot, error) {
	store, err := database.InitDB(cfg.Bot.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening rule store: %w", err)
	}

	client := lemmy.NewClient(lemmy.Options{
		Instance:    cfg.Lemmy.Instance,
		Username:    cfg.Lemmy.Username,
		Password:    cfg.Lemmy.Password,
		RetryMax:    cfg.Lemmy.RetryMax,
		RateLimit:   cfg.Lemmy.RateLimit,
		Timeout:     cfg.Lemmy.Timeout,
		ListingType: cfg.Lemmy.ListingType,
		FetchLimit:  cfg.Lemmy.FetchLimit,
	})

	b := &Bot{
		Config:     cfg,
		Client:     client,
		Store:      store,
		Moderators: lemmy.NewModeratorCache(client, moderatorCacheSize, cfg.Bot.ModeratorCacheTTL),
		Commands:   make(map[string]Command),
	}

	if cfg.Bot.DiscordToken != "" {
		dg, err := discordgo.New("Bot " + cfg.Bot.DiscordToken)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("error creating Discord session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuilds
		b.Session = dg
	}
	return b, nil
}

// RegisterCommands registers the provided commands.
func (b *Bot) RegisterCommands(commands []Command) {
	for _, cmd := range commands {
		b.Commands[cmd.Definition().Name] = cmd
	}
}

// Start logs in, resolves the bot's identity and starts every listener.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	b.ctx, b.cancel = context.WithCancel(context.Background())

	if err := b.Client.Login(b.ctx); err != nil {
		return fmt.Errorf("error logging in to %s: %w", b.Client.BaseURL(), err)
	}
	self, err := b.Client.ResolvePerson(b.ctx, b.Config.Lemmy.Username)
	if err != nil {
		return fmt.Errorf("error resolving bot account: %w", err)
	}
	b.Self = self

	b.Engine = engine.New(b.Store, b.Moderators, b.Client, b.Self, nil)
	b.Workflow = submission.NewWorkflow(b.Client, b.Store, b.Self)

	registerHandlers(b)

	if b.Session != nil {
		if err := b.Session.Open(); err != nil {
			return fmt.Errorf("error opening Discord connection: %w", err)
		}
		utils.InitLogger(b.Session, b.Config.Bot.AdminChannelID)

		for _, cmd := range b.Commands {
			_, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, "", cmd.Definition())
			if err != nil {
				log.Printf("Cannot create '%v' command: %v", cmd.Definition().Name, err)
			}
		}
	}

	if addr := b.Config.Metrics.Listen; addr != "" {
		b.metrics = metrics.NewServer(addr, b.Store)
		go func() {
			if err := b.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				utils.Error("Metrics", "ListenAndServe", err.Error())
			}
		}()
	}

	if addr := b.Config.GRPC.Listen; addr != "" {
		svc := automodgrpc.NewService(b.Workflow, b.Store, b.Client)
		b.rpc, err = automodgrpc.Listen(addr, svc, utils.NewAuth(b.Config.GRPC.APIKey))
		if err != nil {
			return err
		}
	}

	b.poller = NewPoller(b.Client, b.Store, b.Events, b.Config.Lemmy.Timeout)
	if err := b.startScheduler(); err != nil {
		return err
	}

	utils.Info("Bot", "Start", fmt.Sprintf("logged in to %s as %s (id %d)", b.Client.BaseURL(), b.Self.Name, b.Self.ID))
	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop shuts the listeners down, waits for in-flight handlers and closes the
// store.
func (b *Bot) Stop() {
	b.stopScheduler()
	if b.poller != nil {
		b.poller.Wait()
	}
	if b.cancel != nil {
		b.cancel()
	}
	if b.rpc != nil {
		b.rpc.Stop()
	}
	if b.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		b.metrics.Shutdown(ctx)
		cancel()
	}
	if b.Session != nil {
		utils.InitLogger(nil, "")
		b.Session.Close()
	}
	if b.Store != nil {
		b.Store.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run is the main entry point for the bot application.
func Run(registerHandlers func(*Bot), commands []Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	bot, err := NewBot(cfg)
	if err != nil {
		return fmt.Errorf("error initializing bot: %w", err)
	}

	bot.RegisterCommands(commands)

	if err := bot.Start(registerHandlers); err != nil {
		bot.Stop()
		return fmt.Errorf("error starting bot: %w", err)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	bot.Stop()
	return nil
}
