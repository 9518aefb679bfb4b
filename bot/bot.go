package bot

import (
	"fmt"

	"wagerbot/bot/common"
	"wagerbot/bot/features/admin"
	"wagerbot/bot/features/balance"
	"wagerbot/bot/features/bank"
	"wagerbot/bot/features/blackjack"
	"wagerbot/bot/features/duel"
	"wagerbot/bot/features/give"
	"wagerbot/bot/features/mines"
	"wagerbot/bot/features/wheel"
	"wagerbot/config"
	"wagerbot/models"
	"wagerbot/service"
	"wagerbot/session"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
}

// Services are the core operations the chat front-end drives
type Services struct {
	User     service.UserService
	Transfer service.TransferService
	Bank     service.BankService
	Admin    service.AdminService
}

// CommandHandler answers one slash command
type CommandHandler interface {
	HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate)
}

// ComponentHandler answers the buttons of one feature
type ComponentHandler interface {
	HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate, id common.ComponentID)
}

type Bot struct {
	config     Config
	session    *discordgo.Session
	sessions   *session.Manager
	tracker    *common.MessageTracker
	tuning     *config.GameTuning
	commands   map[string]CommandHandler
	components map[string]ComponentHandler
	views      map[models.GameType]common.GameView
}

func New(cfg Config, services Services, sessions *session.Manager, tuning *config.GameTuning) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	bot := newBot(cfg, dg, services, sessions, tuning)

	dg.AddHandler(bot.handleInteraction)
	sessions.SetExpiryHandler(bot.onSessionExpired)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.WithField("commands", len(bot.commands)).Info("Discord bot connected")
	return bot, nil
}

// newBot wires the features without touching the network
func newBot(cfg Config, dg *discordgo.Session, services Services, sessions *session.Manager, tuning *config.GameTuning) *Bot {
	tracker := common.NewMessageTracker()

	blackjackFeature := blackjack.New(services.User, sessions, tracker, tuning.Blackjack)
	wheelFeature := wheel.New(services.User, sessions, tracker, tuning.Wheel)
	minesFeature := mines.New(services.User, sessions, tracker, tuning.Mines)
	duelFeature := duel.New(services.User, sessions, tracker, tuning.Duel)

	return &Bot{
		config:   cfg,
		session:  dg,
		sessions: sessions,
		tracker:  tracker,
		tuning:   tuning,
		commands: map[string]CommandHandler{
			"balance":   balance.New(services.User, services.Bank, sessions),
			"give":      give.New(services.User, services.Transfer),
			"blackjack": blackjackFeature,
			"wheel":     wheelFeature,
			"mines":     minesFeature,
			"duel":      duelFeature,
			"bank":      bank.New(services.User, services.Bank, tuning.Bank),
			"admin":     admin.New(services.User, services.Admin),
		},
		components: map[string]ComponentHandler{
			blackjack.Prefix: blackjackFeature,
			mines.Prefix:     minesFeature,
			duel.Prefix:      duelFeature,
		},
		views: map[models.GameType]common.GameView{
			models.GameTypeBlackjack: blackjackFeature.View(),
			models.GameTypeWheel:     wheelFeature.View(),
			models.GameTypeMines:     minesFeature.View(),
			models.GameTypeDuel:      duelFeature.View(),
		},
	}
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) registerCommands() error {
	for _, cmd := range commandDefinitions(b.tuning) {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"interactionID": i.ID,
				"panic":         r,
			}).Error("Interaction handler panicked")
		}
	}()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		if h, ok := b.commands[name]; ok {
			h.HandleCommand(s, i)
			return
		}
		log.Warnf("Unknown command %q", name)

	case discordgo.InteractionMessageComponent:
		id, err := common.ParseComponentID(i.MessageComponentData().CustomID)
		if err != nil {
			log.Warnf("Ignoring component: %v", err)
			return
		}
		if h, ok := b.components[id.Feature]; ok {
			h.HandleComponent(s, i, id)
			return
		}
		log.Warnf("No handler for component feature %q", id.Feature)
	}
}

// onSessionExpired rewrites the game message after a timeout refund or a
// retried settlement, since no interaction is left to answer
func (b *Bot) onSessionExpired(sess *session.Session, result *session.Result, err error) {
	if err != nil {
		log.WithFields(log.Fields{
			"sessionID": sess.ID,
			"error":     err,
		}).Warn("Settlement still pending after timer")
		return
	}

	ref, ok := b.tracker.Lookup(sess.ID)
	if !ok {
		return
	}
	b.tracker.Forget(sess.ID)

	view, ok := b.views[sess.Type()]
	if !ok {
		return
	}
	embed, components := view(sess, result)
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	_, editErr := b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         ref.MessageID,
		Channel:    ref.ChannelID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if editErr != nil {
		log.WithFields(log.Fields{
			"sessionID": sess.ID,
			"error":     editErr,
		}).Warn("Failed to update expired game message")
	}
}
