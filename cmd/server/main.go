package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/mcoot/sortinghat/internal/api"
	"github.com/mcoot/sortinghat/internal/catalog"
	"github.com/mcoot/sortinghat/internal/config"
	"github.com/mcoot/sortinghat/internal/discord"
	"github.com/mcoot/sortinghat/internal/factory"
	redisstorage "github.com/mcoot/sortinghat/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *slog.Logger) error {
	var err error
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
		}
	}
	cat = cat.WithGroups(cfg.Discord.HouseRoles)

	// The session is created up front so role changes can go through it;
	// it is only opened once the app is wired.
	var session *discordgo.Session
	factoryCfg := factory.Config{
		Logger:          logger,
		StorageType:     cfg.StorageType,
		SQLitePath:      cfg.SQLitePath,
		Catalog:         cat,
		WorkflowTimeout: cfg.WorkflowTimeout,
	}
	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}
	if cfg.Discord.Token != "" {
		session, err = discordgo.New("Bot " + cfg.Discord.Token)
		if err != nil {
			return fmt.Errorf("create discord session: %w", err)
		}
		factoryCfg.Directory = discord.NewRoleDirectory(session, cfg.Discord.GuildID, logger)
	} else {
		logger.Warn("DISCORD_BOT_TOKEN not set, running admin API only")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	if session != nil {
		bot := discord.New(session, discord.Config{
			GuildID:       cfg.Discord.GuildID,
			GMRoleID:      cfg.Discord.GMRoleID,
			SweepInterval: cfg.SweepInterval,
		}, app.Progression, app.Selection, logger)
		if err := bot.Start(ctx); err != nil {
			return fmt.Errorf("start discord bot: %w", err)
		}
		defer func() {
			if err := bot.Close(); err != nil {
				logger.Error("failed to close discord session", slog.String("error", err.Error()))
			}
		}()
	} else {
		go app.Selection.Run(ctx, cfg.SweepInterval)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Progression:    app.Progression,
		AdminTokenHash: cfg.API.AdminTokenHash,
	})
	if cfg.API.AdminTokenHash == "" {
		logger.Warn("API_ADMIN_TOKEN_HASH not set, admin routes are disabled")
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.API.Host
	serverConfig.Port = cfg.API.Port
	server := api.NewServer(router, serverConfig, logger)

	logger.Info("starting sortinghat",
		slog.String("storage", cfg.StorageType),
		slog.String("api_addr", cfg.APIAddr()),
		slog.Bool("discord", session != nil),
	)

	return server.Run(ctx)
}
