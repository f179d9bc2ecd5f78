package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxguard/voxguard/internal/bot"
	"github.com/voxguard/voxguard/internal/setup"
	"github.com/voxguard/voxguard/internal/setup/telemetry"
	"github.com/voxguard/voxguard/internal/worker/decay"
	"github.com/voxguard/voxguard/internal/worker/sweep"
)

// BotLogDir specifies where bot log files are stored.
const BotLogDir = "logs/bot_logs"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize application with required dependencies
	app, err := setup.InitializeApp(ctx, telemetry.ServiceBot, BotLogDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Cleanup(context.Background())

	// Create bot instance
	discordBot, err := bot.New(app)
	if err != nil {
		log.Printf("Failed to create bot: %v", err)
		return
	}

	// Start the bot and connect to Discord
	if err := discordBot.Start(ctx); err != nil {
		log.Printf("Failed to start bot: %v", err)
		return
	}

	// Background workers share the bot's lifetime: the sweeper applies
	// default configurations to channels past their deadline, the decay
	// worker resets stale spam escalation levels.
	sweepWorker := sweep.New(
		discordBot.Lifecycle(),
		time.Duration(app.Config.Worker.SweepIntervalSeconds)*time.Second,
		app.LogManager.GetWorkerLogger("sweep"),
	)
	decayWorker := decay.New(
		discordBot.SpamTracker(),
		time.Duration(app.Config.Worker.DecayIntervalMinutes)*time.Minute,
		app.LogManager.GetWorkerLogger("decay"),
	)

	go sweepWorker.Start(ctx)
	go decayWorker.Start(ctx)

	log.Println("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")

	// Wait for interrupt signal to gracefully shutdown the bot
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Stop the workers first, then close the Discord session
	cancel()
	discordBot.Close()
}
