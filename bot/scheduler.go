package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"lemmy-automod/utils"

	"github.com/robfig/cron/v3"
)

// startScheduler starts the poll loop and the daily cleanup of processed
// event records. A poll still running when the next one is due is skipped.
func (b *Bot) startScheduler() error {
	log.Println("Initializing scheduler...")
	logger := cron.PrintfLogger(log.Default())
	b.cron = cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	interval := b.Config.Bot.PollInterval
	pollID, err := b.cron.AddFunc(fmt.Sprintf("@every %s", interval), b.pollOnce)
	if err != nil {
		return fmt.Errorf("could not schedule poll job: %w", err)
	}

	_, err = b.cron.AddFunc("@daily", func() {
		ctx, cancel := context.WithTimeout(b.ctx, time.Minute)
		defer cancel()
		n, err := b.Store.CleanupProcessed(ctx, b.Config.Bot.ProcessedTTL)
		if err != nil {
			utils.Error("Scheduler", "CleanupProcessed", err.Error())
			return
		}
		utils.Info("Scheduler", "CleanupProcessed", fmt.Sprintf("removed %d processed event records", n))
	})
	if err != nil {
		return fmt.Errorf("could not schedule cleanup job: %w", err)
	}

	b.cron.Start()
	log.Printf("Polling %s every %s.", b.Client.BaseURL(), interval)

	// first poll right away, through the same skip-if-running chain
	go b.cron.Entry(pollID).WrappedJob.Run()
	return nil
}

func (b *Bot) pollOnce() {
	ctx, cancel := context.WithTimeout(b.ctx, b.Config.Lemmy.Timeout)
	defer cancel()
	if err := b.poller.Poll(ctx); err != nil {
		utils.Warn("Scheduler", "Poll", err.Error())
	}
}

// stopScheduler stops the cron jobs and waits for a running job to finish.
func (b *Bot) stopScheduler() {
	if b.cron != nil {
		<-b.cron.Stop().Done()
		log.Println("Scheduler stopped.")
	}
}
