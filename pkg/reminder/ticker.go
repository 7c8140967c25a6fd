package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Ticker runs a function periodically.
type Ticker interface {
	// Every registers fn to run each interval once started.
	Every(interval time.Duration, fn func()) error
	Start()
	// Stop halts future runs. The returned context is done once in-flight runs finish.
	Stop() context.Context
}

// CronTicker is a Ticker backed by robfig/cron. Overlapping runs of the same
// job are skipped, and a panicking job is recovered and logged.
type CronTicker struct {
	cron *cron.Cron
}

func NewCronTicker() *CronTicker {
	logger := cron.PrintfLogger(logrus.StandardLogger())
	return &CronTicker{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

func (c *CronTicker) Every(interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("invalid tick interval: %s", interval)
	}
	if _, err := c.cron.AddFunc(fmt.Sprintf("@every %s", interval), fn); err != nil {
		return fmt.Errorf("failed to register tick: %w", err)
	}
	return nil
}

func (c *CronTicker) Start() {
	c.cron.Start()
}

func (c *CronTicker) Stop() context.Context {
	return c.cron.Stop()
}
