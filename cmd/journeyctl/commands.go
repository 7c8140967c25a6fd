package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/recoverykit/journey-engine/internal/app"
	"github.com/recoverykit/journey-engine/internal/bootstrap"
	"github.com/recoverykit/journey-engine/pkg/clock"
	"github.com/recoverykit/journey-engine/pkg/engagement"
	"github.com/recoverykit/journey-engine/pkg/engine"
	"github.com/recoverykit/journey-engine/pkg/journey"
	"github.com/recoverykit/journey-engine/pkg/pipeline"
	"github.com/recoverykit/journey-engine/pkg/service"
	"github.com/recoverykit/journey-engine/pkg/state"
)

type userArg struct {
	User string `arg:"" help:"User ID."`
}

func (c *Context) session(ctx context.Context, userID string) (*engine.Session, error) {
	components, err := c.engine(ctx)
	if err != nil {
		return nil, err
	}
	return components.Engine.Session(userID), nil
}

type StatusCmd struct {
	userArg
}

func (cmd *StatusCmd) Run(c *Context) error {
	ctx := context.Background()
	defer c.close()

	session, err := c.session(ctx, cmd.User)
	if err != nil {
		return err
	}
	progress, err := session.GetJourneyProgress(ctx)
	if err != nil {
		return err
	}
	stats, err := session.GetTodaysStats(ctx)
	if err != nil {
		return err
	}
	streak, err := session.GetStreakData(ctx)
	if err != nil {
		return err
	}

	return c.printJSON(map[string]interface{}{
		"userId":   cmd.User,
		"progress": progress,
		"today":    stats,
		"streak":   streak,
	})
}

type UnlockedCmd struct {
	userArg
	Day int `arg:"" help:"Journey day (1-90)."`
}

func (cmd *UnlockedCmd) Run(c *Context) error {
	if err := journey.ValidateDay(cmd.Day); err != nil {
		return err
	}

	ctx := context.Background()
	defer c.close()

	session, err := c.session(ctx, cmd.User)
	if err != nil {
		return err
	}
	status, err := session.DayStatus(ctx, cmd.Day)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "day %d: %s\n", cmd.Day, status)
	return nil
}

type CalendarCmd struct {
	userArg
	Months int `help:"Whole months to look back before the current one." default:"1"`
}

func (cmd *CalendarCmd) Run(c *Context) error {
	ctx := context.Background()
	defer c.close()

	session, err := c.session(ctx, cmd.User)
	if err != nil {
		return err
	}
	calendar, err := session.GetCalendarData(ctx, cmd.Months)
	if err != nil {
		return err
	}

	dates := make([]string, 0, len(calendar))
	for date := range calendar {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		fmt.Fprintf(c.Out, "%s  %s\n", date, calendar[date])
	}
	return nil
}

type LogCmd struct {
	userArg
	Action string             `arg:"" help:"What the user did."`
	Type   state.ActivityType `help:"Activity type (journey, tool, peer, general)." default:"general" enum:"journey,tool,peer,general"`
	Day    int                `help:"Journey day the activity belongs to."`
}

func (cmd *LogCmd) Run(c *Context) error {
	ctx := context.Background()
	defer c.close()

	session, err := c.session(ctx, cmd.User)
	if err != nil {
		return err
	}
	result, err := session.LogActivity(ctx, engagement.ActivityInput{
		Action:    cmd.Action,
		Type:      cmd.Type,
		DayNumber: cmd.Day,
	})
	if err != nil {
		return err
	}
	if result.Outcome == nil {
		return fmt.Errorf("user %s has no record", cmd.User)
	}

	triggered := make([]string, 0, len(result.Triggers))
	for _, trigger := range result.Triggers {
		triggered = append(triggered, trigger.RuleID)
	}
	return c.printJSON(map[string]interface{}{
		"outcome":      result.Outcome,
		"dayCompleted": result.DayCompleted(),
		"triggered":    triggered,
	})
}

type ResetCmd struct {
	userArg
}

func (cmd *ResetCmd) Run(c *Context) error {
	ctx := context.Background()
	defer c.close()

	session, err := c.session(ctx, cmd.User)
	if err != nil {
		return err
	}
	reset, err := session.CheckAndResetDaily(ctx)
	if err != nil {
		return err
	}
	if reset {
		fmt.Fprintln(c.Out, "reset")
	} else {
		fmt.Fprintln(c.Out, "already reset today")
	}
	return nil
}

type RemindersCmd struct {
	userArg
}

func (cmd *RemindersCmd) Run(c *Context) error {
	ctx := context.Background()
	defer c.close()

	session, err := c.session(ctx, cmd.User)
	if err != nil {
		return err
	}
	reminders, err := session.GetScheduledNotifications(ctx)
	if err != nil {
		return err
	}
	for _, r := range reminders {
		sent := ""
		if r.Sent {
			sent = " (sent)"
		}
		fmt.Fprintf(c.Out, "day %d  %-11s  %s%s\n", r.DayNumber, r.Type, r.ScheduledFor.Format("2006-01-02 15:04"), sent)
	}
	return nil
}

type CheckDueCmd struct{}

func (cmd *CheckDueCmd) Run(c *Context) error {
	ctx := context.Background()
	defer c.close()

	components, err := c.engine(ctx)
	if err != nil {
		return err
	}
	delivered, err := components.Scheduler.CheckDue(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "delivered %d reminders\n", delivered)
	return nil
}

type ValidateCmd struct {
	Path string `arg:"" optional:"" type:"path" help:"Pipeline YAML. Defaults to the embedded pipeline."`
}

// Run wires the pipeline over in-memory stores, which checks every rule and
// action type is known and every reference resolves.
func (cmd *ValidateCmd) Run(c *Context) error {
	pipelineConfig, err := app.LoadPipelineConfig(cmd.Path)
	if err != nil {
		return err
	}

	_, err = bootstrap.InitEngine(bootstrap.EngineDeps{
		Clock:          clock.NewSystem(nil),
		States:         service.NewMemoryStateStore(),
		Reminders:      service.NewMemoryReminderStore(),
		Toasts:         service.NewMemoryToastStore(),
		Permissions:    service.NewMemoryPermissionStore(),
		PipelineConfig: pipelineConfig,
	})
	if err != nil {
		return err
	}

	p := pipeline.FromConfig("validate", pipelineConfig)
	wired := 0
	for _, ruleID := range p.Rules {
		wired += len(p.GetActions(ruleID))
	}
	fmt.Fprintf(c.Out, "ok: %d enabled rules, %d rule actions wired\n", len(p.Rules), wired)
	return nil
}
