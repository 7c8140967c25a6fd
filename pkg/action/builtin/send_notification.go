package builtin

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/recoverykit/journey-engine/pkg/action"
	"github.com/recoverykit/journey-engine/pkg/notifier"
	"github.com/recoverykit/journey-engine/pkg/rule"
	"github.com/recoverykit/journey-engine/pkg/signal"
	"github.com/sirupsen/logrus"
)

const (
	// SendNotificationActionID is the identifier for the notification action
	SendNotificationActionID = "send_notification"
)

// SendNotificationAction shows a templated notification to the user.
//
// The title and body parameters are text/template strings executed against the
// trigger metadata plus user_id, reason, day, current_day, streak and
// strength.
type SendNotificationAction struct {
	config   action.ActionConfig
	notifier notifier.Notifier
	title    *template.Template
	body     *template.Template
}

// NewSendNotificationAction creates a new notification action.
// It fails if the title is missing or a template does not parse.
func NewSendNotificationAction(config action.ActionConfig, n notifier.Notifier) (*SendNotificationAction, error) {
	titleText := config.String("title", "")
	if titleText == "" {
		return nil, fmt.Errorf("%w: %s has no title", action.ErrInvalidConfig, config.ID)
	}

	title, err := template.New("title").Option("missingkey=zero").Parse(titleText)
	if err != nil {
		return nil, fmt.Errorf("%w: %s title: %v", action.ErrInvalidConfig, config.ID, err)
	}
	body, err := template.New("body").Option("missingkey=zero").Parse(config.String("body", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %s body: %v", action.ErrInvalidConfig, config.ID, err)
	}

	return &SendNotificationAction{
		config:   config,
		notifier: n,
		title:    title,
		body:     body,
	}, nil
}

// ID returns the action identifier.
func (a *SendNotificationAction) ID() string {
	return a.config.ID
}

// Name returns the action name.
func (a *SendNotificationAction) Name() string {
	return "Send Notification"
}

// Config returns the action configuration.
func (a *SendNotificationAction) Config() action.ActionConfig {
	return a.config
}

// Execute renders and shows the notification.
func (a *SendNotificationAction) Execute(ctx context.Context, trigger *rule.Trigger, userCtx *signal.UserContext) (action.Effect, error) {
	data := templateData(trigger, userCtx)

	title, err := render(a.title, data)
	if err != nil {
		return action.Effect{}, fmt.Errorf("failed to render title: %w", err)
	}
	body, err := render(a.body, data)
	if err != nil {
		return action.Effect{}, fmt.Errorf("failed to render body: %w", err)
	}

	if a.notifier == nil {
		logrus.Warnf("[DRY RUN] would notify user %s: %s", trigger.UserID, title)
		return action.Effect{DryRun: true}, nil
	}

	if err := a.notifier.Show(ctx, trigger.UserID, title, body); err != nil {
		return action.Effect{}, fmt.Errorf("failed to show notification: %w", err)
	}
	return action.Effect{Notified: true}, nil
}

func templateData(trigger *rule.Trigger, userCtx *signal.UserContext) map[string]interface{} {
	data := make(map[string]interface{}, len(trigger.Metadata)+6)
	if trigger.Day > 0 {
		data["day"] = trigger.Day
	}
	if userCtx != nil {
		data["current_day"] = userCtx.Progress.CurrentDay
		data["streak"] = userCtx.Streak.CurrentStreak
		data["strength"] = userCtx.Today.RecoveryStrength
	}
	for k, v := range trigger.Metadata {
		data[k] = v
	}
	data["user_id"] = trigger.UserID
	data["reason"] = trigger.Reason
	return data
}

func render(tmpl *template.Template, data map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
