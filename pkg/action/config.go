package action

// ActionConfig is one action entry of the pipeline YAML.
type ActionConfig struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type" json:"type"` // e.g., "send_notification"
	Enabled bool   `yaml:"enabled" json:"enabled"`
	// Required actions gate the ones listed after them for the same trigger:
	// if completing the day fails, its reminders must stay.
	Required   bool                   `yaml:"required" json:"required"`
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"`
}

// String returns a string parameter, or fallback when absent or not a string.
func (c *ActionConfig) String(key, fallback string) string {
	if v, ok := c.Parameters[key].(string); ok {
		return v
	}
	return fallback
}

// Bool returns a boolean parameter, or fallback when absent or not a bool.
func (c *ActionConfig) Bool(key string, fallback bool) bool {
	if v, ok := c.Parameters[key].(bool); ok {
		return v
	}
	return fallback
}
