package commands

import (
	"fmt"
	"time"

	"blitzwatch/lib/configutil"
	"blitzwatch/lib/notify"
	"blitzwatch/lib/scrapers/blitz"
	"blitzwatch/lib/sqliteutil"
	"blitzwatch/lib/watchstore"
	"blitzwatch/services/watcher"
)

type BlitzConfig struct {
	BaseUrl          string `json:"base_url"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	BypassCloudflare bool   `json:"bypass_cloudflare"`
}

type ReminderConfig struct {
	ThresholdHours float64 `json:"threshold_hours"`
	Message        string  `json:"message"`
}

type MemberConfig struct {
	Name    string `json:"name"`
	Mention string `json:"mention"`
}

// TransportConfig enables the console when nothing else is configured.
type TransportConfig struct {
	Console bool                  `json:"console"`
	Discord notify.DiscordOptions `json:"discord"`
	Smtp    notify.SmtpConfig     `json:"smtp"`
}

type Config struct {
	Blitz               BlitzConfig       `json:"blitz"`
	PollIntervalSeconds int               `json:"poll_interval_seconds"`
	Reminder            ReminderConfig    `json:"reminder"`
	TurnMessagesFile    string            `json:"turn_messages_file"`
	Database            sqliteutil.Config `json:"database"`
	Games               []string          `json:"games"`
	Roster              []MemberConfig    `json:"roster"`
	Transport           TransportConfig   `json:"transport"`
	// directory for http dumps in verbose mode
	RestyOutput string `json:"resty_output"`
}

func defaultConfig() Config {
	return Config{
		Blitz: BlitzConfig{
			BaseUrl:        blitz.DefaultBaseUrl,
			TimeoutSeconds: 30,
		},
		PollIntervalSeconds: int(watcher.DefaultPollInterval / time.Second),
		Reminder: ReminderConfig{
			ThresholdHours: watcher.DefaultThresholdHours,
			Message:        watcher.DefaultReminderMessage,
		},
		Database: sqliteutil.Config{
			File: "blitzwatch.db",
		},
	}
}

// loadConfig reads the config file, a missing file leaves every default in
// place.
func loadConfig(path string) (Config, error) {
	config, err := configutil.ReadConfigWithDefaults(path, defaultConfig())
	if err == nil {
		return config, nil
	}
	if isNotExist(err) {
		return defaultConfig(), nil
	}
	return Config{}, fmt.Errorf("read config %s: %w", path, err)
}

func (c Config) pollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) policy() (watcher.ReminderPolicy, error) {
	policy := watcher.ReminderPolicy{
		ThresholdHours:  c.Reminder.ThresholdHours,
		ReminderMessage: c.Reminder.Message,
	}
	err := watcher.ValidateThreshold(policy.ThresholdHours)
	if err != nil {
		return policy, err
	}
	if c.TurnMessagesFile == "" {
		return policy, nil
	}
	messages, err := watchstore.ReadTurnMessagesFile(c.TurnMessagesFile)
	if isNotExist(err) {
		return policy, nil
	}
	if err != nil {
		return policy, fmt.Errorf("read turn messages: %w", err)
	}
	policy.TurnMessages = messages
	return policy, nil
}

func (c Config) roster() notify.StaticRoster {
	roster := make(notify.StaticRoster, len(c.Roster))
	for i, m := range c.Roster {
		roster[i] = watcher.Member{Name: m.Name, Mention: m.Mention}
	}
	return roster
}
