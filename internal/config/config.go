// Package config holds every tunable of the forum.
//
// LOADING ORDER:
//  1. Default() sets the values the forum ships with.
//  2. An optional JSON file (comments and trailing commas allowed) overlays
//     whatever it mentions.
//  3. A .env file, if present, is loaded into the process environment.
//  4. FORUM_* environment variables override the result.
//
// Validate runs last, so a bad override fails at startup instead of on the
// first request.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"

	"github.com/sakif/forum/internal/authz"
	"github.com/sakif/forum/internal/privilege"
)

// Bounds is an inclusive length range in characters.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Seconds is a duration written as a number of seconds in config files.
type Seconds int64

func (s Seconds) Duration() time.Duration { return time.Duration(s) * time.Second }

type UserConfig struct {
	Name                    Bounds  `json:"name"`
	Info                    Bounds  `json:"info"`
	Title                   Bounds  `json:"title"`
	Signature               Bounds  `json:"signature"`
	LastSeenUpdatePrecision Seconds `json:"lastSeenUpdatePrecision"`
	MaxUsersPerPage         int     `json:"maxUsersPerPage"`
	DefaultAttachmentQuota  uint64  `json:"defaultAttachmentQuota"`
}

type ThreadConfig struct {
	Name                             Bounds `json:"name"`
	MaxUsersInVisitedSinceLastChange int    `json:"maxUsersInVisitedSinceLastChange"`
	MaxThreadsPerPage                int    `json:"maxThreadsPerPage"`
}

type MessageConfig struct {
	Content            Bounds `json:"content"`
	ChangeReason       Bounds `json:"changeReason"`
	MaxMessagesPerPage int    `json:"maxMessagesPerPage"`
	Comment            Bounds `json:"comment"`
	MaxCommentsPerPage int    `json:"maxCommentsPerPage"`
}

type TagConfig struct {
	Name          Bounds `json:"name"`
	MaxUIBlobSize int    `json:"maxUiBlobSize"`
}

type CategoryConfig struct {
	Name                 Bounds `json:"name"`
	MaxDescriptionLength int    `json:"maxDescriptionLength"`
}

type AttachmentConfig struct {
	Name                  Bounds `json:"name"`
	MaxAttachmentsPerPage int    `json:"maxAttachmentsPerPage"`
}

type ServiceConfig struct {
	Listen          string  `json:"listen"`
	ShutdownTimeout Seconds `json:"shutdownTimeout"`
	LogLevel        string  `json:"logLevel"`
}

type AuthConfig struct {
	JWTSecret     string  `json:"jwtSecret"`
	TokenLifetime Seconds `json:"tokenLifetime"`
}

type JournalConfig struct {
	// Path of the sqlite audit journal. Empty disables the journal.
	Path string `json:"path"`
}

type JobsConfig struct {
	GrantSweepInterval Seconds `json:"grantSweepInterval"`
	LastSeenQueueSize  int     `json:"lastSeenQueueSize"`
}

type AuthorizationConfig struct {
	// DefaultLevels maps "<scope>.<privilege>" to its forum-wide level.
	DefaultLevels map[string]int16 `json:"defaultLevels"`
	// DefaultDurations maps "message.<name>" and "forum_wide.<name>" to
	// seconds; 0 means unlimited.
	DefaultDurations map[string]Seconds `json:"defaultDurations"`
	// Administrators are user names that receive every privilege forum-wide
	// when their account is created.
	Administrators []string `json:"administrators"`
}

type Config struct {
	User          UserConfig          `json:"user"`
	Thread        ThreadConfig        `json:"discussionThread"`
	Message       MessageConfig       `json:"discussionThreadMessage"`
	Tag           TagConfig           `json:"discussionTag"`
	Category      CategoryConfig      `json:"discussionCategory"`
	Attachment    AttachmentConfig    `json:"attachment"`
	Service       ServiceConfig       `json:"service"`
	Auth          AuthConfig          `json:"auth"`
	Journal       JournalConfig       `json:"journal"`
	Jobs          JobsConfig          `json:"jobs"`
	Authorization AuthorizationConfig `json:"authorization"`
}

// Load builds the effective configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the services cannot work with.
func (c *Config) Validate() error {
	var errs []error
	check := func(name string, b Bounds) {
		if b.Min < 0 || b.Max < b.Min || b.Max == 0 {
			errs = append(errs, fmt.Errorf("%s: invalid bounds [%d, %d]", name, b.Min, b.Max))
		}
	}
	check("user.name", c.User.Name)
	check("user.info", c.User.Info)
	check("user.title", c.User.Title)
	check("user.signature", c.User.Signature)
	check("discussionThread.name", c.Thread.Name)
	check("discussionThreadMessage.content", c.Message.Content)
	check("discussionThreadMessage.changeReason", c.Message.ChangeReason)
	check("discussionThreadMessage.comment", c.Message.Comment)
	check("discussionTag.name", c.Tag.Name)
	check("discussionCategory.name", c.Category.Name)
	check("attachment.name", c.Attachment.Name)

	if c.User.Name.Min < 1 {
		errs = append(errs, errors.New("user.name: names cannot be empty"))
	}
	for name, n := range map[string]int{
		"user.maxUsersPerPage":                       c.User.MaxUsersPerPage,
		"discussionThread.maxThreadsPerPage":         c.Thread.MaxThreadsPerPage,
		"discussionThreadMessage.maxMessagesPerPage": c.Message.MaxMessagesPerPage,
		"discussionThreadMessage.maxCommentsPerPage": c.Message.MaxCommentsPerPage,
		"attachment.maxAttachmentsPerPage":           c.Attachment.MaxAttachmentsPerPage,
	} {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive", name))
		}
	}
	if c.Service.Listen == "" {
		errs = append(errs, errors.New("service.listen: required"))
	}
	if c.Auth.TokenLifetime <= 0 {
		errs = append(errs, errors.New("auth.tokenLifetime: must be positive"))
	}
	if _, err := c.AuthorizationDefaults(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AuthorizationDefaults converts the authorization section into the privilege
// engine's forum-wide layer.
func (c *Config) AuthorizationDefaults() (*authz.Defaults, error) {
	defaults := &authz.Defaults{}
	for name, v := range c.Authorization.DefaultLevels {
		if err := defaults.SetLevel(name, privilege.Value(v)); err != nil {
			return nil, fmt.Errorf("authorization.defaultLevels: %w", err)
		}
	}
	for name, s := range c.Authorization.DefaultDurations {
		if err := defaults.SetDuration(name, s.Duration()); err != nil {
			return nil, fmt.Errorf("authorization.defaultDurations: %w", err)
		}
	}
	return defaults, nil
}
