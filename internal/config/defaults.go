package config

import (
	"fmt"
	"strconv"
	"strings"
)

const mebibyte = 1 << 20

// Default returns the configuration the forum ships with.
func Default() *Config {
	return &Config{
		User: UserConfig{
			Name:                    Bounds{Min: 3, Max: 20},
			Info:                    Bounds{Min: 0, Max: 1024},
			Title:                   Bounds{Min: 0, Max: 64},
			Signature:               Bounds{Min: 0, Max: 256},
			LastSeenUpdatePrecision: 300,
			MaxUsersPerPage:         20,
			DefaultAttachmentQuota:  10 * mebibyte,
		},
		Thread: ThreadConfig{
			Name:                             Bounds{Min: 3, Max: 128},
			MaxUsersInVisitedSinceLastChange: 1024,
			MaxThreadsPerPage:                25,
		},
		Message: MessageConfig{
			Content:            Bounds{Min: 5, Max: 65535},
			ChangeReason:       Bounds{Min: 0, Max: 64},
			MaxMessagesPerPage: 20,
			Comment:            Bounds{Min: 3, Max: 1024},
			MaxCommentsPerPage: 20,
		},
		Tag: TagConfig{
			Name:          Bounds{Min: 2, Max: 128},
			MaxUIBlobSize: 10000,
		},
		Category: CategoryConfig{
			Name:                 Bounds{Min: 2, Max: 128},
			MaxDescriptionLength: 1024,
		},
		Attachment: AttachmentConfig{
			Name:                  Bounds{Min: 1, Max: 128},
			MaxAttachmentsPerPage: 20,
		},
		Service: ServiceConfig{
			Listen:          "127.0.0.1:8081",
			ShutdownTimeout: 30,
			LogLevel:        "info",
		},
		Auth: AuthConfig{
			TokenLifetime: 7 * 24 * 3600,
		},
		Journal: JournalConfig{
			Path: "data/journal.db",
		},
		Jobs: JobsConfig{
			GrantSweepInterval: 60,
			LastSeenQueueSize:  1024,
		},
		Authorization: AuthorizationConfig{
			DefaultLevels:    defaultLevels(),
			DefaultDurations: defaultDurations(),
		},
	}
}

// defaultLevels lets a registered member read everything, post, vote and
// manage their own content. Moderation and structure changes are left
// undefined, which denies them until an administrator grants them.
func defaultLevels() map[string]int16 {
	member := []string{
		"message.view",
		"message.view_creator_user",
		"message.view_votes",
		"message.up_vote",
		"message.down_vote",
		"message.reset_vote",
		"message.add_comment",
		"message.get_message_comments",
		"message.change_content",
		"message.delete",
		"message.add_attachment",
		"message.remove_attachment",

		"thread.view",
		"thread.subscribe",
		"thread.unsubscribe",
		"thread.add_message",
		"thread.auto_approve_message",
		"thread.change_name",
		"thread.delete",

		"tag.view",
		"tag.get_discussion_threads",

		"category.view",
		"category.get_discussion_threads",

		"forum_wide.add_user",
		"forum_wide.login",
		"forum_wide.get_entities_count",
		"forum_wide.get_version",
		"forum_wide.get_all_users",
		"forum_wide.get_user_info",
		"forum_wide.get_discussion_threads_of_user",
		"forum_wide.get_discussion_thread_messages_of_user",
		"forum_wide.get_subscribed_discussion_threads_of_user",
		"forum_wide.get_all_discussion_categories",
		"forum_wide.get_discussion_categories_from_root",
		"forum_wide.get_all_discussion_tags",
		"forum_wide.get_all_discussion_threads",
		"forum_wide.get_all_message_comments",
		"forum_wide.get_message_comments_of_user",
		"forum_wide.add_discussion_thread",
		"forum_wide.change_own_user_name",
		"forum_wide.change_own_user_info",
		"forum_wide.get_all_attachments",
		"forum_wide.get_attachments_of_user",
		"forum_wide.view_attachment",
		"forum_wide.add_attachment",
		"forum_wide.change_own_attachment_name",
		"forum_wide.delete_own_attachment",
		"forum_wide.auto_approve_attachment",
	}
	levels := make(map[string]int16, len(member))
	for _, name := range member {
		levels[name] = 1
	}
	return levels
}

func defaultDurations() map[string]Seconds {
	const hour = 3600
	return map[string]Seconds{
		"message.reset_vote":                       hour,
		"message.change_content":                   hour,
		"message.delete":                           hour,
		"forum_wide.change_discussion_thread_name": hour,
		"forum_wide.delete_discussion_thread":      hour,
	}
}

// applyEnv overlays FORUM_* variables. lookup is os.LookupEnv outside tests.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("FORUM_LISTEN"); ok {
		c.Service.Listen = v
	}
	if v, ok := lookup("FORUM_LOG_LEVEL"); ok {
		c.Service.LogLevel = v
	}
	if v, ok := lookup("FORUM_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("FORUM_TOKEN_LIFETIME"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FORUM_TOKEN_LIFETIME: %w", err)
		}
		c.Auth.TokenLifetime = Seconds(n)
	}
	if v, ok := lookup("FORUM_JOURNAL_PATH"); ok {
		c.Journal.Path = v
	}
	if v, ok := lookup("FORUM_ADMINISTRATORS"); ok {
		c.Authorization.Administrators = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Authorization.Administrators = append(c.Authorization.Administrators, name)
			}
		}
	}
	return nil
}
