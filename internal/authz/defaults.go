package authz

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/forum/internal/privilege"
)

// Defaults is the forum-wide layer: the value every privilege falls back to
// when no entity on the resolution path configures it.
type Defaults struct {
	Messages   privilege.Levels[privilege.Message]
	Threads    privilege.Levels[privilege.Thread]
	Tags       privilege.Levels[privilege.Tag]
	Categories privilege.Levels[privilege.Category]
	ForumWide  privilege.Levels[privilege.ForumWide]

	MessageDurations   privilege.Durations[privilege.MessageDuration]
	ForumWideDurations privilege.Durations[privilege.ForumWideDuration]
}

// SetLevel configures a forum-wide default addressed by its qualified name,
// e.g. "message.view" or "forum_wide.add_user".
func (d *Defaults) SetLevel(name string, v privilege.Value) error {
	if !v.Valid() {
		return fmt.Errorf("privilege %s: value %d out of range", name, v)
	}
	k, err := privilege.ParseKey(name)
	if err != nil {
		return err
	}
	d.Table().Set(k, v)
	return nil
}

// SetDuration configures a default duration addressed as "message.<name>" or
// "forum_wide.<name>".
func (d *Defaults) SetDuration(name string, v time.Duration) error {
	if v < 0 {
		return fmt.Errorf("duration %s: must not be negative", name)
	}
	scopeName, kind, ok := strings.Cut(name, ".")
	if !ok {
		return fmt.Errorf("duration %q: expected <scope>.<name>", name)
	}

	switch scopeName {
	case privilege.ScopeMessage.String():
		p, err := privilege.ParseMessageDuration(kind)
		if err != nil {
			return err
		}
		d.MessageDurations.Set(p, v)
	case privilege.ScopeForumWide.String():
		p, err := privilege.ParseForumWideDuration(kind)
		if err != nil {
			return err
		}
		d.ForumWideDurations.Set(p, v)
	default:
		return fmt.Errorf("duration %q: unknown scope", name)
	}
	return nil
}
