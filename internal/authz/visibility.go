package authz

import (
	"time"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/privilege"
)

// MessageVisibility tells a listing which parts of a message it may show.
type MessageVisibility struct {
	View         bool `json:"view"`
	ViewCreator  bool `json:"viewCreator"`
	ViewVotes    bool `json:"viewVotes"`
	ViewIP       bool `json:"viewIp"`
	ViewComments bool `json:"viewComments"`
}

var visibilityPrivileges = [...]privilege.Message{
	privilege.MessageView,
	privilege.MessageViewUnapproved,
	privilege.MessageViewCreatorUser,
	privilege.MessageViewVotes,
	privilege.MessageViewIPAddress,
	privilege.MessageGetComments,
}

type threadLevels [len(visibilityPrivileges)]privilege.Value

// ComputeMessageVisibility fills the visibility flags of every message in one
// pass. Thread and tag layers are resolved once per thread, so a page of
// messages from the same thread only walks the tags once.
func (e *Engine) ComputeMessageVisibility(user model.ID, messages []*model.Message, now time.Time) []MessageVisibility {
	cache := make(map[model.ID]*threadLevels)
	out := make([]MessageVisibility, len(messages))

	for i, m := range messages {
		levels, ok := cache[m.ThreadID]
		if !ok {
			thread, _ := e.graph.Thread(m.ThreadID)
			levels = new(threadLevels)
			for j, p := range visibilityPrivileges {
				levels[j] = e.threadMessageLevel(thread, p)
			}
			cache[m.ThreadID] = levels
		}

		var allowed [len(visibilityPrivileges)]bool
		for j, p := range visibilityPrivileges {
			level, ok := m.Levels.Get(p)
			if !ok {
				level = levels[j]
			}
			allowed[j] = e.resolve(user, m.ID, privilege.KeyOf(p), level, now).Allowed
		}

		owner := isOwner(user, m.CreatedBy)
		view := owner || (allowed[0] && (m.Approved || allowed[1]))
		if !view {
			continue
		}
		out[i] = MessageVisibility{
			View:         true,
			ViewCreator:  allowed[2] || owner,
			ViewVotes:    allowed[3],
			ViewIP:       allowed[4],
			ViewComments: allowed[5],
		}
	}
	return out
}
