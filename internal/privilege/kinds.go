package privilege

// Message privileges apply to a single message and may be set on the message,
// its thread, the thread's tags or forum-wide.
type Message uint8

const (
	MessageView Message = iota
	MessageViewCreatorUser
	MessageViewIPAddress
	MessageViewVotes
	MessageUpVote
	MessageDownVote
	MessageResetVote
	MessageAddComment
	MessageSetCommentToSolved
	MessageGetComments
	MessageChangeContent
	MessageDelete
	MessageMove
	MessageViewUnapproved
	MessageChangeApproval
	MessageAddAttachment
	MessageRemoveAttachment
	MessageAdjustPrivilege

	messageCount
)

var messageNames = []string{
	"view", "view_creator_user", "view_ip_address", "view_votes", "up_vote", "down_vote",
	"reset_vote", "add_comment", "set_comment_to_solved", "get_message_comments",
	"change_content", "delete", "move", "view_unapproved", "change_approval",
	"add_attachment", "remove_attachment", "adjust_privilege",
}

func (p Message) Scope() Scope   { return ScopeMessage }
func (p Message) String() string { return enumName(messageNames, uint8(p)) }

// ParseMessage resolves a snake_case name such as "change_content".
func ParseMessage(name string) (Message, error) { return parseEnum[Message](messageNames, name) }

// AllMessage lists every message privilege in declaration order.
func AllMessage() []Message { return all[Message](messageCount) }

// Thread privileges.
type Thread uint8

const (
	ThreadView Thread = iota
	ThreadSubscribe
	ThreadUnsubscribe
	ThreadAddMessage
	ThreadAutoApproveMessage
	ThreadChangeName
	ThreadChangePinDisplayOrder
	ThreadAddTag
	ThreadRemoveTag
	ThreadDelete
	ThreadMerge
	ThreadAdjustPrivilege

	threadCount
)

var threadNames = []string{
	"view", "subscribe", "unsubscribe", "add_message", "auto_approve_message", "change_name",
	"change_pin_display_order", "add_tag", "remove_tag", "delete", "merge", "adjust_privilege",
}

func (p Thread) Scope() Scope   { return ScopeThread }
func (p Thread) String() string { return enumName(threadNames, uint8(p)) }

func ParseThread(name string) (Thread, error) { return parseEnum[Thread](threadNames, name) }

func AllThread() []Thread { return all[Thread](threadCount) }

// Tag privileges.
type Tag uint8

const (
	TagView Tag = iota
	TagGetDiscussionThreads
	TagChangeName
	TagChangeUIBlob
	TagDelete
	TagMerge
	TagAdjustPrivilege

	tagCount
)

var tagNames = []string{
	"view", "get_discussion_threads", "change_name", "change_uiblob", "delete", "merge",
	"adjust_privilege",
}

func (p Tag) Scope() Scope   { return ScopeTag }
func (p Tag) String() string { return enumName(tagNames, uint8(p)) }

func ParseTag(name string) (Tag, error) { return parseEnum[Tag](tagNames, name) }

func AllTag() []Tag { return all[Tag](tagCount) }

// Category privileges.
type Category uint8

const (
	CategoryView Category = iota
	CategoryGetDiscussionThreads
	CategoryChangeName
	CategoryChangeDescription
	CategoryChangeParent
	CategoryChangeDisplayOrder
	CategoryAddTag
	CategoryRemoveTag
	CategoryDelete
	CategoryAdjustPrivilege

	categoryCount
)

var categoryNames = []string{
	"view", "get_discussion_threads", "change_name", "change_description", "change_parent",
	"change_displayorder", "add_tag", "remove_tag", "delete", "adjust_privilege",
}

func (p Category) Scope() Scope   { return ScopeCategory }
func (p Category) String() string { return enumName(categoryNames, uint8(p)) }

func ParseCategory(name string) (Category, error) { return parseEnum[Category](categoryNames, name) }

func AllCategory() []Category { return all[Category](categoryCount) }

// ForumWide privileges are only ever checked against the forum-wide layer.
type ForumWide uint8

const (
	ForumWideAddUser ForumWide = iota
	ForumWideLogin
	ForumWideGetEntitiesCount
	ForumWideGetVersion
	ForumWideGetAllUsers
	ForumWideGetUserInfo
	ForumWideGetDiscussionThreadsOfUser
	ForumWideGetDiscussionThreadMessagesOfUser
	ForumWideGetSubscribedDiscussionThreadsOfUser
	ForumWideGetAllDiscussionCategories
	ForumWideGetDiscussionCategoriesFromRoot
	ForumWideGetAllDiscussionTags
	ForumWideGetAllDiscussionThreads
	ForumWideGetAllMessageComments
	ForumWideGetMessageCommentsOfUser
	ForumWideAddDiscussionCategory
	ForumWideAddDiscussionTag
	ForumWideAddDiscussionThread
	ForumWideChangeOwnUserName
	ForumWideChangeOwnUserInfo
	ForumWideChangeAnyUserName
	ForumWideChangeAnyUserInfo
	ForumWideChangeAnyUserAttachmentQuota
	ForumWideDeleteAnyUser
	ForumWideGetAllAttachments
	ForumWideGetAttachmentsOfUser
	ForumWideViewAttachment
	ForumWideAddAttachment
	ForumWideChangeAnyAttachmentName
	ForumWideChangeOwnAttachmentName
	ForumWideChangeAnyAttachmentApproval
	ForumWideDeleteAnyAttachment
	ForumWideDeleteOwnAttachment
	ForumWideAutoApproveAttachment
	ForumWideNoThrottling
	ForumWideAdjustForumWidePrivilege

	forumWideCount
)

var forumWideNames = []string{
	"add_user", "login", "get_entities_count", "get_version", "get_all_users", "get_user_info",
	"get_discussion_threads_of_user", "get_discussion_thread_messages_of_user",
	"get_subscribed_discussion_threads_of_user", "get_all_discussion_categories",
	"get_discussion_categories_from_root", "get_all_discussion_tags", "get_all_discussion_threads",
	"get_all_message_comments", "get_message_comments_of_user", "add_discussion_category",
	"add_discussion_tag", "add_discussion_thread", "change_own_user_name", "change_own_user_info",
	"change_any_user_name", "change_any_user_info", "change_any_user_attachment_quota",
	"delete_any_user", "get_all_attachments", "get_attachments_of_user", "view_attachment",
	"add_attachment", "change_any_attachment_name", "change_own_attachment_name",
	"change_any_attachment_approval", "delete_any_attachment", "delete_own_attachment",
	"auto_approve_attachment", "no_throttling", "adjust_forum_wide_privilege",
}

func (p ForumWide) Scope() Scope   { return ScopeForumWide }
func (p ForumWide) String() string { return enumName(forumWideNames, uint8(p)) }

func ParseForumWide(name string) (ForumWide, error) {
	return parseEnum[ForumWide](forumWideNames, name)
}

func AllForumWide() []ForumWide { return all[ForumWide](forumWideCount) }

func all[P ~uint8](count P) []P {
	out := make([]P, 0, int(count))
	for p := P(0); p < count; p++ {
		out = append(out, p)
	}
	return out
}

// MessageDuration names the message privileges that are limited in time
// relative to the message creation (or, for ResetVote, the vote).
type MessageDuration uint8

const (
	DurationResetVote MessageDuration = iota
	DurationChangeContent
	DurationDeleteMessage

	messageDurationCount
)

var messageDurationNames = []string{"reset_vote", "change_content", "delete"}

func (d MessageDuration) String() string { return enumName(messageDurationNames, uint8(d)) }

func ParseMessageDuration(name string) (MessageDuration, error) {
	return parseEnum[MessageDuration](messageDurationNames, name)
}

func AllMessageDuration() []MessageDuration { return all[MessageDuration](messageDurationCount) }

// ForumWideDuration names the thread privileges limited in time relative to
// the thread creation.
type ForumWideDuration uint8

const (
	DurationChangeThreadName ForumWideDuration = iota
	DurationDeleteThread

	forumWideDurationCount
)

var forumWideDurationNames = []string{"change_discussion_thread_name", "delete_discussion_thread"}

func (d ForumWideDuration) String() string { return enumName(forumWideDurationNames, uint8(d)) }

func ParseForumWideDuration(name string) (ForumWideDuration, error) {
	return parseEnum[ForumWideDuration](forumWideDurationNames, name)
}

func AllForumWideDuration() []ForumWideDuration {
	return all[ForumWideDuration](forumWideDurationCount)
}

// Duration maps a message privilege to its duration entry, if it has one.
func (p Message) Duration() (MessageDuration, bool) {
	switch p {
	case MessageResetVote:
		return DurationResetVote, true
	case MessageChangeContent:
		return DurationChangeContent, true
	case MessageDelete:
		return DurationDeleteMessage, true
	}
	return 0, false
}

// Duration maps a thread privilege to its forum-wide duration entry.
func (p Thread) Duration() (ForumWideDuration, bool) {
	switch p {
	case ThreadChangeName:
		return DurationChangeThreadName, true
	case ThreadDelete:
		return DurationDeleteThread, true
	}
	return 0, false
}
