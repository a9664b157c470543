package observer

// Write events.
const (
	UserAdded                  Kind = "user.add"
	UserNameChanged            Kind = "user.change_name"
	UserInfoChanged            Kind = "user.change_info"
	UserTitleChanged           Kind = "user.change_title"
	UserSignatureChanged       Kind = "user.change_signature"
	UserAttachmentQuotaChanged Kind = "user.change_attachment_quota"
	UserDeleted                Kind = "user.delete"

	ThreadAdded              Kind = "thread.add"
	ThreadNameChanged        Kind = "thread.change_name"
	ThreadPinOrderChanged    Kind = "thread.change_pin_display_order"
	ThreadDeleted            Kind = "thread.delete"
	ThreadsMerged            Kind = "thread.merge"
	ThreadSubscribed         Kind = "thread.subscribe"
	ThreadUnsubscribed       Kind = "thread.unsubscribe"
	MessageAdded             Kind = "message.add"
	MessageContentChanged    Kind = "message.change_content"
	MessageApprovalChanged   Kind = "message.change_approval"
	MessageDeleted           Kind = "message.delete"
	MessageMoved             Kind = "message.move"
	MessageUpVoted           Kind = "message.up_vote"
	MessageDownVoted         Kind = "message.down_vote"
	MessageVoteReset         Kind = "message.reset_vote"
	CommentAdded             Kind = "comment.add"
	CommentSolved            Kind = "comment.set_solved"
	TagAdded                 Kind = "tag.add"
	TagNameChanged           Kind = "tag.change_name"
	TagUIBlobChanged         Kind = "tag.change_uiblob"
	TagDeleted               Kind = "tag.delete"
	TagAddedToThread         Kind = "tag.add_to_thread"
	TagRemovedFromThread     Kind = "tag.remove_from_thread"
	TagsMerged               Kind = "tag.merge"
	TagAddedToCategory       Kind = "tag.add_to_category"
	TagRemovedFromCategory   Kind = "tag.remove_from_category"
	CategoryAdded            Kind = "category.add"
	CategoryNameChanged      Kind = "category.change_name"
	CategoryDescriptionSet   Kind = "category.change_description"
	CategoryParentChanged    Kind = "category.change_parent"
	CategoryOrderChanged     Kind = "category.change_display_order"
	CategoryDeleted          Kind = "category.delete"
	AttachmentAdded          Kind = "attachment.add"
	AttachmentNameChanged    Kind = "attachment.change_name"
	AttachmentApprovalSet    Kind = "attachment.change_approval"
	AttachmentDeleted        Kind = "attachment.delete"
	AttachmentLinked         Kind = "attachment.add_to_message"
	AttachmentUnlinked       Kind = "attachment.remove_from_message"
	PrivilegeLevelChanged    Kind = "privilege.change_level"
	PrivilegeDurationChanged Kind = "privilege.change_duration"
	PrivilegeAssigned        Kind = "privilege.assign"
)

// Read events.
const (
	UserLoggedIn    Kind = "user.login"
	ThreadRead      Kind = "thread.get"
	MessageRead     Kind = "message.get"
	AttachmentRead  Kind = "attachment.get"
	EntitiesCounted Kind = "statistics.get_entities_count"
)
