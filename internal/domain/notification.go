package domain

type NotificationType string

const (
	NotifyInviteReceive NotificationType = "document_invite_receive"
	NotifyInviteSend    NotificationType = "document_invite_send"
	NotifyInviteAccept  NotificationType = "document_invite_accept"
	NotifyInviteReject  NotificationType = "document_invite_reject"
	NotifyInviteDelete  NotificationType = "document_invite_delete"
)

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// Notification is one inbox entry for one recipient.
type Notification struct {
	To       UserID
	Type     NotificationType
	Status   NotificationStatus
	Redirect DocumentID
	Body     string
}
