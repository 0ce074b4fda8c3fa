package entity

import "time"

type NotificationType string

const (
	TypeConnectionRequest  NotificationType = "connection_request"
	TypeConnectionAccepted NotificationType = "connection_accepted"
	TypeNewMessage         NotificationType = "new_message"
	TypeEventReminder      NotificationType = "event_reminder"
	TypeChallengeUpdate    NotificationType = "challenge_update"
	TypeApplicationStatus  NotificationType = "application_status"
	TypeCommunityMention   NotificationType = "community_mention"
	TypePostReply          NotificationType = "post_reply"
	TypeSystem             NotificationType = "system"
)

type typePresentation struct {
	icon  string
	label string
}

var notificationTypes = map[NotificationType]typePresentation{
	TypeConnectionRequest:  {icon: "user-plus", label: "Connection request"},
	TypeConnectionAccepted: {icon: "user-check", label: "Connection accepted"},
	TypeNewMessage:         {icon: "message-square", label: "New message"},
	TypeEventReminder:      {icon: "calendar", label: "Event reminder"},
	TypeChallengeUpdate:    {icon: "trophy", label: "Challenge update"},
	TypeApplicationStatus:  {icon: "briefcase", label: "Application status"},
	TypeCommunityMention:   {icon: "at-sign", label: "Mention"},
	TypePostReply:          {icon: "corner-down-right", label: "Reply"},
	TypeSystem:             {icon: "bell", label: "System"},
}

func (t NotificationType) Known() bool {
	_, ok := notificationTypes[t]
	return ok
}

// Normalize maps unknown kinds to TypeSystem.
func (t NotificationType) Normalize() NotificationType {
	if t.Known() {
		return t
	}
	return TypeSystem
}

func (t NotificationType) Icon() string {
	return notificationTypes[t.Normalize()].icon
}

func (t NotificationType) Label() string {
	return notificationTypes[t.Normalize()].label
}

type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      *string          `json:"link,omitempty"`
	IsRead    bool             `json:"is_read"`
	RelatedID *string          `json:"related_id,omitempty"`
	CreatedAt Timestamp        `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unread_count"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

type MarkAllReadResponse struct {
	MarkedRead int `json:"marked_read"`
}

type ListOptions struct {
	Limit      int
	UnreadOnly bool
}

// EntryStatus tracks whether a local read flag is confirmed by the backend.
type EntryStatus string

const (
	EntryCommitted EntryStatus = "committed"
	EntryPending   EntryStatus = "pending"
)

// NotificationView is a notification prepared for rendering.
type NotificationView struct {
	Notification
	Icon         string      `json:"icon"`
	Label        string      `json:"label"`
	RelativeTime string      `json:"relative_time"`
	Status       EntryStatus `json:"status"`
}

type IndicatorSnapshot struct {
	UnreadCount   int                `json:"unread_count"`
	Open          bool               `json:"open"`
	Loading       bool               `json:"loading"`
	ListLoaded    bool               `json:"list_loaded"`
	Error         string             `json:"error,omitempty"`
	Notifications []NotificationView `json:"notifications"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Region is the bounding box of the open dropdown.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Region) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

type OpenIndicatorRequest struct {
	Region Region `json:"region"`
}

type ActivateResult struct {
	Navigate bool   `json:"navigate"`
	Link     string `json:"link,omitempty"`
	Marked   bool   `json:"marked"`
}

type IndicatorEventKind string

const (
	EventSessionMounted   IndicatorEventKind = "session_mounted"
	EventSessionUnmounted IndicatorEventKind = "session_unmounted"
	EventMarkRead         IndicatorEventKind = "mark_read"
	EventMarkAllRead      IndicatorEventKind = "mark_all_read"
	EventActivate         IndicatorEventKind = "activate"
)

// IndicatorEvent is published to the configured broker.
type IndicatorEvent struct {
	ID             string             `json:"id"`
	SessionID      string             `json:"session_id"`
	Kind           IndicatorEventKind `json:"kind"`
	NotificationID string             `json:"notification_id,omitempty"`
	Status         MutationStatus     `json:"status,omitempty"`
	UnreadCount    int                `json:"unread_count"`
	Error          string             `json:"error,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

type MutationStatus string

const (
	MutationPending   MutationStatus = "pending"
	MutationCommitted MutationStatus = "committed"
	MutationReverted  MutationStatus = "reverted"
)

// MutationRecord is one optimistic read-state change and its outcome.
type MutationRecord struct {
	ID             int64              `json:"id"`
	Ref            string             `json:"ref"`
	SessionID      string             `json:"session_id"`
	Kind           IndicatorEventKind `json:"kind"`
	NotificationID string             `json:"notification_id,omitempty"`
	Status         MutationStatus     `json:"status"`
	Error          string             `json:"error,omitempty"`
	CreatedAt      Timestamp          `json:"created_at"`
	UpdatedAt      Timestamp          `json:"updated_at"`
}

// MutationStats summarises the journal and the event pipeline for /health.
type MutationStats struct {
	Journaled     bool  `json:"journaled"`
	Pending       int   `json:"pending"`
	Committed     int   `json:"committed"`
	Reverted      int   `json:"reverted"`
	DroppedEvents int64 `json:"dropped_events"`
}
