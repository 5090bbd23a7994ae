package models

import "time"

const (
	NotificationQuestionAnswered  = "question_answered"
	NotificationAnswerCommented   = "answer_commented"
	NotificationCommunityAccepted = "community_accepted"
	NotificationCommunityRejected = "community_rejected"
)

// NotificationMessages maps each type to its default message.
var NotificationMessages = map[string]string{
	NotificationQuestionAnswered:  "Your question received a new answer",
	NotificationAnswerCommented:   "Your answer received a new comment",
	NotificationCommunityAccepted: "Your community request was accepted",
	NotificationCommunityRejected: "Your community request was rejected",
}

// Notification moves unread -> read (reversible) and unread|read -> deleted
// (row removal, terminal). CommunityTitle is copied at creation time so a
// rejection notice survives the deletion of the community it refers to.
type Notification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RecipientID    uint      `gorm:"index;not null" json:"recipient_id"`
	ActorID        *uint     `json:"actor_id"`
	Type           string    `gorm:"size:50;not null" json:"type"`
	Message        string    `gorm:"size:255;not null" json:"message"`
	QuestionID     *uint     `json:"question_id"`
	AnswerID       *uint     `json:"answer_id"`
	CommunityID    *uint     `json:"community_id"`
	CommunityTitle *string   `gorm:"size:100" json:"community_title,omitempty"`
	Read           bool      `gorm:"default:false" json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
