package engine

import (
	"errors"
	"fmt"

	"github.com/Spark-Project-Pulse/backend/models"

	"gorm.io/gorm"
)

// Notification triggers. Each domain event fires its trigger exactly once, so
// one event always yields exactly one notification row.

// handleNewAnswer notifies the asker about a fresh answer. Answering your own
// question stays silent. Runs inside the answer-creation transaction.
func handleNewAnswer(tx *gorm.DB, answer *models.Answer, question *models.Question) error {
	if question.AskerID == nil {
		return nil
	}
	if answer.ExpertID != nil && *answer.ExpertID == *question.AskerID {
		return nil
	}
	return tx.Create(&models.Notification{
		RecipientID: *question.AskerID,
		ActorID:     answer.ExpertID,
		Type:        models.NotificationQuestionAnswered,
		Message:     models.NotificationMessages[models.NotificationQuestionAnswered],
		QuestionID:  &question.ID,
		AnswerID:    &answer.ID,
	}).Error
}

// RecordCommentCreated notifies the answer author about a fresh comment.
// Commenting on your own answer stays silent, as does commenting on an answer
// whose author was anonymized away.
func (e *Engine) RecordCommentCreated(comment *models.Comment) error {
	var answer models.Answer
	err := e.db.First(&answer, comment.AnswerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: answer %d", ErrNotFound, comment.AnswerID)
	}
	if err != nil {
		return err
	}
	if answer.ExpertID == nil {
		return nil
	}
	if comment.ExpertID != nil && *comment.ExpertID == *answer.ExpertID {
		return nil
	}
	return e.db.Create(&models.Notification{
		RecipientID: *answer.ExpertID,
		ActorID:     comment.ExpertID,
		Type:        models.NotificationAnswerCommented,
		Message:     models.NotificationMessages[models.NotificationAnswerCommented],
		QuestionID:  &answer.QuestionID,
		AnswerID:    &answer.ID,
	}).Error
}

// NotifyCommunityAccepted tells the owner their community request went
// through.
func (e *Engine) NotifyCommunityAccepted(community *models.Community) error {
	if community.OwnerID == nil {
		return nil
	}
	return e.db.Create(&models.Notification{
		RecipientID:    *community.OwnerID,
		Type:           models.NotificationCommunityAccepted,
		Message:        models.NotificationMessages[models.NotificationCommunityAccepted],
		CommunityID:    &community.ID,
		CommunityTitle: &community.Title,
	}).Error
}

// NotifyCommunityRejected carries only the title: the community row is
// deleted as part of the rejection and cannot be referenced.
func (e *Engine) NotifyCommunityRejected(ownerID uint, communityTitle string) error {
	return e.db.Create(&models.Notification{
		RecipientID:    ownerID,
		Type:           models.NotificationCommunityRejected,
		Message:        models.NotificationMessages[models.NotificationCommunityRejected],
		CommunityTitle: &communityTitle,
	}).Error
}

// MarkNotificationRead flips the notification to read for its recipient.
// Returns false both when the row does not exist and when the caller is not
// the recipient; the two cases are deliberately indistinguishable. Marking an
// already-read notification again succeeds as a no-op.
func (e *Engine) MarkNotificationRead(userID, notificationID uint) (bool, error) {
	return e.setRead(userID, notificationID, true)
}

// MarkNotificationUnread is the reverse transition of MarkNotificationRead.
func (e *Engine) MarkNotificationUnread(userID, notificationID uint) (bool, error) {
	return e.setRead(userID, notificationID, false)
}

func (e *Engine) setRead(userID, notificationID uint, read bool) (bool, error) {
	var n models.Notification
	err := e.db.Where("id = ? AND recipient_id = ?", notificationID, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if n.Read == read {
		return true, nil
	}
	if err := e.db.Model(&n).UpdateColumn("read", read).Error; err != nil {
		return false, err
	}
	return true, nil
}

// DeleteNotification removes the notification for its recipient. Deleting a
// notification that is gone (or never was theirs) reports false.
func (e *Engine) DeleteNotification(userID, notificationID uint) (bool, error) {
	res := e.db.Where("id = ? AND recipient_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
