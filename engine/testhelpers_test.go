package engine

import (
	"testing"

	"github.com/Spark-Project-Pulse/backend/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory database per test so transactional behavior
// runs against a real store instead of mocks.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Question{},
		&models.Answer{},
		&models.Comment{},
		&models.Vote{},
		&models.Community{},
		&models.CommunityMembership{},
		&models.Badge{},
		&models.BadgeTier{},
		&models.UserBadge{},
		&models.UserBadgeProgress{},
		&models.TagReputation{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func testEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db := testDB(t)
	return New(db), db
}

func createUser(t *testing.T, db *gorm.DB, username string, reputation int64) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "x", Reputation: reputation}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func createQuestion(t *testing.T, db *gorm.DB, askerID *uint, communityID *uint, tags ...models.Tag) *models.Question {
	t.Helper()
	q := &models.Question{
		AskerID:     askerID,
		CommunityID: communityID,
		Title:       "How does this work?",
		Description: "Details inside.",
		Tags:        tags,
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

func createAnswer(t *testing.T, db *gorm.DB, questionID uint, expertID *uint) *models.Answer {
	t.Helper()
	a := &models.Answer{QuestionID: questionID, ExpertID: expertID, Response: "Like this."}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}
	return a
}

func createTag(t *testing.T, db *gorm.DB, name string) models.Tag {
	t.Helper()
	tag := models.Tag{Name: name}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("create tag %s: %v", name, err)
	}
	return tag
}

func answerScore(t *testing.T, db *gorm.DB, answerID uint) int64 {
	t.Helper()
	var a models.Answer
	if err := db.First(&a, answerID).Error; err != nil {
		t.Fatalf("load answer %d: %v", answerID, err)
	}
	return a.Score
}

func voteRowCount(t *testing.T, db *gorm.DB, userID, answerID uint) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Vote{}).Where("user_id = ? AND answer_id = ?", userID, answerID).Count(&count).Error; err != nil {
		t.Fatalf("count votes: %v", err)
	}
	return count
}

// tiersFor builds a badge with tiers at the given thresholds, tier levels
// running 1..n.
func createBadge(t *testing.T, db *gorm.DB, name string, global bool, tagID *uint, thresholds ...int64) *models.Badge {
	t.Helper()
	b := &models.Badge{Name: name, IsGlobal: global, AssociatedTagID: tagID}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("create badge %s: %v", name, err)
	}
	for i, th := range thresholds {
		tier := models.BadgeTier{
			BadgeID:             b.ID,
			TierLevel:           uint(i + 1),
			Name:                name,
			ReputationThreshold: th,
		}
		if err := db.Create(&tier).Error; err != nil {
			t.Fatalf("create tier %d for %s: %v", i+1, name, err)
		}
		b.Tiers = append(b.Tiers, tier)
	}
	return b
}
