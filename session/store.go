// Package session persists per-visitor state such as the guest cart.
package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ashkan-django/bookstore-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the key-value collaborator holding sessions.
type Store interface {
	// Load returns the session for key, or a fresh empty one when none is stored or it expired.
	Load(ctx context.Context, key string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, key string) error
}

// GormStore keeps sessions in the sessions table.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewGormStore(db *gorm.DB, ttl time.Duration) *GormStore {
	return &GormStore{db: db, ttl: ttl, now: time.Now}
}

func (s *GormStore) Load(ctx context.Context, key string) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).First(&sess, "session_key = ?", key).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.fresh(key), nil
	case err != nil:
		return nil, err
	}
	if sess.Expired(s.now()) {
		return s.fresh(key), nil
	}
	sess.Cart()
	return &sess, nil
}

func (s *GormStore) Save(ctx context.Context, sess *models.Session) error {
	sess.Cart()
	sess.ExpiresAt = s.now().Add(s.ttl)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"guest_cart", "last_purchase", "prevent_double_purchase", "expires_at", "updated_at"}),
	}).Create(sess).Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "session_key = ?", key).Error
}

// PurgeExpired drops sessions whose expiry has passed.
func (s *GormStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) fresh(key string) *models.Session {
	return &models.Session{Key: key, GuestCart: models.GuestCart{}}
}

// UserKey is the session key used for an authenticated user.
func UserKey(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// GuestKey is the session key used for a guest id issued by /auth/guest.
func GuestKey(guestID string) string {
	return "guest:" + guestID
}
