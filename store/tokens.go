package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/MrEthical07/mailAuth"
)

// TokenStore implements [mailAuth.TokenStore] over the outstanding_tokens
// and blacklisted_tokens tables.
type TokenStore struct {
	db *gorm.DB
}

var _ mailAuth.TokenStore = (*TokenStore)(nil)

func (s *TokenStore) SaveOutstanding(ctx context.Context, tok mailAuth.OutstandingToken) error {
	created := tok.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	m := outstandingTokenModel{
		JTI:       tok.JTI,
		UserID:    tok.UserID,
		Token:     tok.Token,
		CreatedAt: created.UTC(),
		ExpiresAt: tok.ExpiresAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *TokenStore) GetOutstanding(ctx context.Context, jti string) (mailAuth.OutstandingToken, error) {
	var m outstandingTokenModel
	if err := s.db.WithContext(ctx).Where("jti = ?", jti).Take(&m).Error; err != nil {
		if isNotFound(err) {
			return mailAuth.OutstandingToken{}, mailAuth.ErrTokenNotFound
		}
		return mailAuth.OutstandingToken{}, unavailable(err)
	}
	return m.record(), nil
}

// Blacklist records the revocation of jti. The primary key on
// blacklisted_tokens makes a second revocation fail with
// [mailAuth.ErrTokenAlreadyRevoked].
func (s *TokenStore) Blacklist(ctx context.Context, jti string, at time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&outstandingTokenModel{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
			return unavailable(err)
		}
		if count == 0 {
			return mailAuth.ErrTokenNotFound
		}
		if err := tx.Create(&blacklistedTokenModel{JTI: jti, BlacklistedAt: at.UTC()}).Error; err != nil {
			if isDuplicate(err) {
				return mailAuth.ErrTokenAlreadyRevoked
			}
			return unavailable(err)
		}
		return nil
	})
	return err
}

func (s *TokenStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&blacklistedTokenModel{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		return false, unavailable(err)
	}
	return count > 0, nil
}

// FlushExpired deletes outstanding tokens whose expiry is before now,
// together with their blacklist entries, and returns the number of
// outstanding rows removed.
func (s *TokenStore) FlushExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&outstandingTokenModel{}).Select("jti").Where("expires_at < ?", now.UTC())
		if err := tx.Where("jti IN (?)", expired).Delete(&blacklistedTokenModel{}).Error; err != nil {
			return unavailable(err)
		}
		res := tx.Where("expires_at < ?", now.UTC()).Delete(&outstandingTokenModel{})
		if res.Error != nil {
			return unavailable(res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
