package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MrEthical07/mailAuth"
)

// UserStore implements [mailAuth.UserStore].
type UserStore struct {
	db *gorm.DB
}

var _ mailAuth.UserStore = (*UserStore)(nil)

// CreateUser inserts the user and its empty profile in one transaction.
func (s *UserStore) CreateUser(ctx context.Context, in mailAuth.CreateUserInput) (mailAuth.UserRecord, error) {
	user := userModel{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: in.PasswordHash,
		IsActive:     in.IsActive,
		IsVerified:   in.IsVerified,
		RememberMe:   in.RememberMe,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&profileModel{UserID: user.ID}).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return mailAuth.UserRecord{}, mailAuth.ErrDuplicateEmail
		}
		return mailAuth.UserRecord{}, unavailable(err)
	}
	return user.record(), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (mailAuth.UserRecord, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) GetUserByID(ctx context.Context, userID string) (mailAuth.UserRecord, error) {
	return s.first(ctx, "id = ?", userID)
}

func (s *UserStore) first(ctx context.Context, query string, arg string) (mailAuth.UserRecord, error) {
	var user userModel
	if err := s.db.WithContext(ctx).Where(query, arg).Take(&user).Error; err != nil {
		if isNotFound(err) {
			return mailAuth.UserRecord{}, mailAuth.ErrUserNotFound
		}
		return mailAuth.UserRecord{}, unavailable(err)
	}
	return user.record(), nil
}

func (s *UserStore) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return s.update(ctx, userID, map[string]any{"password_hash": hash})
}

// MarkVerified sets is_verified and is_active together.
func (s *UserStore) MarkVerified(ctx context.Context, userID string) error {
	return s.update(ctx, userID, map[string]any{"is_verified": true, "is_active": true})
}

func (s *UserStore) TouchLastLogin(ctx context.Context, userID string, at time.Time, rememberMe *bool) error {
	fields := map[string]any{"last_login": at.UTC()}
	if rememberMe != nil {
		fields["remember_me"] = *rememberMe
	}
	return s.update(ctx, userID, fields)
}

func (s *UserStore) update(ctx context.Context, userID string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return mailAuth.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) GetProfile(ctx context.Context, userID string) (mailAuth.ProfileRecord, error) {
	row, err := loadProfile(s.db.WithContext(ctx), userID)
	if err != nil {
		return mailAuth.ProfileRecord{}, err
	}
	return row.record(), nil
}

// UpdateProfile writes the non-nil fields of update. The name lives on the
// users table; everything else on profiles.
func (s *UserStore) UpdateProfile(ctx context.Context, userID string, update mailAuth.ProfileUpdate) (mailAuth.ProfileRecord, error) {
	var row profileRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadProfile(tx, userID); err != nil {
			return err
		}

		if update.Name != nil {
			if err := tx.Model(&userModel{}).Where("id = ?", userID).
				Updates(map[string]any{"name": *update.Name}).Error; err != nil {
				return unavailable(err)
			}
		}

		fields := map[string]any{}
		if update.Bio != nil {
			fields["bio"] = *update.Bio
		}
		if update.Gender != nil {
			fields["gender"] = string(*update.Gender)
		}
		if update.Avatar != nil {
			fields["avatar"] = *update.Avatar
		}
		if len(fields) > 0 {
			if err := tx.Model(&profileModel{}).Where("user_id = ?", userID).
				Updates(fields).Error; err != nil {
				return unavailable(err)
			}
		}

		var err error
		row, err = loadProfile(tx, userID)
		return err
	})
	if err != nil {
		return mailAuth.ProfileRecord{}, err
	}
	return row.record(), nil
}

func loadProfile(db *gorm.DB, userID string) (profileRow, error) {
	var row profileRow
	err := db.Table("users").
		Select("users.id AS user_id, users.email, users.name, profiles.avatar, profiles.bio, profiles.gender").
		Joins("JOIN profiles ON profiles.user_id = users.id").
		Where("users.id = ?", userID).
		Take(&row).Error
	if err != nil {
		if isNotFound(err) {
			return profileRow{}, mailAuth.ErrUserNotFound
		}
		return profileRow{}, unavailable(err)
	}
	return row, nil
}
