package store

import (
	"time"

	"github.com/MrEthical07/mailAuth"
)

type userModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:255;uniqueIndex:users_email_key;not null"`
	Name         string `gorm:"size:255;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	IsActive     bool   `gorm:"not null;default:false"`
	IsVerified   bool   `gorm:"not null;default:false"`
	RememberMe   bool   `gorm:"not null;default:false"`
	IsStaff      bool   `gorm:"not null;default:false"`
	IsSuperuser  bool   `gorm:"not null;default:false"`
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

func (m *userModel) record() mailAuth.UserRecord {
	return mailAuth.UserRecord{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		IsVerified:   m.IsVerified,
		RememberMe:   m.RememberMe,
		IsStaff:      m.IsStaff,
		IsSuperuser:  m.IsSuperuser,
		LastLogin:    m.LastLogin,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type profileModel struct {
	UserID string `gorm:"primaryKey;size:36"`
	Avatar string `gorm:"size:255;not null;default:''"`
	Bio    string `gorm:"size:200;not null;default:''"`
	Gender string `gorm:"size:10;not null;default:''"`
}

func (profileModel) TableName() string { return "profiles" }

// profileRow is the users join profiles projection returned to the engine.
type profileRow struct {
	UserID string
	Email  string
	Name   string
	Avatar string
	Bio    string
	Gender string
}

func (r *profileRow) record() mailAuth.ProfileRecord {
	return mailAuth.ProfileRecord{
		UserID: r.UserID,
		Email:  r.Email,
		Name:   r.Name,
		Bio:    r.Bio,
		Gender: mailAuth.Gender(r.Gender),
		Avatar: r.Avatar,
	}
}

type outstandingTokenModel struct {
	JTI       string `gorm:"column:jti;primaryKey;size:64"`
	UserID    string `gorm:"size:36;not null"`
	Token     string `gorm:"not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null"`
}

func (outstandingTokenModel) TableName() string { return "outstanding_tokens" }

func (m *outstandingTokenModel) record() mailAuth.OutstandingToken {
	return mailAuth.OutstandingToken{
		JTI:       m.JTI,
		UserID:    m.UserID,
		Token:     m.Token,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}

type blacklistedTokenModel struct {
	JTI           string    `gorm:"column:jti;primaryKey;size:64"`
	BlacklistedAt time.Time `gorm:"not null"`
}

func (blacklistedTokenModel) TableName() string { return "blacklisted_tokens" }
