package model

import (
	"time"
)

// User 通过 Discord OAuth 登录后落库的用户目录，DiscordID 为唯一身份。
// swagger:model User
type User struct {
	BaseModel
	DiscordID   string    `gorm:"size:32;uniqueIndex;not null" json:"discordId"`
	Email       string    `gorm:"size:255" json:"email"`
	Username    string    `gorm:"size:100" json:"username"`
	DisplayName string    `gorm:"size:100" json:"displayName"`
	Avatar      string    `gorm:"size:255" json:"avatar"`
	LastLogin   time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

// Name 返回展示用名称：昵称 > 用户名 > 邮箱
func (u *User) Name() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
