package repository

import (
	"context"
	"errors"

	"modtraining_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// UpsertByDiscordID 登录时写入或刷新用户资料
func (r *UserRepository) UpsertByDiscordID(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "discord_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "username", "display_name", "avatar", "last_login", "updated_at"}),
	}).Create(user).Error
}

func (r *UserRepository) FindByDiscordID(ctx context.Context, discordID string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("discord_id = ?", discordID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}
