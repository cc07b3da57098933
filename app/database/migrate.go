package database

import (
	"transcribe-cafe/app/model"
)

// AutoMigrate 自动迁移所有表结构
func AutoMigrate() error {
	return DB.AutoMigrate(
		&model.Video{},
		&model.Job{},
	)
}
