package database

import (
	"os"
	"path/filepath"
	"transcribe-cafe/app/config"
	"transcribe-cafe/app/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 全局数据库实例
var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config, log *logger.Logger) error {
	var (
		db  *gorm.DB
		err error
	)

	if cfg.Database.IsPostgres() {
		db, err = gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	} else {
		// SQLite：确保数据库文件目录存在
		if dir := filepath.Dir(cfg.Database.URL); dir != "." {
			if mkErr := ensureDir(dir); mkErr != nil {
				log.Errorf("创建数据库目录失败: %v", mkErr)
				return mkErr
			}
		}
		db, err = gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{})
	}
	if err != nil {
		log.Errorf("连接数据库失败: %v", err)
		return err
	}

	DB = db
	log.Infof("数据库连接成功: %s", cfg.Database.URL)

	// 自动迁移表结构
	if err := AutoMigrate(); err != nil {
		log.Errorf("数据库迁移失败: %v", err)
		return err
	}

	return nil
}

// Close 关闭数据库连接
func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	return DB
}

// ensureDir 确保目录存在
func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
