package mysql

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"image_compression/config"
)

// DSN -.
func DSN(cfg config.MYSQL) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Dbname)
}

func NewDB(cfg config.MYSQL) *gorm.DB {
	db, err := gorm.Open(mysql.New(mysql.Config{DSN: DSN(cfg)}), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("unable to open db connection")
	}

	err = db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Dbname)))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set gorm plugin for opentelemetry ")
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql db")
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	return db
}
