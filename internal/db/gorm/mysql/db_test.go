package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"image_compression/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.MYSQL{Host: "db", Port: "3306", Username: "root", Password: "secret", Dbname: "images"})
	assert.Equal(t, "root:secret@tcp(db:3306)/images?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}
