package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"

	"github.com/piyushmishra0/Modex-System/internal/shared/config"
)

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, gormLogLevel(&config.Config{GinMode: "debug"}))
	assert.Equal(t, gormlogger.Silent, gormLogLevel(&config.Config{GinMode: "release"}))
}

func TestConstraintStatements_PairLeaseColumnsWithPending(t *testing.T) {
	var joined string
	for _, stmt := range constraintStatements {
		joined += stmt
	}
	assert.Contains(t, joined, "(status = 'PENDING') = (locked_until IS NOT NULL)")
	assert.Contains(t, joined, "(status = 'PENDING') = (hold_id IS NOT NULL)")
}
