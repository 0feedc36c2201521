package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "evcenter-api", cfg.App.Name)
	assert.Equal(t, TxModeAuto, cfg.Mongo.Transactions)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, time.Minute, cfg.Scheduler.AutoCancelEvery)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("MONGO_TRANSACTIONS", "Disabled")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SCHEDULER_AUTO_CANCEL_EVERY", "30s")
	t.Setenv("SCHEDULER_REMINDERS_EVERY", "120")
	t.Setenv("DB_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, TxModeDisabled, cfg.Mongo.Transactions)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.AutoCancelEvery)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.RemindersEvery)
	assert.False(t, cfg.DB.Migrate)
}

func TestLoad_TransactionModeInvalido(t *testing.T) {
	t.Setenv("MONGO_TRANSACTIONS", "sometimes")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_ProduccionSinSecret(t *testing.T) {
	cfg := &Config{
		App:         AppConfig{Env: "production"},
		HTTP:        HTTPConfig{Port: 8080},
		Mongo:       MongoConfig{Transactions: TxModeAuto},
		Reservation: ReservationConfig{ExpiryBatch: 10},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "s3cr3t"
	assert.NoError(t, cfg.Validate())
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "ev", Password: "p@ss:word", DBName: "evcenter", SSLMode: "disable"}
	assert.Equal(t, "postgres://ev:p%40ss%3Aword@db:5432/evcenter?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://other"
	assert.Equal(t, "postgres://other", c.ConnectionString())
}
