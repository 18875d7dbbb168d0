package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskValue(t *testing.T) {
	assert.Equal(t, masked, maskValue("DATABASE_PASSWORD", "tracker_pass"))
	assert.Equal(t, masked, maskValue("AUTH_JWT_SECRET", "supersecretkey"))
	assert.Equal(t, masked, maskValue("INGEST_TOKEN", "abc"))
	assert.Equal(t, "", maskValue("MQTT_PASSWORD", ""))
	assert.Equal(t, "localhost", maskValue("DATABASE_HOST", "localhost"))
	assert.Equal(t, "15m0s", maskValue("AUTH_ACCESS_TOKEN_TTL", "15m0s"))
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss", Database: "tracker"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/tracker?sslmode=disable", db.GetDSN())

	mq := RabbitMQConfig{Host: "mq", Port: "5672", User: "guest", Password: "guest"}
	assert.Equal(t, "amqp://guest:guest@mq:5672/", mq.GetDSN())
}
