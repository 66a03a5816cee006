package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/latchjack/burger/pkg/burger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ConfigYAML(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Gateway.Port)
	assert.Equal(t, 5*time.Second, cfg.Etcd.DialTimeout)
	assert.Equal(t, "orders_topic", cfg.RabbitMQ.Exchange)
	assert.NotEmpty(t, cfg.MySQL.Host)

	menu, err := cfg.Menu.BuildMenu()
	require.NoError(t, err)
	assert.Equal(t, []string{burger.Salad, burger.Bacon, burger.Cheese, burger.Meat}, menu.Names)
	assert.True(t, menu.BasePrice.Equal(burger.DefaultMenu().BasePrice))
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BURGER_GATEWAY_PORT", "9090")

	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Gateway.Port)
}

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mysql:\n  host: db\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.MySQL.Host)
	assert.Equal(t, 50052, cfg.Server.Port)
	assert.Equal(t, "/services/", cfg.Etcd.Prefix)
	assert.Empty(t, cfg.RabbitMQ.URL)

	menu, err := cfg.Menu.BuildMenu()
	require.NoError(t, err)
	assert.Equal(t, burger.DefaultMenu().Names, menu.Names)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	c := MySQLConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "burger"}
	assert.Equal(t, "u:p@tcp(db:3306)/burger?charset=utf8mb4&parseTime=True&loc=Local", c.DSN())
}

func TestNewLogger(t *testing.T) {
	c := LogConfig{Level: "debug", Encoding: "console", OutputPaths: []string{"stderr"}}
	log, err := c.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, log)

	c.Level = "loud"
	_, err = c.NewLogger()
	assert.Error(t, err)
}
