package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/zucenko/salvo/model"
)

const FileName = "salvo.cfg.json"

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	SendBuffer     int           `mapstructure:"sendBuffer"`
}

type ClientConfig struct {
	ServerUrl string `mapstructure:"serverUrl"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("game.preset", model.PresetScatter)
	viper.SetDefault("game.seed", 0)
	viper.SetDefault("game.player1Name", "Player 1")
	viper.SetDefault("game.player2Name", "Player 2")
	viper.SetDefault("game.layoutFile", "")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.requestTimeout", "200ms")
	viper.SetDefault("server.sendBuffer", 10)

	viper.SetDefault("client.serverUrl", "ws://localhost:8080/play")
	viper.SetDefault("client.width", 1040)
	viper.SetDefault("client.height", 600)
}

// Load sets defaults, binds the environment and reads salvo.cfg.json from
// configDir when it exists. PORT is honoured for the server port.
func Load(configDir string) error {
	setDefaults()

	if err := viper.BindEnv("server.port", "PORT"); err != nil {
		return fmt.Errorf("binding PORT: %w", err)
	}
	viper.SetEnvPrefix("salvo")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		log.Infof("no %s in %s, using defaults", FileName, configDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	log.Infof("config loaded from %s", viper.ConfigFileUsed())
	return nil
}

// GetGameSetup starts from the configured preset and applies overrides.
// A layout file replaces the preset's field and unit positions.
func GetGameSetup() (model.Setup, error) {
	setup, err := model.PresetSetup(viper.GetString("game.preset"))
	if err != nil {
		return setup, err
	}
	if viper.IsSet("game.mirrorOwnShots") {
		setup.MirrorOwnShots = viper.GetBool("game.mirrorOwnShots")
	}
	if viper.IsSet("game.fieldWidth") {
		setup.Field.Width = viper.GetFloat64("game.fieldWidth")
	}
	if viper.IsSet("game.fieldHeight") {
		setup.Field.Height = viper.GetFloat64("game.fieldHeight")
	}
	if viper.IsSet("game.unitCount") {
		setup.UnitCount = viper.GetInt("game.unitCount")
		setup.Fixed = nil
	}
	setup.Player1Name = viper.GetString("game.player1Name")
	setup.Player2Name = viper.GetString("game.player2Name")

	if path := viper.GetString("game.layoutFile"); path != "" {
		setup, err = model.LoadLayout(path, setup)
		if err != nil {
			return setup, err
		}
	}
	return setup, setup.Validate()
}

func GetSeed() int64 {
	return viper.GetInt64("game.seed")
}

func GetServerConfig() ServerConfig {
	var sc ServerConfig
	if err := viper.UnmarshalKey("server", &sc); err != nil {
		log.Warnf("server config: %v", err)
	}
	// UnmarshalKey skips keys that only exist as env bindings.
	sc.Port = viper.GetString("server.port")
	return sc
}

func GetClientConfig() ClientConfig {
	var cc ClientConfig
	if err := viper.UnmarshalKey("client", &cc); err != nil {
		log.Warnf("client config: %v", err)
	}
	return cc
}

// GetLogLevel falls back to info on unknown level names.
func GetLogLevel() log.Level {
	level, err := log.ParseLevel(viper.GetString("logLevel"))
	if err != nil {
		log.Warnf("unknown logLevel %q, using info", viper.GetString("logLevel"))
		return log.InfoLevel
	}
	return level
}
