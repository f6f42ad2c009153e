package api

import (
	"sync"

	"github.com/FerDoranNie/Video-judgement/logging"
	"github.com/spf13/viper"
)

type Config struct {
	StorageConfig
	ServerConfig
	SessionConfig
}

type StorageConfig struct {
	// Backend is dynamo, sqlite or memory.
	Backend              string
	TableNameTournaments string
	TableNameVotes       string
	SQLitePath           string
}

type ServerConfig struct {
	Port int
}

type SessionConfig struct {
	StoreTimeoutSeconds int
}

var settingsOnce sync.Once

func ReadConfig() *Config {

	var conf = &Config{
		StorageConfig: StorageConfig{
			Backend:              getStringOrDefault("storage.Backend", "dynamo"),
			TableNameTournaments: viper.GetString("storage.TableNameTournaments"),
			TableNameVotes:       viper.GetString("storage.TableNameVotes"),
			SQLitePath:           getStringOrDefault("storage.SQLitePath", "video-judgement.db"),
		},
		ServerConfig: ServerConfig{
			Port: getIntOrDefault("server.port", 8080),
		},
		SessionConfig: SessionConfig{
			StoreTimeoutSeconds: getIntOrDefault("session.StoreTimeoutSeconds", 30),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
