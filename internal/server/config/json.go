package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cribfeed/internal/flagx"
)

// JsonConfig is the JSON shape of Config. Empty fields keep the defaults.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn"`
	SecretKey        string `json:"secret_key"`
	LogBackend       string `json:"log_backend"`
	Debug            *bool  `json:"debug"`
}

// parseJson loads the file named by -c or -config into config.
// Without either flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFileFlag(args)
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.LogBackend != "" {
		config.LogBackend = c.LogBackend
	}
	if c.Debug != nil {
		config.Debug = *c.Debug
	}
	return nil
}
