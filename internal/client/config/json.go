package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cribfeed/internal/flagx"
	"github.com/dmitrijs2005/cribfeed/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Absent fields keep the value
// from the previous layer.
type JsonConfig struct {
	StoragePath      *string         `json:"storage_path"`
	Backend          string          `json:"backend"`
	DatabaseDSN      string          `json:"database_dsn"`
	SecretKey        string          `json:"secret_key"`
	TokenValidity    *timex.Duration `json:"token_validity"`
	PasswordCost     *int            `json:"password_cost"`
	OperationTimeout *timex.Duration `json:"operation_timeout"`
	AckTimeout       *timex.Duration `json:"ack_timeout"`
	LatencyMin       *timex.Duration `json:"latency_min"`
	LatencyMax       *timex.Duration `json:"latency_max"`
	AckMode          string          `json:"ack_mode"`
	AckEndpoint      string          `json:"ack_endpoint"`
	Demo             *bool           `json:"demo"`
	LogBackend       string          `json:"log_backend"`
	Debug            *bool           `json:"debug"`
	S3Region         string          `json:"s3_region"`
	S3AccessKey      string          `json:"s3_access_key"`
	S3SecretKey      string          `json:"s3_secret_key"`
	S3Endpoint       string          `json:"s3_endpoint"`
	S3Bucket         string          `json:"s3_bucket"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	if jc.StoragePath != nil {
		cfg.StoragePath = *jc.StoragePath
	}
	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.SecretKey, jc.SecretKey)
	setString(&cfg.AckMode, jc.AckMode)
	setString(&cfg.AckEndpoint, jc.AckEndpoint)
	setString(&cfg.LogBackend, jc.LogBackend)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3Bucket, jc.S3Bucket)

	if jc.TokenValidity != nil {
		cfg.TokenValidity = jc.TokenValidity.Duration
	}
	if jc.OperationTimeout != nil {
		cfg.OperationTimeout = jc.OperationTimeout.Duration
	}
	if jc.AckTimeout != nil {
		cfg.AckTimeout = jc.AckTimeout.Duration
	}
	if jc.LatencyMin != nil {
		cfg.LatencyMin = jc.LatencyMin.Duration
	}
	if jc.LatencyMax != nil {
		cfg.LatencyMax = jc.LatencyMax.Duration
	}
	if jc.PasswordCost != nil {
		cfg.PasswordCost = *jc.PasswordCost
	}
	if jc.Demo != nil {
		cfg.Demo = *jc.Demo
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
}
