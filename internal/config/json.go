package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avoronov/peopledesk/internal/flagx"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. Duration fields are accepted as strings in
// time.ParseDuration format (e.g. "30m").
//
// This struct is an intermediate DTO used only for reading JSON config
// files; its fields are copied into the runtime Config afterwards.
type JsonConfig struct {
	DatabaseDSN            *string `json:"database_dsn"`
	HashIterations         *int    `json:"hash_iterations"`
	MinPasswordLength      *int    `json:"min_password_length"`
	DBWorkers              *int    `json:"db_workers"`
	IOWorkers              *int    `json:"io_workers"`
	QueueDepth             *int    `json:"queue_depth"`
	SessionTokenSecret     *string `json:"session_token_secret"`
	SessionTokenTTL        *string `json:"session_token_ttl"`
	BootstrapAdminUser     *string `json:"bootstrap_admin_user"`
	BootstrapAdminPassword *string `json:"bootstrap_admin_password"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config. The file path comes from the -c or -config flags; when neither is
// set, no JSON file is loaded. Absent fields keep their current values.
// A file that cannot be read or parsed is a startup error and panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.HashIterations != nil {
		config.HashIterations = *c.HashIterations
	}
	if c.MinPasswordLength != nil {
		config.MinPasswordLength = *c.MinPasswordLength
	}
	if c.DBWorkers != nil {
		config.DBWorkers = *c.DBWorkers
	}
	if c.IOWorkers != nil {
		config.IOWorkers = *c.IOWorkers
	}
	if c.QueueDepth != nil {
		config.QueueDepth = *c.QueueDepth
	}
	if c.SessionTokenSecret != nil {
		config.SessionTokenSecret = *c.SessionTokenSecret
	}
	if c.SessionTokenTTL != nil {
		d, err := time.ParseDuration(*c.SessionTokenTTL)
		if err != nil {
			panic(err)
		}
		config.SessionTokenTTL = d
	}
	if c.BootstrapAdminUser != nil {
		config.BootstrapAdminUser = *c.BootstrapAdminUser
	}
	if c.BootstrapAdminPassword != nil {
		config.BootstrapAdminPassword = *c.BootstrapAdminPassword
	}
}
