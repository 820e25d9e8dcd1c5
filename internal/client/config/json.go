package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mediaqr/internal/flagx"
	"github.com/dmitrijs2005/mediaqr/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Intervals use timex.Duration so they can be written as "3s" or as integer
// nanoseconds.
type JsonConfig struct {
	APIURL              string         `json:"api_url"`
	PublicURL           string         `json:"public_url"`
	AgentURL            string         `json:"agent_url"`
	DatabasePath        string         `json:"database_path"`
	ExportDir           string         `json:"export_dir"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c/-config (or MEDIAQR_CONFIG). Fields absent from the file keep their
// current value. Read and unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIURL, jc.APIURL)
	setString(&cfg.PublicURL, jc.PublicURL)
	setString(&cfg.AgentURL, jc.AgentURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.ExportDir, jc.ExportDir)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
