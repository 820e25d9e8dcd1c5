package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd", "-a", "http://api:9000", "-p", "https://qr.example", "-g", "http://agent:1", "-d", "/tmp/h.db", "-o", "out", "-i", "10"},
			expected: &Config{APIURL: "http://api:9000", PublicURL: "https://qr.example", AgentURL: "http://agent:1", DatabasePath: "/tmp/h.db", ExportDir: "out", OnlineCheckInterval: 10 * time.Second}},
		{name: "unknown flags ignored", args: []string{"cmd", "-x", "y", "-a", "http://api:9000", "-config", "c.json"},
			expected: &Config{APIURL: "http://api:9000"}},
		{name: "incorrect check interval", args: []string{"cmd", "-a", "http://api:9000", "-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
