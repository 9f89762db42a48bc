package config

import (
	"fmt"
	"os"
)

const nodeTemplate = `node = "airlink"

[link]
bridge = "127.0.0.1:7710"
chunk_size = 512
frame_delay_ms = 20
inbound_queue = 32
reassembly_ttl_ms = 30000
sweep_interval_ms = 5000

[voice]
min_bytes = 2048
min_rms = 0.01
analysis_window_ms = 250
sample_rate = 16000
max_attempts = 2
retry_base_delay_ms = 2000

[diag]
addr = ":9710"
cors_origins = ["http://localhost:3000"]
`

// WriteTemplate writes the starter config to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(nodeTemplate), 0o600)
}
