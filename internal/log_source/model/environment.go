package model

type Environment string

const (
	Docker         Environment = "docker"
	WindowsService Environment = "windows_service"
	WindowsNative  Environment = "windows_native"
	LinuxService   Environment = "linux_service"
	Native         Environment = "native"
)

// LogDirVariables are the media server's own variables that point at its log, data and config
// directories.
var LogDirVariables = []string{"JELLYFIN_LOG_DIR", "JELLYFIN_DATA_DIR", "JELLYFIN_CONFIG_DIR"}

// Source is one log file to analyse. Index is its position in the requested order.
type Source struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}
