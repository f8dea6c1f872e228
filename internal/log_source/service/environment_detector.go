package service

import (
	"github.com/Avi18971911/jellylog/internal/log_source/model"
	"os"
	"runtime"
)

var systemdUnitFiles = []string{
	"/etc/systemd/system/jellyfin.service",
	"/lib/systemd/system/jellyfin.service",
}

type EnvironmentDetector struct {
	getenv     func(string) string
	fileExists func(string) bool
	goos       string
}

func NewEnvironmentDetector() *EnvironmentDetector {
	return &EnvironmentDetector{
		getenv:     os.Getenv,
		fileExists: fileExists,
		goos:       runtime.GOOS,
	}
}

func (ed *EnvironmentDetector) Detect() model.Environment {
	if ed.fileExists("/.dockerenv") {
		return model.Docker
	}
	for _, variable := range model.LogDirVariables {
		if ed.getenv(variable) != "" {
			return model.Docker
		}
	}
	if ed.goos == "windows" {
		if ed.fileExists(expandWindowsVariables(`%PROGRAMDATA%\Jellyfin\Server`, ed.getenv)) {
			return model.WindowsService
		}
		return model.WindowsNative
	}
	for _, unit := range systemdUnitFiles {
		if ed.fileExists(unit) {
			return model.LinuxService
		}
	}
	return model.Native
}

// Variables returns the media server variables and their values, empty when unset.
func (ed *EnvironmentDetector) Variables() map[string]string {
	values := make(map[string]string, len(model.LogDirVariables))
	for _, variable := range model.LogDirVariables {
		values[variable] = ed.getenv(variable)
	}
	return values
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
