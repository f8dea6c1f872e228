package service

import (
	"fmt"
	"github.com/Avi18971911/jellylog/internal/log_source/model"
	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var logExtensions = []string{".log", ".txt"}

var logNameHints = []string{"jellyfin", "server", "error", "debug", "info", "warn", "trace"}

var dockerLogDirs = []string{
	"/config/log/",
	"/config/logs/",
	"/jellyfin/config/log/",
	"/jellyfin/log/",
	"/data/log/",
	"/data/logs/",
	"/app/jellyfin/log/",
	"/usr/lib/jellyfin/log/",
	"/var/log/jellyfin/",
}

var windowsServiceLogDirs = []string{
	`%PROGRAMDATA%\Jellyfin\Server\log`,
	`%PROGRAMDATA%\Jellyfin\log`,
}

var windowsNativeLogDirs = []string{
	`%APPDATA%\Jellyfin\log`,
	`%LOCALAPPDATA%\Jellyfin\log`,
	`~\AppData\Roaming\Jellyfin\log`,
	`~\AppData\Local\Jellyfin\log`,
}

var linuxServiceLogDirs = []string{
	"/var/log/jellyfin/",
	"/var/lib/jellyfin/log/",
	"/etc/jellyfin/log/",
}

var fallbackLogDirs = []string{
	"~/.config/jellyfin/log/",
	"~/.local/share/jellyfin/log/",
	"~/jellyfin/log/",
	"/opt/jellyfin/log/",
	"/usr/share/jellyfin/log/",
	"./log/",
	"./logs/",
	"../log/",
	"../logs/",
	"./jellyfin/log/",
	"./config/log/",
	"~/snap/jellyfin/current/.config/jellyfin/log/",
	"~/.var/app/org.jellyfin.JellyfinServer/config/jellyfin/log/",
}

var windowsFallbackLogDirs = []string{`%USERPROFILE%\jellyfin\log`}

type LogDiscovery struct {
	detector *EnvironmentDetector
	getenv   func(string) string
	home     string
	goos     string
	logger   *zap.Logger
}

func NewLogDiscovery(detector *EnvironmentDetector, logger *zap.Logger) *LogDiscovery {
	home, err := os.UserHomeDir()
	if err != nil {
		logger.Debug("Failed to resolve home directory", zap.Error(err))
	}
	return &LogDiscovery{
		detector: detector,
		getenv:   os.Getenv,
		home:     home,
		goos:     runtime.GOOS,
		logger:   logger,
	}
}

// Discover finds log files for the detected environment, checking the media server's own
// variables first. Results are de-duplicated by absolute path and keep discovery order.
func (ld *LogDiscovery) Discover() []string {
	environment := ld.detector.Detect()
	ld.logger.Info("Detected environment", zap.String("environment", string(environment)))

	var candidates []string
	for _, variable := range model.LogDirVariables {
		dir := ld.getenv(variable)
		if dir == "" {
			continue
		}
		if !strings.HasSuffix(strings.TrimRight(dir, `/\`), "log") {
			dir = filepath.Join(dir, "log")
		}
		candidates = append(candidates, ld.scanDirectory(dir)...)
	}

	dirs := ld.environmentDirs(environment)
	dirs = append(dirs, fallbackLogDirs...)
	if ld.goos == "windows" {
		dirs = append(dirs, windowsFallbackLogDirs...)
	}
	for _, dir := range dirs {
		candidates = append(candidates, ld.scanDirectory(ld.expand(dir))...)
	}
	return dedupeByAbsolutePath(candidates)
}

func (ld *LogDiscovery) environmentDirs(environment model.Environment) []string {
	switch environment {
	case model.Docker:
		return append([]string{}, dockerLogDirs...)
	case model.WindowsService:
		return append([]string{}, windowsServiceLogDirs...)
	case model.WindowsNative:
		return append([]string{}, windowsNativeLogDirs...)
	case model.LinuxService:
		return append([]string{}, linuxServiceLogDirs...)
	default:
		return nil
	}
}

// ExpandPaths resolves user supplied log paths. Glob patterns (including **) are expanded,
// directories are scanned for log files and anything else is passed through unchanged so that
// a missing file is reported when it is read.
func (ld *LogDiscovery) ExpandPaths(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		pattern = ld.expand(pattern)
		if strings.ContainsAny(pattern, "*?[{") {
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("failed to expand log path pattern %s: %w", pattern, err)
			}
			paths = append(paths, matches...)
			continue
		}
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			paths = append(paths, ld.scanDirectory(pattern)...)
			continue
		}
		paths = append(paths, pattern)
	}
	return dedupeByAbsolutePath(paths), nil
}

func (ld *LogDiscovery) scanDirectory(dir string) []string {
	info, err := os.Stat(dir)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		if IsLogFile(filepath.Base(dir)) {
			return []string{dir}
		}
		return nil
	}
	names, err := doublestar.Glob(os.DirFS(dir), "*", doublestar.WithFilesOnly())
	if err != nil {
		ld.logger.Warn("Cannot access log directory", zap.String("directory", dir), zap.Error(err))
		return nil
	}
	var files []string
	for _, name := range names {
		if IsLogFile(name) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	return files
}

func (ld *LogDiscovery) expand(path string) string {
	path = os.Expand(path, ld.getenv)
	path = expandWindowsVariables(path, ld.getenv)
	if ld.home != "" && (path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`)) {
		path = ld.home + path[1:]
	}
	return path
}

func expandWindowsVariables(path string, getenv func(string) string) string {
	var sb strings.Builder
	for {
		start := strings.Index(path, "%")
		if start < 0 {
			break
		}
		end := strings.Index(path[start+1:], "%")
		if end < 0 {
			break
		}
		name := path[start+1 : start+1+end]
		value := getenv(name)
		if value == "" {
			value = "%" + name + "%"
		}
		sb.WriteString(path[:start])
		sb.WriteString(value)
		path = path[start+end+2:]
	}
	sb.WriteString(path)
	return sb.String()
}

// IsLogFile reports whether a file name looks like a log by extension or name.
func IsLogFile(name string) bool {
	lower := strings.ToLower(name)
	for _, extension := range logExtensions {
		if strings.HasSuffix(lower, extension) {
			return true
		}
	}
	for _, hint := range logNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func dedupeByAbsolutePath(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	unique := make([]string, 0, len(paths))
	for _, path := range paths {
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, path)
	}
	return unique
}
