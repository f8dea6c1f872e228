package service

import (
	"fmt"
	"github.com/Avi18971911/jellylog/internal/pipeline/detail_extractor/model"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	commandStartPattern   = regexp.MustCompile(`(?i)"?[^\s"]*ffmpeg(?:\.exe)?"?\s`)
	inputFlagPattern      = regexp.MustCompile(`\s-i\s`)
	subtitleFilterPattern = regexp.MustCompile(`(?i)\bsubtitles=`)
	subtitleFormatPattern = regexp.MustCompile(`(?i)\.(ass|srt|vtt)\b`)
	overlayPattern        = regexp.MustCompile(`(?i)\boverlay(?:_cuda|_qsv|_vaapi|_opencl|_vulkan)?\b`)
	scalePattern          = regexp.MustCompile(`(?i)\bscale(?:_cuda|_npp|_qsv|_vaapi|_opencl|_vulkan)?=(?:w=)?(\d+)[:x](?:h=)?(\d+)`)
	audioCopyPattern      = regexp.MustCompile(`(?i)-(?:c:a|codec:a|acodec)(?::\d+)?\s+copy\b`)
	audioCodecPattern     = regexp.MustCompile(`(?i)-(?:c:a|codec:a|acodec)(?::\d+)?\s+(\S+)`)
	audioFamilyPattern    = regexp.MustCompile(`(?i)\b(eac3|ac3|aac)\b`)
	audioChannelsPattern  = regexp.MustCompile(`(?i)\s-ac(?::\d+)?\s+(\d+)`)
	videoCopyPattern      = regexp.MustCompile(`(?i)-(?:c:v|codec:v|vcodec)(?::\d+)?\s+copy\b`)
	h264EncoderPattern    = regexp.MustCompile(`(?i)\b(libx264|h264_(?:nvenc|qsv|vaapi|amf|videotoolbox|v4l2m2m|rkmpp|mf|omx))\b`)
	hevcEncoderPattern    = regexp.MustCompile(`(?i)\b(libx265|hevc_(?:nvenc|qsv|vaapi|amf|videotoolbox|v4l2m2m|rkmpp|mf))\b`)
	videoBitratePattern   = regexp.MustCompile(`(?i)-b:v(?::\d+)?\s+(\d+(?:\.\d+)?)([kmg]?)\b`)
	hwaccelPattern        = regexp.MustCompile(`(?i)-hwaccel\s+(\S+)`)
)

type commandRule struct {
	name    string
	analyze func(command string, analysis *model.CommandAnalysis)
}

// commandRules run in root-cause-first order and every rule is evaluated.
var commandRules = []commandRule{
	{name: "subtitle_burn_in", analyze: analyzeSubtitleBurnIn},
	{name: "subtitle_overlay", analyze: analyzeSubtitleOverlay},
	{name: "resolution", analyze: analyzeResolution},
	{name: "audio", analyze: analyzeAudio},
	{name: "video_codec", analyze: analyzeVideoCodec},
	{name: "bandwidth", analyze: analyzeBandwidth},
	{name: "hardware_acceleration", analyze: analyzeHardwareAcceleration},
}

// FindCommand returns the encoder command line embedded in a message, or "" when there is none.
func FindCommand(message string) string {
	loc := commandStartPattern.FindStringIndex(message)
	if loc == nil {
		return ""
	}
	command := strings.TrimSpace(message[loc[0]:])
	if !inputFlagPattern.MatchString(command) {
		return ""
	}
	return command
}

func AnalyzeCommand(command string) model.CommandAnalysis {
	analysis := model.CommandAnalysis{Command: command}
	for _, rule := range commandRules {
		rule.analyze(command, &analysis)
	}
	return analysis
}

func analyzeSubtitleBurnIn(command string, analysis *model.CommandAnalysis) {
	if !subtitleFilterPattern.MatchString(command) {
		return
	}
	if matches := subtitleFormatPattern.FindStringSubmatch(command); matches != nil {
		analysis.PrimaryReasons = append(
			analysis.PrimaryReasons,
			fmt.Sprintf("Subtitle burn-in required (%s subtitles)", strings.ToUpper(matches[1])),
		)
		return
	}
	analysis.PrimaryReasons = append(analysis.PrimaryReasons, "Subtitle burn-in required")
}

func analyzeSubtitleOverlay(command string, analysis *model.CommandAnalysis) {
	if overlayPattern.MatchString(command) {
		analysis.PrimaryReasons = append(analysis.PrimaryReasons, "Subtitle overlay compositing required")
	}
}

func analyzeResolution(command string, analysis *model.CommandAnalysis) {
	matches := scalePattern.FindStringSubmatch(command)
	if matches == nil {
		return
	}
	analysis.PrimaryReasons = append(
		analysis.PrimaryReasons,
		fmt.Sprintf("Client requires %sx%s resolution", matches[1], matches[2]),
	)
}

func analyzeAudio(command string, analysis *model.CommandAnalysis) {
	if audioCopyPattern.MatchString(command) {
		return
	}
	codec := ""
	if matches := audioCodecPattern.FindStringSubmatch(command); matches != nil {
		codec = audioFamily(matches[1])
	}
	if codec == "" {
		if matches := audioFamilyPattern.FindStringSubmatch(command); matches != nil {
			codec = audioFamily(matches[1])
		}
	}
	if codec == "" {
		return
	}
	analysis.PrimaryReasons = append(analysis.PrimaryReasons, fmt.Sprintf("Client requires %s audio", codec))
	if matches := audioChannelsPattern.FindStringSubmatch(command); matches != nil {
		analysis.PrimaryReasons = append(
			analysis.PrimaryReasons,
			fmt.Sprintf("Client requires %s-channel audio", matches[1]),
		)
	}
}

func audioFamily(codec string) string {
	lower := strings.ToLower(codec)
	switch {
	case strings.Contains(lower, "eac3"):
		return "E-AC3"
	case strings.Contains(lower, "ac3"):
		return "AC3"
	case strings.Contains(lower, "aac"):
		return "AAC"
	default:
		return ""
	}
}

func analyzeVideoCodec(command string, analysis *model.CommandAnalysis) {
	if videoCopyPattern.MatchString(command) {
		return
	}
	if matches := h264EncoderPattern.FindStringSubmatch(command); matches != nil {
		analysis.PrimaryReasons = append(analysis.PrimaryReasons, "Client requires H.264 video")
		analysis.TechnicalDetails = append(analysis.TechnicalDetails, "Video encoder: "+matches[1])
		return
	}
	if matches := hevcEncoderPattern.FindStringSubmatch(command); matches != nil {
		analysis.PrimaryReasons = append(analysis.PrimaryReasons, "Client requires H.265/HEVC video")
		analysis.TechnicalDetails = append(analysis.TechnicalDetails, "Video encoder: "+matches[1])
	}
}

func analyzeBandwidth(command string, analysis *model.CommandAnalysis) {
	matches := videoBitratePattern.FindStringSubmatch(command)
	if matches == nil {
		return
	}
	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return
	}
	analysis.PrimaryReasons = append(
		analysis.PrimaryReasons,
		fmt.Sprintf("Bandwidth limited to %d kbps", toKilobits(value, matches[2])),
	)
}

func toKilobits(value float64, unit string) int64 {
	switch strings.ToLower(unit) {
	case "k":
	case "m":
		value *= 1000
	case "g":
		value *= 1000 * 1000
	default:
		value /= 1000
	}
	return int64(math.Round(value))
}

func analyzeHardwareAcceleration(command string, analysis *model.CommandAnalysis) {
	if matches := hwaccelPattern.FindStringSubmatch(command); matches != nil {
		analysis.TechnicalDetails = append(
			analysis.TechnicalDetails,
			"Hardware acceleration: "+strings.Trim(matches[1], `"`),
		)
	}
}
