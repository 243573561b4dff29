package server

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kinKKKdred/Matchingnetwork/internal/config"
	"github.com/kinKKKdred/Matchingnetwork/pkg/constants"
)

// Settings holds the resolved runtime parameters for the HTTP API, derived
// from the server and store sections of the main configuration.
type Settings struct {
	Address         string
	StorePath       string
	uploadSizeBytes int64
}

// ResolveSettings applies defaults and converts the human-friendly upload
// limit into bytes. An empty store path leaves the design log disabled.
func ResolveSettings(serverCfg config.ServerConfig, storeCfg config.StoreConfig) (*Settings, error) {
	settings := &Settings{
		Address:         serverCfg.Address,
		StorePath:       storeCfg.Path,
		uploadSizeBytes: constants.DefaultMaxUploadSizeBytes,
	}
	if settings.Address == "" {
		settings.Address = constants.DefaultServerAddress
	}

	sizeStr := strings.TrimSpace(serverCfg.MaxUploadSize)
	if sizeStr == "" {
		return settings, nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return nil, err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxUploadSizeBytes
	}
	settings.uploadSizeBytes = bytes
	return settings, nil
}

// UploadSizeBytes returns the resolved upload size in bytes.
func (s *Settings) UploadSizeBytes() int64 {
	return s.uploadSizeBytes
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	if numPart == "" {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
