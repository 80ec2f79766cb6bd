package properties

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultScale is the recommended ground resolution in meters per pixel;
// coarser scales leave less nodata after scatter gridding.
const DefaultScale = 2000

func SearchDirs() []string {
	raw := os.Getenv("VIIRS_SEARCH_DIRS")
	if raw == "" {
		return nil
	}
	var dirs []string
	for _, dir := range strings.Split(raw, ",") {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			dirs = append(dirs, expand(dir))
		}
	}
	return dirs
}

func OutputPath() string {
	return expand(os.Getenv("VIIRS_OUTPUT_PATH"))
}

func DataPath() string {
	if dir := os.Getenv("VIIRS_DATA_PATH"); dir != "" {
		return expand(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".viirs-composer"
	}
	return filepath.Join(home, ".viirs-composer")
}

func Scale() float64 {
	raw := os.Getenv("VIIRS_SCALE")
	if raw == "" {
		return DefaultScale
	}
	scale, err := strconv.ParseFloat(raw, 64)
	if err != nil || scale <= 0 {
		return DefaultScale
	}
	return scale
}

// ProjectionWKT overrides the built-in Lambert Conformal Conic definition
// when set.
func ProjectionWKT() string {
	return os.Getenv("VIIRS_PROJECTION_WKT")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}

func expand(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
