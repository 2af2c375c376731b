package service

import (
	"strings"

	"github.com/mssola/useragent"

	"cardscan/internal/scan/models"
)

// PlatformFromUserAgent maps the creating request's User-Agent to the host
// platform. Anything not recognizably Android or iOS is PlatformOther.
func PlatformFromUserAgent(raw string) models.Platform {
	if strings.TrimSpace(raw) == "" {
		return models.PlatformOther
	}
	ua := useragent.New(raw)
	osName := strings.ToLower(ua.OS())
	platform := strings.ToLower(ua.Platform())

	switch {
	case strings.Contains(osName, "android"):
		return models.PlatformAndroid
	case strings.Contains(osName, "iphone os"),
		strings.Contains(osName, "cpu os"),
		strings.Contains(osName, "ios"),
		platform == "iphone", platform == "ipad", platform == "ipod", platform == "ipod touch":
		return models.PlatformIOS
	}
	return models.PlatformOther
}
