// Package device turns a User-Agent header into the label stored on session
// metadata, so operators can tell a subject's sessions apart.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns a "<browser> on <os>" label.
func ParseUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		return strings.TrimSpace("Bot " + name)
	}

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	system := ua.OS()
	if system == "" {
		system = ua.Platform()
	}
	if system == "" {
		system = "Unknown OS"
	}
	return strings.Join(strings.Fields(browser+" on "+system), " ")
}
