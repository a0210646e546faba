package clicks

import (
	"strings"

	"github.com/mssola/useragent"
	"github.com/serroba/linkstats/internal/links"
)

// UserAgentInfo is the parsed form of a User-Agent header.
type UserAgentInfo struct {
	Browser    string
	OS         string
	Device     string
	DeviceType links.DeviceType
	IsMobile   bool
	IsTablet   bool
	IsPC       bool
	IsBot      bool
}

// ParseUserAgent parses raw. It returns nil for an empty user agent.
func ParseUserAgent(raw string) *UserAgentInfo {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	ua := useragent.New(raw)
	name, version := ua.Browser()
	os := ua.OS()

	info := &UserAgentInfo{
		Browser: strings.TrimSpace(name + " " + version),
		OS:      os,
		Device:  ua.Platform(),
		IsBot:   ua.Bot(),
	}

	info.IsTablet = isTablet(raw)
	info.IsMobile = !info.IsTablet && ua.Mobile()
	info.IsPC = !info.IsTablet && !info.IsMobile && isDesktopOS(os)
	info.DeviceType = classify(info)

	return info
}

// classify picks the device type from the parsed flags. Form factor wins over
// the bot flag, so a crawler posing as a phone counts as Mobile.
func classify(info *UserAgentInfo) links.DeviceType {
	switch {
	case info.IsMobile:
		return links.DeviceMobile
	case info.IsTablet:
		return links.DeviceTablet
	case info.IsPC:
		return links.DeviceDesktop
	case info.IsBot:
		return links.DeviceBot
	default:
		return links.DeviceOther
	}
}

// DeviceTypeOf returns the device type of info, Unknown when nothing was parsed.
func DeviceTypeOf(info *UserAgentInfo) links.DeviceType {
	if info == nil {
		return links.DeviceUnknown
	}

	return info.DeviceType
}

func isTablet(raw string) bool {
	switch {
	case strings.Contains(raw, "iPad"), strings.Contains(raw, "Tablet"),
		strings.Contains(raw, "Kindle"), strings.Contains(raw, "Silk/"):
		return true
	case strings.Contains(raw, "Android") && !strings.Contains(raw, "Mobile"):
		return true
	default:
		return false
	}
}

func isDesktopOS(os string) bool {
	return strings.HasPrefix(os, "Windows") ||
		strings.Contains(os, "Mac OS X") ||
		strings.HasPrefix(os, "Linux") ||
		strings.HasPrefix(os, "CrOS") ||
		strings.HasPrefix(os, "FreeBSD")
}
