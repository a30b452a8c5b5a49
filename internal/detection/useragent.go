// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package detection classifies raw User-Agent strings into the coarse
// device, browser, and operating system buckets used by the analytics
// rollups. Classification is substring-based; it is deliberately not a
// full UA parser.
package detection

import (
	"strings"

	"github.com/sitebeacon/sitebeacon/internal/models"
)

// Browser names produced by Classify.
const (
	BrowserChrome  = "Chrome"
	BrowserEdge    = "Edge"
	BrowserFirefox = "Firefox"
	BrowserOpera   = "Opera"
	BrowserSafari  = "Safari"
	BrowserOther   = "Other"
)

// Operating system names produced by Classify.
const (
	OSWindows = "Windows"
	OSMacOS   = "macOS"
	OSLinux   = "Linux"
	OSAndroid = "Android"
	OSIOS     = "iOS"
	OSOther   = "Other"
)

// Classification is the result of classifying one User-Agent string.
// The zero value means "no user agent available".
type Classification struct {
	DeviceType string
	Browser    string
	OS         string
}

// Classify buckets a User-Agent string. An empty input returns the
// zero Classification so callers can distinguish "no UA" from a UA
// that degraded to Other.
func Classify(userAgent string) Classification {
	if userAgent == "" {
		return Classification{}
	}

	ua := strings.ToLower(userAgent)

	return Classification{
		DeviceType: classifyDevice(ua),
		Browser:    classifyBrowser(ua),
		OS:         classifyOS(ua),
	}
}

// classifyDevice buckets into desktop/mobile/tablet.
// Tablet markers are checked before mobile markers: Android tablet UAs
// contain "android" but not "mobile", and iPad UAs would otherwise be
// misread as phones.
func classifyDevice(ua string) string {
	if strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet") {
		return models.DeviceTablet
	}
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") {
		return models.DeviceMobile
	}
	// Android without the Mobile token is a tablet per Google's UA docs.
	if strings.Contains(ua, "android") {
		return models.DeviceTablet
	}
	return models.DeviceDesktop
}

// classifyBrowser buckets the browser family.
// Ordering matters: Edge UAs contain "chrome", and Chrome UAs contain
// "safari", so the more specific markers are checked first.
func classifyBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge"):
		return BrowserEdge
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		return BrowserOpera
	case strings.Contains(ua, "firefox"):
		return BrowserFirefox
	case strings.Contains(ua, "chrome") || strings.Contains(ua, "crios"):
		return BrowserChrome
	case strings.Contains(ua, "safari"):
		return BrowserSafari
	default:
		return BrowserOther
	}
}

// classifyOS buckets the operating system.
// iOS and Android are checked before macOS and Linux: iPhone UAs
// contain "like Mac OS X" and Android UAs contain "linux".
func classifyOS(ua string) string {
	switch {
	case strings.Contains(ua, "windows"):
		return OSWindows
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ios"):
		return OSIOS
	case strings.Contains(ua, "android"):
		return OSAndroid
	case strings.Contains(ua, "mac os") || strings.Contains(ua, "macintosh"):
		return OSMacOS
	case strings.Contains(ua, "linux"):
		return OSLinux
	default:
		return OSOther
	}
}
