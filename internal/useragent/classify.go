// Package useragent classifies raw User-Agent strings into coarse browser,
// operating system and device labels.
//
// Classification is plain case-sensitive substring matching against the whole
// string, evaluated in a fixed precedence order. It is not a grammar parse:
// unrecognized or malformed input degrades to Other/Desktop.
package useragent

import "strings"

// Browser is a coarse browser family label
type Browser string

const (
	BrowserFirefox Browser = "Firefox"
	BrowserEdge    Browser = "Edge"
	BrowserChrome  Browser = "Chrome"
	BrowserSafari  Browser = "Safari"
	BrowserOpera   Browser = "Opera"
	BrowserOther   Browser = "Other"
)

// OS is a coarse operating system label
type OS string

const (
	OSWindows OS = "Windows"
	OSMacOS   OS = "macOS"
	OSLinux   OS = "Linux"
	OSAndroid OS = "Android"
	OSiOS     OS = "iOS"
	OSOther   OS = "Other"
)

// DeviceType is a coarse form-factor label
type DeviceType string

const (
	DeviceMobile  DeviceType = "Mobile"
	DeviceTablet  DeviceType = "Tablet"
	DeviceDesktop DeviceType = "Desktop"
)

func (b Browser) String() string    { return string(b) }
func (o OS) String() string         { return string(o) }
func (d DeviceType) String() string { return string(d) }

type rule[T any] struct {
	label   T
	needles []string
}

// Order matters: Edge and Opera user agents also contain "Chrome" and
// "Safari", so they must be tested before them.
var browserRules = []rule[Browser]{
	{BrowserFirefox, []string{"Firefox"}},
	{BrowserEdge, []string{"Edg"}},
	{BrowserChrome, []string{"Chrome"}},
	{BrowserSafari, []string{"Safari"}},
	{BrowserOpera, []string{"Opera", "OPR"}},
}

// Android user agents also carry "Linux" and therefore classify as Linux.
var osRules = []rule[OS]{
	{OSWindows, []string{"Windows"}},
	{OSMacOS, []string{"Mac OS"}},
	{OSLinux, []string{"Linux"}},
	{OSAndroid, []string{"Android"}},
	{OSiOS, []string{"iPhone", "iPad"}},
}

// Deliberately narrower than a plain "Mobile or Android" rule: the "Android"
// token alone does not mark a device as mobile, so an Android tablet without
// "Mobile" or "Tablet" in its string classifies as Desktop.
var deviceRules = []rule[DeviceType]{
	{DeviceMobile, []string{"Mobile"}},
	{DeviceTablet, []string{"Tablet", "iPad"}},
}

func firstMatch[T any](ua string, rules []rule[T], fallback T) T {
	for _, r := range rules {
		for _, needle := range r.needles {
			if strings.Contains(ua, needle) {
				return r.label
			}
		}
	}
	return fallback
}

// ClassifyBrowser returns the browser family of a raw user agent
func ClassifyBrowser(ua string) Browser {
	return firstMatch(ua, browserRules, BrowserOther)
}

// ClassifyOS returns the operating system of a raw user agent
func ClassifyOS(ua string) OS {
	return firstMatch(ua, osRules, OSOther)
}

// ClassifyDeviceType returns the device form factor of a raw user agent
func ClassifyDeviceType(ua string) DeviceType {
	return firstMatch(ua, deviceRules, DeviceDesktop)
}

// Classification bundles the three independent labels for one user agent
type Classification struct {
	Browser    Browser
	OS         OS
	DeviceType DeviceType
}

// Classify runs all three classifiers over ua
func Classify(ua string) Classification {
	return Classification{
		Browser:    ClassifyBrowser(ua),
		OS:         ClassifyOS(ua),
		DeviceType: ClassifyDeviceType(ua),
	}
}
