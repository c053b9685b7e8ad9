package model

import "time"

// CheckResult is the body of every check_license response.
type CheckResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type LicenseResponse struct {
	LicenseKey   string `json:"license_key"`
	ActiveSystem string `json:"active_system"`
	IPLimit      int    `json:"ip_limit"`
}

type LicenseListItem struct {
	LicenseKey   string    `json:"license_key"`
	ActiveSystem *string   `json:"active_system"`
	IPLimit      int       `json:"ip_limit"`
	CreateAt     time.Time `json:"create_at"`
}

type LicenseDetail struct {
	LicenseListItem
	SeenIPs []string `json:"seen_ips"`
	UsedIPs int      `json:"used_ips"`
}
