package model

// LicenseStatistics summarises the registry and its check-in history.
type LicenseStatistics struct {
	TotalSystems        int64 `json:"total_systems"`
	TotalLicenses       int64 `json:"total_licenses"`
	TotalChecks         int64 `json:"total_checks"`
	ValidChecks         int64 `json:"valid_checks"`
	NotFoundChecks      int64 `json:"not_found_checks"`
	QuotaRejectedChecks int64 `json:"quota_rejected_checks"`
	LicensesAtQuota     int64 `json:"licenses_at_quota"`
}

// GetSuccessRate returns the share of checks that were admitted.
func (ls *LicenseStatistics) GetSuccessRate() float64 {
	if ls.TotalChecks == 0 {
		return 0
	}
	return float64(ls.ValidChecks) / float64(ls.TotalChecks)
}
