package model

type ActiveSystemInput struct {
	SystemName string `json:"system_name"`
}

type LicenseInput struct {
	ActiveSystemID uint `json:"active_system_id"`
	// IPLimit falls back to the configured default when omitted.
	IPLimit *int `json:"ip_limit"`
}

type CheckLicenseInput struct {
	LicenseKey string `json:"license_key"`
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
