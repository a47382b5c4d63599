package models

// HeaderSetting is one key/value entry of the site header settings
type HeaderSetting struct {
	ID           int    `json:"id"`
	SettingKey   string `json:"setting_key"`
	SettingValue string `json:"setting_value"`
}

// SettingValue is the update form of a header setting, keyed by setting id
type SettingValue struct {
	ID           int    `json:"id"`
	SettingValue string `json:"setting_value"`
}

// SettingsUpdate is the body of the header settings update endpoint
type SettingsUpdate struct {
	Settings []SettingValue `json:"settings"`
}

// SettingsResponse is the envelope returned by the header settings fetch endpoint
type SettingsResponse struct {
	Data []HeaderSetting `json:"data"`
}
