package model

import "time"

// AppSetting is a key/value tunable stored in PostgreSQL.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingFreezingPeriodDays is the cooldown length applied after a failed
// attempt before the same round may be retried.
const SettingFreezingPeriodDays = "freezing_period_days"
