package model

// Recognized user-settings flag names.
const (
	SettingPatternAlerts      = "enable_pattern_alerts"
	SettingSuperAlertsOnly    = "enable_super_alerts_only"
	SettingDoubleTopBottom    = "enable_double_top_bottom"
	SettingTripleTopBottom    = "enable_triple_top_bottom"
	SettingQuadrupleTopBottom = "enable_quadruple_top_bottom"
	SettingPolePatterns       = "enable_pole_patterns"
	SettingCatapultPatterns   = "enable_catapult_patterns"
	SettingTelegramAlerts     = "telegram_alerts_enabled"
)

// Settings is the user's alert configuration, a mapping of flag name to
// boolean. Unknown or missing flags fall back to a per-flag default.
type Settings map[string]bool

// Enabled returns the flag value, or def when the flag is absent.
func (s Settings) Enabled(name string, def bool) bool {
	if s == nil {
		return def
	}
	v, ok := s[name]
	if !ok {
		return def
	}
	return v
}
