package ui

// globalConfig is set once from the root command's persistent flags and
// read by every printer and color config built afterwards.
var globalConfig Config

// Config holds process-wide presentation settings.
type Config struct {
	NoColor        bool
	NoEmoji        bool
	Yes            bool
	NonInteractive bool
	Verbose        bool
	Quiet          bool
	Debug          bool
}

// InitGlobal installs the process-wide UI settings. Call once at startup,
// before any output is produced.
func InitGlobal(cfg Config) {
	globalConfig = cfg
}

// GetGlobal returns the current process-wide UI settings.
func GetGlobal() Config {
	return globalConfig
}

// NewColorConfigFromGlobal builds a ColorConfig honoring the global
// no-color and no-emoji switches on top of terminal detection.
func NewColorConfigFromGlobal() *ColorConfig {
	cfg := GetGlobal()
	c := NewColorConfig()
	c.Enabled = c.Enabled && !cfg.NoColor
	c.EmojiEnabled = c.EmojiEnabled && !cfg.NoEmoji
	return c
}

// NewPrinterFromGlobal builds a Printer for the given output format
// using the global settings.
func NewPrinterFromGlobal(format string) Printer {
	return Printer{
		format: format,
		Colors: NewColorConfigFromGlobal(),
	}
}
