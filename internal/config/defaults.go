package config

const (
	defaultStateDir                = "~/.local/share/volcap"
	defaultLogDir                  = "~/.local/share/volcap/logs"
	defaultAPIBind                 = ""
	defaultBackend                 = "pactl"
	defaultPactlBinary             = "pactl"
	defaultCommandTimeout          = 10
	defaultRescanInterval          = 30
	defaultSubscribeRestartSeconds = 5
	defaultEpsilon                 = 0.004
	defaultCorrectionTTLMillis     = 2000
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Audio: Audio{
			Backend:                 defaultBackend,
			PactlBinary:             defaultPactlBinary,
			CommandTimeout:          defaultCommandTimeout,
			RescanInterval:          defaultRescanInterval,
			SubscribeRestartSeconds: defaultSubscribeRestartSeconds,
		},
		Enforcer: Enforcer{
			Epsilon:             defaultEpsilon,
			CorrectionTTLMillis: defaultCorrectionTTLMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
