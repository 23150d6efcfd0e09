package config

const (
	defaultDataDir   = "~/.local/share/tempo/data"
	defaultOutputDir = "~/.local/share/tempo/output"
	defaultLogDir    = "~/.local/share/tempo/logs"
	defaultCatalog   = "~/.config/tempo/catalog.yaml"

	defaultTimezone            = "Asia/Seoul"
	defaultUserAgent           = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0 Safari/537.36"
	defaultCollectTimeout      = 20
	defaultCollectRetries      = 3
	defaultCollectRetryBackoff = 2
	defaultSchedule            = "*/10 * * * *"

	defaultRunHistoryLimit = 500

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

func defaultCounters() []string {
	return []string{"total_plays", "total_listeners"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			Catalog:   defaultCatalog,
		},
		Pipeline: Pipeline{
			Counters: defaultCounters(),
		},
		Collect: Collect{
			Timezone:            defaultTimezone,
			UserAgent:           defaultUserAgent,
			TimeoutSeconds:      defaultCollectTimeout,
			Retries:             defaultCollectRetries,
			RetryBackoffSeconds: defaultCollectRetryBackoff,
			Schedule:            defaultSchedule,
		},
		Store: Store{
			Enabled:      true,
			HistoryLimit: defaultRunHistoryLimit,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
