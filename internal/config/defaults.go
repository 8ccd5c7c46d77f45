package config

const (
	defaultDataDir            = "~/.local/share/statmatch"
	defaultLogDir             = "~/.local/share/statmatch/logs"
	defaultInboundQueue       = "requests"
	defaultOutboundQueue      = "results"
	defaultAPITimeoutSeconds  = 30
	defaultNotifyTimeout      = 10
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultProcessTimeout     = 120
	defaultReclaimAfter       = 600
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Queue: Queue{
			InboundQueue:  defaultInboundQueue,
			OutboundQueue: defaultOutboundQueue,
		},
		API: API{
			TimeoutSeconds: defaultAPITimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Batches:        true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			ProcessTimeout:     defaultProcessTimeout,
			ReclaimAfter:       defaultReclaimAfter,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
