package config

const (
	DefaultHomeDir       = "~/.homestage"
	DefaultAPIBaseURL    = "https://api.homestage.ai"
	DefaultDevServerPort = 8884
	DefaultDemoLimit     = 5
)

const (
	DefaultStagingTopic  = "homestage/stagings"
	DefaultStagingPrefix = DefaultStagingTopic + ":"
)
