package audit

import (
	"strings"
	"time"

	"github.com/temirov/actions-audit/internal/codesearch"
	"github.com/temirov/actions-audit/internal/githubauth"
)

const (
	defaultBaseURLConstant         = "https://api.github.com"
	defaultPageSizeConstant        = 100
	defaultMaxPagesConstant        = 10
	defaultRequestIntervalConstant = 6 * time.Second
	organizationConfigKey          = "org"
	trustedConfigKey               = "trusted"
	tokenSourceConfigKey           = "token_source"
	baseURLConfigKey               = "base_url"
	pageSizeConfigKey              = "page_size"
	maxPagesConfigKey              = "max_pages"
	requestIntervalConfigKey       = "request_interval"
	retryInitialIntervalConfigKey  = "retry.initial_interval"
	retryMaxIntervalConfigKey      = "retry.max_interval"
	retryMultiplierConfigKey       = "retry.multiplier"
	retryMaxAttemptsConfigKey      = "retry.max_attempts"
)

// CommandConfiguration captures persistent settings for the audit command.
type CommandConfiguration struct {
	Organization    string             `mapstructure:"org"`
	Trusted         []string           `mapstructure:"trusted"`
	TokenSource     string             `mapstructure:"token_source"`
	BaseURL         string             `mapstructure:"base_url"`
	PageSize        int                `mapstructure:"page_size"`
	MaxPages        int                `mapstructure:"max_pages"`
	RequestInterval time.Duration      `mapstructure:"request_interval"`
	Retry           RetryConfiguration `mapstructure:"retry"`
}

// RetryConfiguration mirrors codesearch.RetryPolicy for configuration files.
type RetryConfiguration struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

// DefaultCommandConfiguration returns baseline configuration values for the audit command.
func DefaultCommandConfiguration() CommandConfiguration {
	retryPolicy := codesearch.DefaultRetryPolicy()
	return CommandConfiguration{
		Trusted:         []string{},
		TokenSource:     githubauth.DefaultTokenSource,
		BaseURL:         defaultBaseURLConstant,
		PageSize:        defaultPageSizeConstant,
		MaxPages:        defaultMaxPagesConstant,
		RequestInterval: defaultRequestIntervalConstant,
		Retry: RetryConfiguration{
			InitialInterval: retryPolicy.InitialInterval,
			MaxInterval:     retryPolicy.MaxInterval,
			Multiplier:      retryPolicy.Multiplier,
			MaxAttempts:     retryPolicy.MaxAttempts,
		},
	}
}

// DefaultConfigurationValues exposes the defaults as Viper keys rooted at prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKey(prefix, organizationConfigKey):         defaults.Organization,
		configurationKey(prefix, trustedConfigKey):              defaults.Trusted,
		configurationKey(prefix, tokenSourceConfigKey):          defaults.TokenSource,
		configurationKey(prefix, baseURLConfigKey):              defaults.BaseURL,
		configurationKey(prefix, pageSizeConfigKey):             defaults.PageSize,
		configurationKey(prefix, maxPagesConfigKey):             defaults.MaxPages,
		configurationKey(prefix, requestIntervalConfigKey):      defaults.RequestInterval,
		configurationKey(prefix, retryInitialIntervalConfigKey): defaults.Retry.InitialInterval,
		configurationKey(prefix, retryMaxIntervalConfigKey):     defaults.Retry.MaxInterval,
		configurationKey(prefix, retryMultiplierConfigKey):      defaults.Retry.Multiplier,
		configurationKey(prefix, retryMaxAttemptsConfigKey):     defaults.Retry.MaxAttempts,
	}
}

func configurationKey(prefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + "." + key
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	defaults := DefaultCommandConfiguration()

	sanitized.Organization = strings.TrimSpace(configuration.Organization)
	sanitized.Trusted = sanitizeNamespaces(configuration.Trusted)
	sanitized.TokenSource = strings.TrimSpace(configuration.TokenSource)
	if len(sanitized.TokenSource) == 0 {
		sanitized.TokenSource = defaults.TokenSource
	}
	sanitized.BaseURL = strings.TrimSpace(configuration.BaseURL)
	if len(sanitized.BaseURL) == 0 {
		sanitized.BaseURL = defaults.BaseURL
	}
	if sanitized.PageSize <= 0 {
		sanitized.PageSize = defaults.PageSize
	}
	if sanitized.MaxPages < 0 {
		sanitized.MaxPages = 0
	}
	if sanitized.RequestInterval < 0 {
		sanitized.RequestInterval = 0
	}

	return sanitized
}

func (configuration RetryConfiguration) retryPolicy() codesearch.RetryPolicy {
	return codesearch.RetryPolicy{
		InitialInterval: configuration.InitialInterval,
		MaxInterval:     configuration.MaxInterval,
		Multiplier:      configuration.Multiplier,
		MaxAttempts:     configuration.MaxAttempts,
	}
}

func sanitizeNamespaces(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for index := range raw {
		trimmed := strings.TrimSpace(raw[index])
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
