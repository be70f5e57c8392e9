package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeySeparatorConstant          = "."
	environmentVariableSeparatorConstant       = "_"
	listValueSeparatorConstant                 = ","
	embeddedMergeErrorTemplateConstant         = "failed to merge embedded configuration: %w"
	environmentBindingErrorTemplateConstant    = "failed to bind environment variable %s: %w"
	configurationFileReadErrorTemplateConstant = "failed to read configuration: %w"
	configurationDecodeErrorTemplateConstant   = "failed to parse configuration: %w"
)

// ConfigurationLoader layers embedded defaults, an optional configuration file,
// and environment variables into a typed configuration struct.
type ConfigurationLoader struct {
	configurationName     string
	configurationType     string
	environmentPrefix     string
	searchPaths           []string
	environmentBindings   map[string]string
	embeddedContent       []byte
	embeddedContentFormat string
}

// LoadedConfiguration reports where the resolved configuration came from.
type LoadedConfiguration struct {
	ConfigFileUsed          string
	EmbeddedDefaultsApplied bool
}

// NewConfigurationLoader creates a loader that looks for configurationName in searchPaths
// and reads environment variables under environmentPrefix.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName:   configurationName,
		configurationType:   configurationType,
		environmentPrefix:   environmentPrefix,
		searchPaths:         append([]string(nil), searchPaths...),
		environmentBindings: map[string]string{},
	}
}

// SetEmbeddedConfiguration registers content merged beneath any user configuration file.
// Passing empty content clears a previous registration.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedContentFormat = strings.TrimSpace(configurationType)
	if len(configurationData) == 0 {
		loader.embeddedContent = nil
		return
	}
	loader.embeddedContent = append([]byte(nil), configurationData...)
}

// BindEnvironmentVariable maps an unprefixed environment variable onto a configuration key.
// Prefixed variables still take precedence over the bound name.
func (loader *ConfigurationLoader) BindEnvironmentVariable(configurationKey string, environmentVariableName string) {
	if loader == nil {
		return
	}
	trimmedKey := strings.TrimSpace(configurationKey)
	trimmedName := strings.TrimSpace(environmentVariableName)
	if len(trimmedKey) == 0 || len(trimmedName) == 0 {
		return
	}
	if loader.environmentBindings == nil {
		loader.environmentBindings = map[string]string{}
	}
	loader.environmentBindings[trimmedKey] = trimmedName
}

// LoadConfiguration decodes the layered configuration into targetConfiguration.
// Precedence from lowest to highest: defaultValues, embedded content, the configuration file, environment variables.
// A missing configuration file found through the search paths is not an error; an explicit path that cannot be read is.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)

	embeddedApplied, embeddedError := loader.mergeEmbeddedConfiguration(viperInstance)
	if embeddedError != nil {
		return LoadedConfiguration{}, embeddedError
	}

	if bindingError := loader.configureEnvironment(viperInstance); bindingError != nil {
		return LoadedConfiguration{}, bindingError
	}

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if readError := loader.mergeConfigurationFile(viperInstance, configurationFilePath); readError != nil {
		return LoadedConfiguration{}, readError
	}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if decodeError := viperInstance.Unmarshal(targetConfiguration, decodeHook); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}

	return LoadedConfiguration{
		ConfigFileUsed:          viperInstance.ConfigFileUsed(),
		EmbeddedDefaultsApplied: embeddedApplied,
	}, nil
}

func (loader *ConfigurationLoader) mergeEmbeddedConfiguration(viperInstance *viper.Viper) (bool, error) {
	if len(loader.embeddedContent) == 0 {
		return false, nil
	}

	embeddedFormat := loader.embeddedContentFormat
	if len(embeddedFormat) == 0 {
		embeddedFormat = loader.configurationType
	}
	viperInstance.SetConfigType(embeddedFormat)
	if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedContent)); mergeError != nil {
		return false, fmt.Errorf(embeddedMergeErrorTemplateConstant, mergeError)
	}
	return true, nil
}

func (loader *ConfigurationLoader) configureEnvironment(viperInstance *viper.Viper) error {
	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentVariableSeparatorConstant))
	viperInstance.AutomaticEnv()

	for configurationKey, environmentVariableName := range loader.environmentBindings {
		if bindError := viperInstance.BindEnv(configurationKey, environmentVariableName); bindError != nil {
			return fmt.Errorf(environmentBindingErrorTemplateConstant, environmentVariableName, bindError)
		}
	}
	return nil
}

func (loader *ConfigurationLoader) mergeConfigurationFile(viperInstance *viper.Viper, configurationFilePath string) error {
	viperInstance.SetConfigType(loader.configurationType)
	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	} else {
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
	}

	readError := viperInstance.MergeInConfig()
	if readError == nil {
		return nil
	}
	var notFoundError viper.ConfigFileNotFoundError
	if errors.As(readError, &notFoundError) {
		return nil
	}
	return fmt.Errorf(configurationFileReadErrorTemplateConstant, readError)
}
