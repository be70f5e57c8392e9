package audit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/actions-audit/internal/codesearch"
	"github.com/temirov/actions-audit/internal/githubauth"
	"github.com/temirov/actions-audit/internal/utils"
)

const (
	commandNameConstant                   = "actions-audit"
	commandShortDescriptionConstant       = "Report workflow actions published under untrusted namespaces"
	commandLongDescriptionConstant        = "actions-audit searches an organization's .github directories for `uses:` references and prints every action whose namespace is not trusted."
	flagOrganizationName                  = "org"
	flagOrganizationShorthand             = "o"
	flagOrganizationDescription           = "GitHub organization to query"
	flagTrustedName                       = "trusted"
	flagTrustedShorthand                  = "t"
	flagTrustedDescription                = "Trusted action namespace, may be repeated"
	flagTokenSourceName                   = "token-source"
	flagTokenSourceDescription            = "Token source (env:NAME, file:/path, or gh:[hostname])"
	flagMaxPagesName                      = "max-pages"
	flagMaxPagesDescription               = "Maximum number of result pages to request, 0 for no limit"
	errorMissingOrganization              = "organization must be provided via --org or configuration"
	errorUnexpectedArguments              = "actions-audit does not accept positional arguments"
	tokenSourceParseErrorTemplateConstant = "invalid token source: %w"
	tokenResolutionErrorTemplateConstant  = "unable to resolve GitHub token: %w"
	commandExecutionErrorTemplateConstant = "audit failed: %w"
	defaultHTTPTimeoutConstant            = 60 * time.Second
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current audit configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the audit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	HTTPClient            *http.Client
	TokenResolver         githubauth.TokenResolver
	EnvironmentLookup     githubauth.EnvironmentLookup
	FileReader            githubauth.FileReader
	Collector             ItemCollector
}

// Build constructs the cobra command for the action audit.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().StringP(flagOrganizationName, flagOrganizationShorthand, "", flagOrganizationDescription)
	command.Flags().StringArrayP(flagTrustedName, flagTrustedShorthand, nil, flagTrustedDescription)
	command.Flags().String(flagTokenSourceName, "", flagTokenSourceDescription)
	command.Flags().Int(flagMaxPagesName, 0, flagMaxPagesDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(errorUnexpectedArguments)
	}

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	options := CommandOptions{
		Organization: configuration.Organization,
		Trusted:      configuration.Trusted,
	}
	if len(options.Organization) == 0 {
		return errors.New(errorMissingOrganization)
	}

	logger := builder.resolveLogger()
	collector, collectorError := builder.resolveCollector(command, logger, configuration)
	if collectorError != nil {
		return collectorError
	}

	service, serviceError := NewService(logger, collector, utils.NewFlushingWriter(command.OutOrStdout()))
	if serviceError != nil {
		return serviceError
	}

	if _, runError := service.Run(command.Context(), options); runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}

// resolveConfiguration layers changed flags over the provided configuration.
func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (CommandConfiguration, error) {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()

	organizationValue, organizationError := flagSet.GetString(flagOrganizationName)
	if organizationError != nil {
		return CommandConfiguration{}, organizationError
	}
	if len(strings.TrimSpace(organizationValue)) > 0 {
		configuration.Organization = organizationValue
	}

	if flagSet.Changed(flagTrustedName) {
		trustedValues, trustedError := flagSet.GetStringArray(flagTrustedName)
		if trustedError != nil {
			return CommandConfiguration{}, trustedError
		}
		configuration.Trusted = trustedValues
	}

	tokenSourceValue, tokenSourceError := flagSet.GetString(flagTokenSourceName)
	if tokenSourceError != nil {
		return CommandConfiguration{}, tokenSourceError
	}
	if len(strings.TrimSpace(tokenSourceValue)) > 0 {
		configuration.TokenSource = tokenSourceValue
	}

	if flagSet.Changed(flagMaxPagesName) {
		maxPagesValue, maxPagesError := flagSet.GetInt(flagMaxPagesName)
		if maxPagesError != nil {
			return CommandConfiguration{}, maxPagesError
		}
		configuration.MaxPages = maxPagesValue
	}

	return configuration.sanitize(), nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// resolveCollector resolves the token before building the search client so a missing token fails ahead of any request.
func (builder *CommandBuilder) resolveCollector(command *cobra.Command, logger *zap.Logger, configuration CommandConfiguration) (ItemCollector, error) {
	if builder.Collector != nil {
		return builder.Collector, nil
	}

	tokenSource, tokenSourceError := githubauth.ParseTokenSource(configuration.TokenSource)
	if tokenSourceError != nil {
		return nil, fmt.Errorf(tokenSourceParseErrorTemplateConstant, tokenSourceError)
	}

	tokenResolver := builder.TokenResolver
	if tokenResolver == nil {
		tokenResolver = githubauth.NewTokenResolver(builder.EnvironmentLookup, builder.FileReader)
	}

	token, tokenError := tokenResolver.ResolveToken(command.Context(), tokenSource)
	if tokenError != nil {
		return nil, fmt.Errorf(tokenResolutionErrorTemplateConstant, tokenError)
	}

	httpClient := builder.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeoutConstant}
	}

	client, clientError := codesearch.NewClient(logger, httpClient, token, codesearch.ClientConfiguration{
		BaseURL:         configuration.BaseURL,
		PageSize:        configuration.PageSize,
		RequestInterval: configuration.RequestInterval,
		RetryPolicy:     configuration.Retry.retryPolicy(),
	})
	if clientError != nil {
		return nil, clientError
	}

	return codesearch.NewPaginator(logger, client, configuration.MaxPages)
}
