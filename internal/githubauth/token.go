package githubauth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/temirov/actions-audit/internal/execshell"
	pathutils "github.com/temirov/actions-audit/internal/utils/path"
)

// Environment variable names used by GitHub authentication helpers.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
)

const (
	tokenSourceSeparatorConstant               = ":"
	environmentTokenSourceTypeValueConstant    = "env"
	fileTokenSourceTypeValueConstant           = "file"
	githubCLITokenSourceTypeValueConstant      = "gh"
	githubCLIAuthSubcommandConstant            = "auth"
	githubCLITokenSubcommandConstant           = "token"
	githubCLIHostnameFlagConstant              = "--hostname"
	githubCLIFailureTemplateConstant           = "%s exited with code %d: %s"
	githubCLIRunErrorTemplateConstant          = "unable to run %s: %w"
	githubCLITokenEmptyErrorTemplateConstant   = "%w: %s printed no token"
	tokenSourceMissingErrorMessageConstant     = "token source must be provided"
	environmentNameMissingErrorMessageConstant = "environment variable name must be provided"
	filePathMissingErrorMessageConstant        = "token file path must be provided"
	tokenMissingErrorMessageConstant           = "authentication token not available"
	environmentTokenMissingTemplateConstant    = "%w: environment variable %s is not set"
	fileReadErrorTemplateConstant              = "unable to read token file %s: %w"
	fileTokenEmptyErrorTemplateConstant        = "%w: token file %s is empty"
	unsupportedTokenSourceTemplateConstant     = "unsupported token source type %q"
)

// DefaultTokenSource reads the token from GH_TOKEN.
const DefaultTokenSource = environmentTokenSourceTypeValueConstant + tokenSourceSeparatorConstant + EnvGitHubCLIToken

// ErrTokenMissing indicates that the configured token source yielded no token.
var ErrTokenMissing = errors.New(tokenMissingErrorMessageConstant)

// TokenSourceType enumerates the supported token retrieval mechanisms.
type TokenSourceType string

// Token source type enumerations.
const (
	TokenSourceTypeEnvironment TokenSourceType = TokenSourceType(environmentTokenSourceTypeValueConstant)
	TokenSourceTypeFile        TokenSourceType = TokenSourceType(fileTokenSourceTypeValueConstant)
	TokenSourceTypeGitHubCLI   TokenSourceType = TokenSourceType(githubCLITokenSourceTypeValueConstant)
)

// TokenSourceConfiguration specifies how to locate a credentials token.
type TokenSourceConfiguration struct {
	Type      TokenSourceType
	Reference string
}

// TokenResolver retrieves authentication tokens from configured sources.
type TokenResolver interface {
	ResolveToken(resolutionContext context.Context, source TokenSourceConfiguration) (string, error)
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// FileReader reads the contents of a file path.
type FileReader func(path string) ([]byte, error)

// NewTokenResolver creates a token resolver with optional dependency overrides.
func NewTokenResolver(environmentLookup EnvironmentLookup, fileReader FileReader) TokenResolver {
	return NewTokenResolverWithCommandRunner(environmentLookup, fileReader, nil)
}

// NewTokenResolverWithCommandRunner creates a token resolver that runs the GitHub CLI through commandRunner for gh: sources.
func NewTokenResolverWithCommandRunner(environmentLookup EnvironmentLookup, fileReader FileReader, commandRunner execshell.CommandRunner) TokenResolver {
	resolvedEnvironmentLookup := environmentLookup
	if resolvedEnvironmentLookup == nil {
		resolvedEnvironmentLookup = os.LookupEnv
	}

	resolvedFileReader := fileReader
	if resolvedFileReader == nil {
		resolvedFileReader = os.ReadFile
	}

	resolvedCommandRunner := commandRunner
	if resolvedCommandRunner == nil {
		resolvedCommandRunner = execshell.NewOSCommandRunner()
	}

	return &tokenResolver{
		environmentLookup: resolvedEnvironmentLookup,
		fileReader:        resolvedFileReader,
		commandRunner:     resolvedCommandRunner,
		pathExpander:      pathutils.NewHomeExpander(),
	}
}

// ParseTokenSource interprets textual token source declarations such as env:GH_TOKEN or file:/path.
// A bare value is treated as an environment variable name.
func ParseTokenSource(sourceValue string) (TokenSourceConfiguration, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return TokenSourceConfiguration{}, errors.New(tokenSourceMissingErrorMessageConstant)
	}

	components := strings.SplitN(trimmedValue, tokenSourceSeparatorConstant, 2)
	if len(components) == 1 {
		return TokenSourceConfiguration{
			Type:      TokenSourceTypeEnvironment,
			Reference: trimmedValue,
		}, nil
	}

	sourceType := strings.ToLower(strings.TrimSpace(components[0]))
	reference := strings.TrimSpace(components[1])

	switch sourceType {
	case environmentTokenSourceTypeValueConstant:
		if len(reference) == 0 {
			return TokenSourceConfiguration{}, errors.New(environmentNameMissingErrorMessageConstant)
		}
		return TokenSourceConfiguration{Type: TokenSourceTypeEnvironment, Reference: reference}, nil
	case fileTokenSourceTypeValueConstant:
		if len(reference) == 0 {
			return TokenSourceConfiguration{}, errors.New(filePathMissingErrorMessageConstant)
		}
		return TokenSourceConfiguration{Type: TokenSourceTypeFile, Reference: reference}, nil
	case githubCLITokenSourceTypeValueConstant:
		return TokenSourceConfiguration{Type: TokenSourceTypeGitHubCLI, Reference: reference}, nil
	default:
		return TokenSourceConfiguration{}, fmt.Errorf(unsupportedTokenSourceTemplateConstant, sourceType)
	}
}

type tokenResolver struct {
	environmentLookup EnvironmentLookup
	fileReader        FileReader
	commandRunner     execshell.CommandRunner
	pathExpander      *pathutils.HomeExpander
}

func (resolver *tokenResolver) ResolveToken(resolutionContext context.Context, source TokenSourceConfiguration) (string, error) {
	if contextError := resolutionContext.Err(); contextError != nil {
		return "", contextError
	}

	switch source.Type {
	case TokenSourceTypeEnvironment:
		value, found := resolver.environmentLookup(source.Reference)
		trimmedValue := strings.TrimSpace(value)
		if !found || len(trimmedValue) == 0 {
			return "", fmt.Errorf(environmentTokenMissingTemplateConstant, ErrTokenMissing, source.Reference)
		}
		return trimmedValue, nil
	case TokenSourceTypeFile:
		contents, readError := resolver.fileReader(resolver.pathExpander.Expand(source.Reference))
		if readError != nil {
			return "", fmt.Errorf(fileReadErrorTemplateConstant, source.Reference, readError)
		}
		trimmedValue := strings.TrimSpace(string(contents))
		if len(trimmedValue) == 0 {
			return "", fmt.Errorf(fileTokenEmptyErrorTemplateConstant, ErrTokenMissing, source.Reference)
		}
		return trimmedValue, nil
	case TokenSourceTypeGitHubCLI:
		return resolver.resolveGitHubCLIToken(resolutionContext, source.Reference)
	default:
		return "", fmt.Errorf(unsupportedTokenSourceTemplateConstant, source.Type)
	}
}

// resolveGitHubCLIToken runs `gh auth token`, scoped to hostname when one is given.
func (resolver *tokenResolver) resolveGitHubCLIToken(resolutionContext context.Context, hostname string) (string, error) {
	command := execshell.ShellCommand{
		Name:      execshell.CommandGitHub,
		Arguments: []string{githubCLIAuthSubcommandConstant, githubCLITokenSubcommandConstant},
	}
	if len(hostname) > 0 {
		command.Arguments = append(command.Arguments, githubCLIHostnameFlagConstant, hostname)
	}

	result, runError := resolver.commandRunner.Run(resolutionContext, command)
	if runError != nil {
		return "", fmt.Errorf(githubCLIRunErrorTemplateConstant, command, runError)
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf(githubCLIFailureTemplateConstant, command, result.ExitCode, strings.TrimSpace(result.StandardError))
	}

	trimmedValue := strings.TrimSpace(result.StandardOutput)
	if len(trimmedValue) == 0 {
		return "", fmt.Errorf(githubCLITokenEmptyErrorTemplateConstant, ErrTokenMissing, command)
	}
	return trimmedValue, nil
}
