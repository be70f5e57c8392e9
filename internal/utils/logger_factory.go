package utils

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelWarningAliasConstant         = "warning"
	logLevelErrorStringConstant          = "error"
	logLevelCriticalAliasConstant        = "critical"
	logLevelFatalAliasConstant           = "fatal"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logLevelAliases = map[string]LogLevel{
	logLevelWarningAliasConstant:  LogLevelWarn,
	logLevelCriticalAliasConstant: LogLevelError,
	logLevelFatalAliasConstant:    LogLevelError,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// ParseLogLevel normalizes a textual log level, ignoring case and surrounding whitespace.
func ParseLogLevel(logLevelValue string) (LogLevel, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(logLevelValue))
	if aliasedLevel, isAlias := logLevelAliases[normalizedValue]; isAlias {
		return aliasedLevel, nil
	}

	candidateLevel := LogLevel(normalizedValue)
	if _, levelExists := logLevelMapping[candidateLevel]; !levelExists {
		return "", fmt.Errorf(unsupportedLogLevelTemplateConstant, logLevelValue)
	}
	return candidateLevel, nil
}

// ParseLogFormat normalizes a textual log format, ignoring case and surrounding whitespace.
func ParseLogFormat(logFormatValue string) (LogFormat, error) {
	candidateFormat := LogFormat(strings.ToLower(strings.TrimSpace(logFormatValue)))
	if _, formatExists := logFormatEncodingMapping[candidateFormat]; !formatExists {
		return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, logFormatValue)
	}
	return candidateFormat, nil
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct {
	outputWriter io.Writer
}

// NewLoggerFactory constructs a logger factory writing to standard error.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// NewLoggerFactoryWithWriter constructs a logger factory writing to the provided writer.
func NewLoggerFactoryWithWriter(outputWriter io.Writer) *LoggerFactory {
	return &LoggerFactory{outputWriter: outputWriter}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	parsedLogLevel, levelError := ParseLogLevel(string(requestedLogLevel))
	if levelError != nil {
		return nil, levelError
	}

	parsedLogFormat, formatError := ParseLogFormat(string(requestedLogFormat))
	if formatError != nil {
		return nil, formatError
	}

	zapLogLevel := logLevelMapping[parsedLogLevel]
	encoding := logFormatEncodingMapping[parsedLogFormat]

	if factory != nil && factory.outputWriter != nil {
		return factory.createWriterLogger(zapLogLevel, parsedLogFormat), nil
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.Encoding = encoding
	if parsedLogFormat == LogFormatConsole {
		configuration.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	logger, buildError := configuration.Build()
	if buildError != nil {
		return nil, buildError
	}

	return logger, nil
}

func (factory *LoggerFactory) createWriterLogger(zapLogLevel zapcore.Level, logFormat LogFormat) *zap.Logger {
	var encoder zapcore.Encoder
	switch logFormat {
	case LogFormatConsole:
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(factory.outputWriter), zap.NewAtomicLevelAt(zapLogLevel))
	return zap.New(core)
}
