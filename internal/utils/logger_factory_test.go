package utils_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/actions-audit/internal/utils"
)

const (
	testLoggerFactoryCaseSupportedFormatConstant   = "supported_log_level_%s_format_%s"
	testLoggerFactoryCaseUnsupportedLevelConstant  = "unsupported_log_level"
	testLoggerFactoryCaseUnsupportedFormatConstant = "unsupported_log_format"
	testLoggerFactoryCaseUppercaseLevelConstant    = "uppercase_log_level"
	testLoggerFactorySubtestTemplateConstant       = "%d_%s"
	testInvalidLogLevelConstant                    = "invalid"
	testInvalidLogFormatConstant                   = "invalid"
	testLogMessageConstant                         = "logger_factory_test_message"
	testDebugMessageConstant                       = "logger_factory_debug_message"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name                string
		requestedLogLevel   utils.LogLevel
		requestedLogFormat  utils.LogFormat
		expectError         bool
		expectStructuredLog bool
	}{
		{
			name:                fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelDebug, utils.LogFormatStructured),
			requestedLogLevel:   utils.LogLevelDebug,
			requestedLogFormat:  utils.LogFormatStructured,
			expectStructuredLog: true,
		},
		{
			name:               fmt.Sprintf(testLoggerFactoryCaseSupportedFormatConstant, utils.LogLevelInfo, utils.LogFormatConsole),
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormatConsole,
		},
		{
			name:                testLoggerFactoryCaseUppercaseLevelConstant,
			requestedLogLevel:   utils.LogLevel("INFO"),
			requestedLogFormat:  utils.LogFormat(" Structured "),
			expectStructuredLog: true,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedLevelConstant,
			requestedLogLevel:  utils.LogLevel(testInvalidLogLevelConstant),
			requestedLogFormat: utils.LogFormatStructured,
			expectError:        true,
		},
		{
			name:               testLoggerFactoryCaseUnsupportedFormatConstant,
			requestedLogLevel:  utils.LogLevelInfo,
			requestedLogFormat: utils.LogFormat(testInvalidLogFormatConstant),
			expectError:        true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testLoggerFactorySubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			outputBuffer := &bytes.Buffer{}
			logger, creationError := utils.NewLoggerFactoryWithWriter(outputBuffer).CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
			if testCase.expectError {
				require.Error(testInstance, creationError)
				require.Nil(testInstance, logger)
				return
			}
			require.NoError(testInstance, creationError)

			logger.Info(testLogMessageConstant)
			require.NoError(testInstance, logger.Sync())

			loggedLine := bytes.TrimSpace(outputBuffer.Bytes())
			require.Contains(testInstance, string(loggedLine), testLogMessageConstant)
			require.Equal(testInstance, testCase.expectStructuredLog, json.Valid(loggedLine))
		})
	}
}

func TestLoggerFactoryStandardErrorLogger(testInstance *testing.T) {
	logger, creationError := utils.NewLoggerFactory().CreateLogger(utils.LogLevelWarn, utils.LogFormatConsole)
	require.NoError(testInstance, creationError)
	require.False(testInstance, logger.Core().Enabled(zapcore.InfoLevel))
	require.True(testInstance, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestLoggerFactoryWriterHonorsLevel(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	loggerFactory := utils.NewLoggerFactoryWithWriter(outputBuffer)

	logger, creationError := loggerFactory.CreateLogger(utils.LogLevelInfo, utils.LogFormatStructured)
	require.NoError(testInstance, creationError)

	logger.Debug(testDebugMessageConstant)
	logger.Info(testLogMessageConstant)

	require.NotContains(testInstance, outputBuffer.String(), testDebugMessageConstant)
	require.Contains(testInstance, outputBuffer.String(), testLogMessageConstant)
}

func TestParseLogLevel(testInstance *testing.T) {
	testCases := []struct {
		input         string
		expectedLevel utils.LogLevel
		expectError   bool
	}{
		{input: "DEBUG", expectedLevel: utils.LogLevelDebug},
		{input: " info ", expectedLevel: utils.LogLevelInfo},
		{input: "Warning", expectedLevel: utils.LogLevelWarn},
		{input: "warn", expectedLevel: utils.LogLevelWarn},
		{input: "CRITICAL", expectedLevel: utils.LogLevelError},
		{input: "fatal", expectedLevel: utils.LogLevelError},
		{input: "verbose", expectError: true},
		{input: "", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.input, func(testInstance *testing.T) {
			parsedLevel, parseError := utils.ParseLogLevel(testCase.input)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedLevel, parsedLevel)
		})
	}
}
