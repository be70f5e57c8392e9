package execshell

import (
	"context"
	"strings"
)

// CommandName identifies an executable.
type CommandName string

// CommandGitHub invokes the GitHub CLI.
const CommandGitHub CommandName = "gh"

// ShellCommand describes one command invocation.
type ShellCommand struct {
	Name      CommandName
	Arguments []string
}

// String renders the command line for logs and error messages.
func (command ShellCommand) String() string {
	return strings.Join(append([]string{string(command.Name)}, command.Arguments...), " ")
}

// ExecutionResult captures the output of a finished command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}
