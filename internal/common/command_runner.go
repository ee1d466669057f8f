package common

import (
	"context"
	"fmt"
	"io"
	"time"

	"careercoach/internal/errors"
)

// CreateInputFunc defines how to create the specific input from file contents.
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is a generic function signature for a model-backed operation.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// Command describes one file-driven CLI run.
type Command[Input, Output any] struct {
	Name        string
	Config      CommandConfig
	MaxFileSize int64
	Stdout      io.Writer

	CreateInput CreateInputFunc[Input]
	Operation   OperationFunc[Input, Output]
	LogDetails  LogDetailsFunc[Input]
}

// RunCommand reads files, builds the input, runs the operation and prints
// its output in the configured format.
func RunCommand[Input, Output any](ctx context.Context, logger *errors.Logger, cmd Command[Input, Output], files []string) (Output, error) {
	var zero Output

	var contents []string
	if len(files) > 0 {
		var err error
		contents, err = NewFileProcessor(logger, cmd.MaxFileSize).ValidateAndReadFiles(files...)
		if err != nil {
			return zero, err
		}
	}

	input, err := cmd.CreateInput(contents)
	if err != nil {
		return zero, fmt.Errorf("failed to create input: %w", err)
	}

	if cmd.LogDetails != nil {
		cmd.LogDetails(input, cmd.Config)
	}

	start := time.Now()
	result, err := cmd.Operation(ctx, input)
	if err != nil {
		return zero, err
	}
	logger.Debug("Operation completed", "command", cmd.Name, "elapsed", time.Since(start))

	if err := NewOutputHandler(logger, cmd.Stdout).HandleOutput(result, cmd.Config); err != nil {
		return zero, err
	}
	return result, nil
}
