//go:generate go run go.uber.org/mock/mockgen -source=runner.go -destination=../mocks/mock_runner.go -package=mocks
package interfaces

import (
	"context"

	"github.com/natadecua/SNOOP/internal/model"
)

// CommandRunner executes an external program and waits for it to finish.
//
// A non-zero exit status is reported through the result, not as an error.
// Errors mean the program could not be started (wrapping
// model.ErrCommandNotFound when it does not exist) or could not be waited on.
// When ctx is done the implementation must terminate the process, not merely
// stop waiting for it.
type CommandRunner interface {
	Run(ctx context.Context, cmd model.Command) (*model.ProcessResult, error)
}
