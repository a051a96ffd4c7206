package interaction

import (
	"errors"

	"github.com/slighter12/sanshu-mcp-go/tools/types"
)

// ToolError classifies a transport failure for the dispatcher. prefix leads
// the message unless err is a ProcessError, whose label already names the
// failed operation.
func ToolError(prefix string, err error) error {
	if err == nil {
		return nil
	}
	message := err.Error()

	var perr *ProcessError
	switch {
	case errors.As(err, &perr):
		return types.NewToolError(types.KindTransportFailed, message, err)
	case errors.Is(err, ErrBinaryNotFound):
		return types.NewToolError(types.KindBinaryNotFound, prefix+message, err)
	default:
		return types.NewInternalError(prefix+message, err)
	}
}
