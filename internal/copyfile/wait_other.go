//go:build !unix

package copyfile

import (
	"context"
	"errors"
)

func waitDirect(context.Context, int, int) error { return errors.ErrUnsupported }

func waitReadable(context.Context, int) error { return errors.ErrUnsupported }
