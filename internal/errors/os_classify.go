package errors

import (
	stderrors "errors"
	"io/fs"
	"os"
)

func isNotExist(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}

func isPermission(err error) bool {
	return stderrors.Is(err, fs.ErrPermission) || os.IsPermission(err)
}
