package source

import "errors"

var ErrClone = errors.New("clone failed")
