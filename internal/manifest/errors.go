package manifest

import "errors"

var (
	ErrRead    = errors.New("manifest read failed")
	ErrSyntax  = errors.New("manifest syntax error")
	ErrInvalid = errors.New("invalid image specification")
)
