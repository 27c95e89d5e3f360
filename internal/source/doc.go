// Package source acquires build contexts from remote repositories.
//
// Local directory contexts are used directly by callers; this package
// covers the git case, shallow-cloning a repository into a temporary
// directory that the caller removes after the build.
package source
