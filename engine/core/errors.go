package core

import (
	"errors"
)

var (
	ErrTooManyMacros        = errors.New("compile macro limit reached")
	ErrInvalidPermutation   = errors.New("invalid shader configuration")
	ErrShaderNotFound       = errors.New("shader not found")
	ErrShaderSourceNotFound = errors.New("no shader source found")
	ErrShaderSourceEmpty    = errors.New("shader source is empty")
	ErrShaderCompile        = errors.New("shader failed to compile")
	ErrShaderLink           = errors.New("shader program failed to link")
	ErrShaderBroken         = errors.New("shader disabled after a build failure")
	ErrCacheHeader          = errors.New("malformed shader binary header")
	ErrArrayAlignment       = errors.New("array uniform alignment must be at least 4 words")
	ErrArrayPadding         = errors.New("cannot pad after an array uniform")
	ErrQueueEmpty           = errors.New("queue is empty")
	ErrUnknownUniform       = errors.New("unknown uniform")
)
