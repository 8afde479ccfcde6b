package chrome

import "errors"

// Print errors - returned while rendering a page to PDF
var (
	ErrNavigateFailed = errors.New("navigation failed")
	ErrWaitTimeout    = errors.New("navigation wait timeout exceeded")
	ErrHTTPStatus     = errors.New("target responded with error status")
	ErrPrintFailed    = errors.New("print to PDF failed")
	ErrEmptyDocument  = errors.New("print produced an empty document")
)

// Pool errors - returned during Chrome instance management
var (
	ErrPoolShutdown  = errors.New("pool is shutting down")
	ErrInstanceDead  = errors.New("chrome instance is dead")
	ErrRestartFailed = errors.New("chrome restart failed")
)
