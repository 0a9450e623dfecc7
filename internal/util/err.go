package util

type GhxCmdError = int

// general
const (
	ErrorSuccess       GhxCmdError = 0
	ErrorExecuteFailed GhxCmdError = 1
	ErrorCmdArg        GhxCmdError = 2
	ErrorNetwork       GhxCmdError = 3
	ErrorBackend       GhxCmdError = 4
	ErrorRateLimited   GhxCmdError = 5
)
