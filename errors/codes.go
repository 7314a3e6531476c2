// Package errors provides the error handling foundation for the devtools CI
// commands. It extends Go's standard error handling with structured error
// codes for the failure classes the pipeline distinguishes, plus helpers to
// wrap errors while keeping errors.Is/errors.As working.
package errors

// ErrorCode classifies a failure for exit handling and diagnosis.
// Error codes are string-based for debuggability and natural log output.
type ErrorCode string

const (
	// Configuration errors.

	// CodeInvalidConfig indicates a missing or malformed configuration value
	// (environment variable, order-file entry, condarc). Fatal, never retried.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be
	// created again, such as an artifact already published on a channel.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Permission errors.

	// CodeForbidden indicates a policy violation, such as publishing a
	// private project's artifacts to a public channel.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// Execution errors.

	// CodeExecutionFailed indicates an external tool exited with an error.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeBuildFailed indicates a conda build operation failed.
	CodeBuildFailed ErrorCode = "BUILD_FAILED"

	// CodePublishFailed indicates an artifact or documentation upload failed.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed (project visibility
	// probe, channel listing, store access).
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
