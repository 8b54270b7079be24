package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidUniverse      ErrorCode = 101
	ErrCodeInvalidDateRange     ErrorCode = 102
	ErrCodeInvalidCostModel     ErrorCode = 103
	ErrCodeInvalidParameter     ErrorCode = 104

	// Data errors (200-299)
	ErrCodeDataUnavailable ErrorCode = 200
	ErrCodeDataNotFound    ErrorCode = 201
	ErrCodeQueryFailed     ErrorCode = 202
	ErrCodeEmptyPriceTable ErrorCode = 203

	// Signal errors (300-399)
	ErrCodeSignalFailed      ErrorCode = 300
	ErrCodeSignalRowMismatch ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyFailed ErrorCode = 400

	// Execution errors (500-599)
	ErrCodeInvalidOrder ErrorCode = 500

	// Backtest errors (600-699)
	ErrCodeInvalidState   ErrorCode = 600
	ErrCodeBacktestFailed ErrorCode = 601
)
