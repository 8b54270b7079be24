package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite is a test suite for the error type and helpers
type ErrorsTestSuite struct {
	suite.Suite
}

// TestErrorsSuite runs the test suite
func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (suite *ErrorsTestSuite) TestNew() {
	err := New(ErrCodeInvalidOrder, "quantity must be positive")

	suite.Assert().Equal(ErrCodeInvalidOrder, GetCode(err))
	suite.Assert().Contains(err.Error(), "quantity must be positive")
}

func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrCodeInvalidParameter, "period must be positive, got %d", -3)

	suite.Assert().Equal(ErrCodeInvalidParameter, GetCode(err))
	suite.Assert().Contains(err.Error(), "got -3")
}

func (suite *ErrorsTestSuite) TestWrapKeepsCause() {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrCodeDataUnavailable, "failed to load price history", cause)

	suite.Assert().Equal(ErrCodeDataUnavailable, GetCode(err))
	suite.Assert().ErrorIs(err, cause)
	suite.Assert().Contains(err.Error(), "failed to load price history")
	suite.Assert().Contains(err.Error(), "connection refused")
}

func (suite *ErrorsTestSuite) TestHasCode() {
	tests := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{
			name:     "direct match",
			err:      New(ErrCodeInvalidState, "already running"),
			code:     ErrCodeInvalidState,
			expected: true,
		},
		{
			name:     "wrapped match",
			err:      Wrap(ErrCodeBacktestFailed, "run failed", New(ErrCodeStrategyFailed, "boom")),
			code:     ErrCodeBacktestFailed,
			expected: true,
		},
		{
			name:     "no match",
			err:      New(ErrCodeInvalidOrder, "bad order"),
			code:     ErrCodeInvalidState,
			expected: false,
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("plain"),
			code:     ErrCodeInvalidOrder,
			expected: false,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Assert().Equal(tc.expected, HasCode(tc.err, tc.code))
		})
	}
}

func (suite *ErrorsTestSuite) TestGetCodeReturnsOutermostCode() {
	inner := New(ErrCodeSignalFailed, "generator failed")
	outer := Wrap(ErrCodeBacktestFailed, "run failed", inner)

	suite.Assert().Equal(ErrCodeBacktestFailed, GetCode(outer))
	suite.Assert().ErrorIs(outer, inner)
}

func (suite *ErrorsTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataError(20, 5, "AAPL", "not enough history")

	suite.Assert().True(IsInsufficientDataError(err))
	suite.Assert().Equal("not enough history", err.Error())
	suite.Assert().Equal(20, err.Required)
	suite.Assert().Equal(5, err.Actual)
	suite.Assert().False(IsInsufficientDataError(fmt.Errorf("plain")))
}

func (suite *ErrorsTestSuite) TestGetCodeUnknownForPlainError() {
	suite.Assert().Equal(ErrCodeUnknown, GetCode(fmt.Errorf("plain")))
}
