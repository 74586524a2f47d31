package results

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationResult(t *testing.T) {
	ok := SuccessResult[string, error]("done")
	assert.True(t, ok.IsSuccess())
	assert.False(t, ok.IsFailure())
	assert.Equal(t, "done", *ok.Success)

	errBoom := errors.New("boom")
	failed := FailureResult[string, error](errBoom)
	assert.True(t, failed.IsFailure())
	assert.False(t, failed.IsSuccess())
	assert.ErrorIs(t, *failed.Failure, errBoom)

	var empty OperationResult[string, error]
	assert.False(t, empty.IsSuccess())
	assert.False(t, empty.IsFailure())
}
