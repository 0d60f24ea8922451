package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_MatchesKind(t *testing.T) {
	err := StudentAlreadyExists(7)

	assert.True(t, IsAlreadyExists(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "student.Create: student with id 7 already exists", err.Error())
}

func TestDomainError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("add_mark: %w", SubjectNotFound(3))

	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "subject with id 3 does not exist")
}

func TestWrapError_MatchesUnderlyingAndKind(t *testing.T) {
	cause := errors.New("socket closed")
	err := WrapError("report", "Aggregate", ErrServiceUnavailable, "aggregation failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.True(t, IsRetryable(err))
}

func TestIsNoUniqueResult(t *testing.T) {
	assert.True(t, IsNoUniqueResult(ErrNoMarksRecorded))
	assert.True(t, IsNoUniqueResult(fmt.Errorf("x: %w", ErrNonUniqueResult)))
	assert.False(t, IsNoUniqueResult(ErrStudentNotFound))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrInvalidLimit))
	assert.True(t, IsValidation(ErrEmptySubjectName))
	assert.True(t, IsValidation(ErrNegativeMark))
	assert.False(t, IsValidation(ErrSubjectNotFound))
}
