package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrCodeNotFound, "knowledge source not found")
	assert.Equal(t, "[NOT_FOUND] knowledge source not found", err.Error())
}

func TestDomainError_ErrorWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDomainErrorWithCause(ErrCodeExtraction, "unable to fetch URL", cause)
	assert.Equal(t, "[EXTRACTION_ERROR] unable to fetch URL: connection refused", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsExtractionError(t *testing.T) {
	assert.True(t, IsExtractionError(NewExtractionError("no extractable content", nil)))
	assert.False(t, IsExtractionError(ErrSourceNotFound))
	assert.False(t, IsExtractionError(fmt.Errorf("plain error")))
}

func TestNewEmbeddingFormatError(t *testing.T) {
	err := NewEmbeddingFormatError("backend returned 0 vectors", nil)
	assert.Equal(t, ErrCodeEmbeddingFormat, err.Code)
}
