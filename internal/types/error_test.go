package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBadRequest(t *testing.T) {
	cause := errors.New("empty upload")
	err := NewBadRequest(cause, "upload.input")

	assert.Equal(t, 400, err.Code)
	assert.Equal(t, "400: empty upload [type: upload.input]", err.Error())
	assert.ErrorIs(t, err, cause)
}
