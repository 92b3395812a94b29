package main

import (
	"testing"

	vectorservice "Orbit/backend/go/internal/vector_db/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandKind(t *testing.T) {
	kinds, err := expandKind("all")
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "knowledge"}, kinds)

	kinds, err = expandKind("knowledge")
	require.NoError(t, err)
	assert.Equal(t, []string{"knowledge"}, kinds)

	_, err = expandKind("posts")
	assert.ErrorIs(t, err, vectorservice.ErrUnknownIndexKind)
}
