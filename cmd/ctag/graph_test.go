package main

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/ctag/internal/errors"
)

func TestKeywordAncestors(t *testing.T) {
	g := testEngine(t).Graph()

	got, err := keywordAncestors(g, "  Django ")
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, got)

	got, err = keywordAncestors(g, "MYPROJ")
	require.NoError(t, err)
	assert.Equal(t, []string{"project-myproj"}, got)

	_, err = keywordAncestors(g, "flask")
	require.Error(t, err)
	assert.Equal(t, `unknown keyword "flask"`, err.Error())
	assert.False(t, stderrors.Is(err, errors.ErrInvariant), "user input is not a programming error")
}
