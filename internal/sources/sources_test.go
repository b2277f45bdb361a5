package sources

import (
	"context"
	"time"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/errors"
)

func TestNew(t *testing.T) {
	f, err := New(context.Background(), authority.KindLOC, 0, Config{})
	require.NoError(t, err)
	assert.Equal(t, authority.KindLOC, f.Kind())

	_, err = New(context.Background(), authority.KindOCLC, time.Second, Config{})
	assert.True(t, errors.IsConfigError(err))

	_, err = New(context.Background(), authority.Kind("viaf"), 0, Config{})
	assert.True(t, errors.IsValidationError(err))
}
