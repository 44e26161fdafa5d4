package groutine_test

import (
	"context"
	"testing"

	"github.com/srg/blemidi/internal/groutine"
	"github.com/stretchr/testify/assert"
)

func TestGo_PropagatesName(t *testing.T) {
	names := make(chan string, 1)

	//nolint:staticcheck // nil parent is part of the contract
	groutine.Go(nil, "worker-1", func(ctx context.Context) {
		names <- groutine.Name(ctx)
	})

	assert.Equal(t, "worker-1", <-names)
}

func TestName_Empty(t *testing.T) {
	assert.Equal(t, "", groutine.Name(context.Background()))
	//nolint:staticcheck
	assert.Equal(t, "", groutine.Name(nil))
}
