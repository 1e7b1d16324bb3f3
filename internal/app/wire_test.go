package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bizscan/internal/archive"
	"github.com/joseph-ayodele/bizscan/internal/common"
)

func testConfig() *common.Config {
	cfg := common.LoadConfig()
	cfg.LLM.APIKeys = []string{"k1"}
	return cfg
}

func TestBuild(t *testing.T) {
	c := Build(testConfig(), nil)
	assert.NotNil(t, c.Processor)
	assert.NotNil(t, c.Extractor)
	assert.NotNil(t, c.Checker)
	assert.NotNil(t, c.Reviewer)
	assert.NotNil(t, c.Contacts)
}

func TestBatchOptions(t *testing.T) {
	assert.Len(t, BatchOptions(testConfig()), 4)
}

func TestNewGateway(t *testing.T) {
	cfg := testConfig()
	cfg.Approval.Enabled = false
	g, closeFn, err := NewGateway(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, g)
	closeFn()

	cfg.Approval.Enabled = true
	cfg.Approval.RedisAddr = ""
	cfg.Approval.TTL = time.Minute
	g, closeFn, err = NewGateway(cfg, NewLogger("error"))
	require.NoError(t, err)
	require.NotNil(t, g)
	closeFn()
}

func TestNewArchiver_NoBucket(t *testing.T) {
	cfg := testConfig()
	cfg.Archive.Bucket = ""
	a, err := NewArchiver(t.Context(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, archive.NopUploader{}, a)
}
