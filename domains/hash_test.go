package domains_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerautomation/domainmcp/domains"
)

func TestRequestHashNormalizes(t *testing.T) {
	base := domains.RequestHash("analyze my insurance policy")

	assert.Equal(t, base, domains.RequestHash("Analyze   my insurance\tpolicy"))
	assert.Equal(t, base, domains.RequestHash("  analyze my insurance policy\n"))
	assert.NotEqual(t, base, domains.RequestHash("analyze my insurance claims"))
}

func TestRequestHashStable(t *testing.T) {
	h1 := domains.RequestHash("保單核保流程分析")
	h2 := domains.RequestHash("保單核保流程分析")

	require.NotEmpty(t, h1)
	assert.Equal(t, h1, h2)
}

func TestNormalizeRequest(t *testing.T) {
	assert.Equal(t, "hello world", domains.NormalizeRequest("  Hello\t\tWORLD  "))
	assert.Equal(t, "", domains.NormalizeRequest("   \n\t "))
}
