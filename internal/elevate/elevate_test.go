package elevate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeedsFallback_DetectsIndicators(t *testing.T) {
	assert.True(t, needsFallback("sudo: a terminal is required to read the password"))
	assert.True(t, needsFallback("sudo: a password is required"))
	assert.True(t, needsFallback("no askpass helper configured"))
	assert.False(t, needsFallback("permission denied"))
}

func TestGuidanceError_CarriesThreeAdviceLines(t *testing.T) {
	err := &GuidanceError{Host: "node1", Advice: defaultAdvice("node1")}
	assert.Len(t, err.Advice, 3)
	assert.Contains(t, err.Error(), "node1")
}

func TestCacheKey_IsolatesHostAndAccount(t *testing.T) {
	assert.NotEqual(t, cacheKey("hostA", "root"), cacheKey("hostB", "root"))
	assert.NotEqual(t, cacheKey("hostA", "root"), cacheKey("hostA", "admin"))
}
