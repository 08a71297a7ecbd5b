package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, DataFormatVersion, info.DataFormat)
	assert.Equal(t, APIVersion, info.APIVersion)
}

func TestGetVersionString(t *testing.T) {
	assert.Equal(t, "bitewatch v"+Version, GetVersionString())
}
