package common

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetModuleBuildInfo_Ldflags(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() {
		Version, GitCommit = oldVersion, oldCommit
	})

	Version = "v1.2.3"
	GitCommit = "0123456789abcdef"

	version, commit, ok := GetModuleBuildInfo()
	assert.True(t, ok)
	assert.Equal(t, "v1.2.3", version)
	assert.Equal(t, "0123456789abcdef", commit)

	assert.Equal(t, "v1.2.3 (git: 01234567)", GetVersion())
	assert.Equal(t, "console/v1.2.3", UserAgent())
}

func TestClientIdentifier(t *testing.T) {
	id := ClientIdentifier(AppName)
	assert.NotEqual(t, uuid.Nil, id)
}
