package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := NewAppConfig()

	require.Equal(t, "Asia/Taipei", c.String("timezone"))
	require.Equal(t, ":8088", c.ServerApiAddr())
	require.Equal(t, time.Minute*2, c.SyncInterval())
	require.False(t, c.Debug())
}

func TestLoadFile(t *testing.T) {
	f, err := os.CreateTemp("", "screeninvite_test*.yml")
	require.NoError(t, err)

	fmt.Fprint(f, "---\ntimezone: UTC\nclient:\n    sync_interval: 5s\n")
	f.Close()

	c := NewAppConfig()
	require.True(t, c.Load(f.Name()))

	require.Equal(t, time.UTC, c.Location())
	require.Equal(t, time.Second*5, c.SyncInterval())
	// untouched defaults survive
	require.Equal(t, ":8080", c.ClientAddr())
}

func TestBadTimezoneFallsBack(t *testing.T) {
	c := NewAppConfig()
	c.Set("timezone", "Not/AZone")

	require.Equal(t, time.UTC, c.Location())
}

func TestLoadMissingFile(t *testing.T) {
	c := NewAppConfig()

	require.False(t, c.Load("/does/not/exist.yml"))
	require.Equal(t, ":8088", c.ServerApiAddr())
}
