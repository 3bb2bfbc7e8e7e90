package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/mpl/src/mpl"
)

func TestFromOptionsDefaults(t *testing.T) {
	conf, err := FromOptions(nil)
	require.NoError(t, err)
	require.Equal(t, *mpl.DefaultConfig(), conf.MPL)
	require.Equal(t, DefaultCacheSize, conf.CacheSize)
	require.NoError(t, conf.Validate())
}

func TestFromOptionsMergesUnsetKeys(t *testing.T) {
	conf, err := FromOptions(map[string]interface{}{
		"REACTIVE_FORWARDING":               false,
		"SEED_SET_ENTRY_LIFETIME":           60,
		"DATA_MESSAGE_IMIN":                 2,
		"CONTROL_MESSAGE_IMAX":              "90s",
		"CONTROL_MESSAGE_TIMER_EXPIRATIONS": "4",
		"is_seed":                           true,
		"SEED_ID":                           42,
		"cache-size":                        10,
	})
	require.NoError(t, err)

	require.False(t, conf.MPL.ReactiveForwarding)
	require.Equal(t, mpl.DefaultProactiveForwarding, conf.MPL.ProactiveForwarding)
	require.Equal(t, 60, conf.MPL.SeedSetEntryLifetime)
	require.Equal(t, 2*time.Second, conf.MPL.DataMessageIMin)
	require.Equal(t, 2*time.Second, conf.MPL.DataMessageIMax)
	require.Equal(t, mpl.DefaultControlMessageIMin, conf.MPL.ControlMessageIMin)
	require.Equal(t, 90*time.Second, conf.MPL.ControlMessageIMax)
	require.Equal(t, 4, conf.MPL.ControlMessageTimerExpirations)
	require.True(t, conf.MPL.IsSeed)
	require.Equal(t, mpl.SeedID(42), conf.MPL.SeedID)
	require.Equal(t, mpl.DefaultMinSequenceMargin, conf.MPL.MinSequenceMargin)
	require.Equal(t, 10, conf.CacheSize)
}

func TestFromOptionsExplicitIMax(t *testing.T) {
	conf, err := FromOptions(map[string]interface{}{
		"DATA_MESSAGE_IMIN": "100ms",
		"DATA_MESSAGE_IMAX": 500 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, conf.MPL.DataMessageIMin)
	require.Equal(t, 500*time.Millisecond, conf.MPL.DataMessageIMax)
}

func TestFromOptionsInvalid(t *testing.T) {
	_, err := FromOptions(map[string]interface{}{
		"DATA_MESSAGE_TIMER_EXPIRATIONS": "three",
	})
	require.Error(t, err)

	conf, err := FromOptions(map[string]interface{}{
		"DATA_MESSAGE_IMIN": "2s",
		"DATA_MESSAGE_IMAX": "1s",
	})
	require.NoError(t, err)
	require.Error(t, conf.Validate())
}

func TestSetDataDir(t *testing.T) {
	conf := NewDefaultConfig()
	conf.SetDataDir("/tmp/mpl")
	require.Equal(t, filepath.Join("/tmp/mpl", DefaultBadgerFile), conf.DatabaseDir)

	conf.DatabaseDir = "/var/db"
	conf.SetDataDir("/tmp/other")
	require.Equal(t, "/var/db", conf.DatabaseDir)
}

func TestLogger(t *testing.T) {
	conf := NewTestConfig(t, logrus.InfoLevel)
	entry := conf.Logger()
	require.Equal(t, "mpl", entry.Data["prefix"])
	require.Equal(t, logrus.InfoLevel, entry.Logger.Level)

	require.Equal(t, logrus.WarnLevel, LogLevel("warn"))
	require.Equal(t, logrus.DebugLevel, LogLevel("chatty"))
}
