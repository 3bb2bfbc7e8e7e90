package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/mosaicnetworks/mpl/src/config"
)

/*******************************************************************************
* FLAGS
*******************************************************************************/

// AddProtocolFlags adds the MPL protocol options. Flag names are the option
// names in lower case.
func AddProtocolFlags(cmd *cobra.Command) {
	conf := _config.MPL.MPL

	cmd.Flags().Bool("reactive_forwarding", conf.ReactiveForwarding, "Exchange control messages")
	cmd.Flags().Bool("proactive_forwarding", conf.ProactiveForwarding, "Retransmit data messages on their trickle timer")
	cmd.Flags().Int("seed_set_entry_lifetime", conf.SeedSetEntryLifetime, "Lifecycle ticks before an idle seed is forgotten")
	cmd.Flags().Duration("data_message_imin", conf.DataMessageIMin, "Min trickle interval of data messages")
	cmd.Flags().Duration("data_message_imax", conf.DataMessageIMax, "Max trickle interval of data messages (defaults to imin)")
	cmd.Flags().Int("data_message_k", conf.DataMessageK, "Redundancy constant of data messages")
	cmd.Flags().Int("data_message_timer_expirations", conf.DataMessageTimerExpirations, "Transmissions of a data message")
	cmd.Flags().Duration("control_message_imin", conf.ControlMessageIMin, "Min trickle interval of control messages")
	cmd.Flags().Duration("control_message_imax", conf.ControlMessageIMax, "Max trickle interval of control messages")
	cmd.Flags().Int("control_message_k", conf.ControlMessageK, "Redundancy constant of control messages")
	cmd.Flags().Int("control_message_timer_expirations", conf.ControlMessageTimerExpirations, "Control messages sent after each reset")
	cmd.Flags().Int("min_sequence_margin", conf.MinSequenceMargin, "Sequence numbers kept behind the highest one")
}

// AddNetworkFlags adds the options describing the generated network and the
// traffic it carries.
func AddNetworkFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.MPL.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.MPL.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-dir", _config.LogDir, "Directory receiving one log file per level")
	cmd.Flags().Duration("lifecycle", _config.MPL.LifecycleInterval, "Period of the seed lifetime tick")

	// Topology
	cmd.Flags().String("topology", _config.Topology, "line, grid or full")
	cmd.Flags().IntP("nodes", "n", _config.Nodes, "Number of nodes")
	cmd.Flags().Int("width", _config.Width, "Row length of a grid")
	cmd.Flags().Duration("delay", _config.Delay, "Link delay")
	cmd.Flags().Float64("loss", _config.Loss, "Link loss probability")

	// Traffic
	cmd.Flags().Int("seeds", _config.Seeds, "Number of seed nodes")
	cmd.Flags().IntP("messages", "m", _config.Messages, "Messages published by each seed")
	cmd.Flags().Duration("interval", _config.Interval, "Time between two messages of a seed")
	cmd.Flags().Int("payload-size", _config.PayloadSize, "Payload size in bytes")
	cmd.Flags().DurationP("duration", "d", _config.Duration, "Length of the run")
	cmd.Flags().Duration("join-jitter", _config.JoinJitter, "Spread of the join times")
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.MPL.SetDataDir(_config.MPL.DataDir)

	logger, err := newLogger(_config)
	if err != nil {
		return err
	}
	_config.MPL.SetLogger(logger)

	if err := _config.MPL.Validate(); err != nil {
		return err
	}

	conf := _config.MPL.MPL
	logFields := logrus.Fields{
		"DataDir":                        _config.MPL.DataDir,
		"LogLevel":                       _config.MPL.LogLevel,
		"LifecycleInterval":              _config.MPL.LifecycleInterval,
		"Store":                          _config.MPL.Store,
		"ReactiveForwarding":             conf.ReactiveForwarding,
		"ProactiveForwarding":            conf.ProactiveForwarding,
		"SeedSetEntryLifetime":           conf.SeedSetEntryLifetime,
		"DataMessageIMin":                conf.DataMessageIMin,
		"DataMessageIMax":                conf.DataMessageIMax,
		"DataMessageTimerExpirations":    conf.DataMessageTimerExpirations,
		"ControlMessageIMin":             conf.ControlMessageIMin,
		"ControlMessageIMax":             conf.ControlMessageIMax,
		"ControlMessageTimerExpirations": conf.ControlMessageTimerExpirations,
		"Topology":                       _config.Topology,
		"Nodes":                          _config.Nodes,
		"Seeds":                          _config.Seeds,
		"Messages":                       _config.Messages,
		"Duration":                       _config.Duration,
	}

	if _config.MPL.Store {
		logFields["DatabaseDir"] = _config.MPL.DatabaseDir
	}

	_config.MPL.Logger().WithFields(logFields).Debug("Config")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/mpl.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigName)
	viper.AddConfigPath(_config.MPL.DataDir)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.MPL.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.MPL.Logger().Debugf("No config file found in: %s", _config.MPL.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// node options go through Merge, which reads bare numbers as seconds and
	// lets DATA_MESSAGE_IMAX follow DATA_MESSAGE_IMIN
	return _config.MPL.Merge(explicitOptions())
}

// explicitOptions returns the options set by a flag or the config file.
func explicitOptions() map[string]interface{} {
	opts := make(map[string]interface{})
	for _, key := range viper.AllKeys() {
		if viper.IsSet(key) {
			opts[key] = viper.Get(key)
		}
	}
	return opts
}

func newLogger(conf *CLIConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.Level = config.LogLevel(conf.MPL.LogLevel)
	logger.Formatter = new(prefixed.TextFormatter)

	if conf.LogDir == "" {
		return logger, nil
	}

	if err := os.MkdirAll(conf.LogDir, 0755); err != nil {
		return nil, err
	}

	pathMap := lfshook.PathMap{}
	for _, level := range []logrus.Level{
		logrus.DebugLevel,
		logrus.InfoLevel,
		logrus.WarnLevel,
		logrus.ErrorLevel,
	} {
		pathMap[level] = filepath.Join(conf.LogDir, fmt.Sprintf("mpl_%s.log", level))
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))

	return logger, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
