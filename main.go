// Package main provides the entry point for the avatarsync CLI.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/avatarsync/speech"
	"github.com/dgnsrekt/avatarsync/speech/audio"
	"github.com/dgnsrekt/avatarsync/speech/engines"
	"github.com/dgnsrekt/avatarsync/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	showMeter  bool
	silent     bool

	rootCmd = &cobra.Command{
		Use:   "avatarsync [text]...",
		Short: "Speak text and drive avatar animation from the live volume",
		Long: paragraph(
			fmt.Sprintf("\nQueue text for speech and watch the %s the voice produces. Each line plays in order; activity events fire as the voice rises above and falls below the volume threshold.", keyword("loudness")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ArbitraryArgs,
		RunE:             execute,
	}
)

// loadConfig layers defaults, the config file, environment variables, and
// flags, in that order of precedence.
func loadConfig(cmd *cobra.Command) (speech.Config, error) {
	cfg, err := speech.LoadConfigFromViper()
	if err != nil {
		return cfg, err
	}

	// Environment overrides the file; only variables actually set apply.
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing environment: %w", err)
	}

	if cmd.Flags().Changed("engine") {
		cfg.Engine = engineName
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// gatherLines collects the text to speak: each CLI argument is one
// utterance, or each line of a piped stdin.
func gatherLines(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice != 0 && stat.Size() == 0 {
		return nil, nil
	}

	var lines []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read stdin: %w", err)
	}
	return lines, nil
}

func execute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	lines, err := gatherLines(args)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return cmd.Help()
	}

	synth, err := engines.ForConfig(cfg)
	if err != nil {
		return fmt.Errorf("unable to create speech backend: %w", err)
	}
	log.Debug("speech backend ready", "engine", synth.Name())

	var clock speech.PlaybackClock
	if silent {
		clock = audio.NewMockClock()
	} else {
		clock, err = audio.NewClock(audio.ClockConfig{
			SampleRate: cfg.SampleRate,
			Channels:   cfg.Channels,
			Volume:     cfg.Volume,
			BufferSize: 4096,
		})
		if err != nil {
			return fmt.Errorf("unable to open audio device: %w", err)
		}
	}

	if showMeter {
		return runMeter(cfg, synth, clock, lines)
	}
	return runPlain(cfg, synth, clock, lines)
}

// watchTuning re-applies the tuning section whenever the config file is
// edited, so threshold and dwell changes land mid-session without a restart.
func watchTuning(q *speech.Queue) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(fsnotify.Event) {
		cfg, err := speech.LoadConfigFromViper()
		if err != nil {
			log.Warn("ignoring configuration change", "err", err)
			return
		}
		if err := q.SetTuning(cfg.Tuning); err != nil {
			log.Warn("ignoring configuration change", "err", err)
			return
		}
		log.Info("tuning reloaded", "path", viper.ConfigFileUsed())
	})
	viper.WatchConfig()
}

// runPlain plays the lines with activity events logged to stderr.
func runPlain(cfg speech.Config, synth speech.Synthesizer, clock speech.PlaybackClock, lines []string) error {
	q, err := speech.NewQueue(cfg, synth, clock, logObserver{})
	if err != nil {
		return fmt.Errorf("unable to create speech queue: %w", err)
	}
	defer q.Close()
	watchTuning(q)

	for _, line := range lines {
		if err := q.Enqueue(line); err != nil {
			return fmt.Errorf("unable to enqueue %q: %w", line, err)
		}
	}
	q.Wait()
	return nil
}

// runMeter plays the lines behind the live TUI meter.
func runMeter(cfg speech.Config, synth speech.Synthesizer, clock speech.PlaybackClock, lines []string) error {
	obs := ui.NewObserver()
	q, err := speech.NewQueue(cfg, synth, clock, obs)
	if err != nil {
		return fmt.Errorf("unable to create speech queue: %w", err)
	}
	defer q.Close()

	watchTuning(q)

	p := ui.NewProgram(q)
	obs.Bind(p)

	for _, line := range lines {
		if err := q.Enqueue(line); err != nil {
			return fmt.Errorf("unable to enqueue %q: %w", line, err)
		}
	}

	// The meter quits with the user; playback that is still pending when
	// the program exits is torn down by Close.
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run meter: %w", err)
	}
	return nil
}

// logObserver reports lifecycle and activity events as log lines.
type logObserver struct{}

func (logObserver) OnStart()  { log.Info("utterance started") }
func (logObserver) OnActive() { log.Debug("voice active") }
func (logObserver) OnSilent() { log.Debug("voice silent") }
func (logObserver) OnEnd()    { log.Info("utterance finished") }

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "", "speech backend: mock, piper, elevenlabs, or auto")
	rootCmd.Flags().BoolVarP(&showMeter, "meter", "m", false, "show the live volume meter TUI")
	rootCmd.Flags().BoolVar(&silent, "silent", false, "time playback without an audio device")

	_ = viper.BindPFlag("speech.engine", rootCmd.Flags().Lookup("engine"))

	speech.SetDefaults()

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "avatarsync")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "avatarsync")}, dirs...)
	}

	if c := os.Getenv("AVATARSYNC_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("avatarsync")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("avatarsync")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "avatarsync.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
