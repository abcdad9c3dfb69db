package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# Speech pipeline configuration
speech:
  # Speech backend: mock, piper, elevenlabs, or auto
  engine: "mock"
  # Output sample rate in Hz
  sample_rate: 44100
  # 1 = mono, 2 = stereo
  channels: 1
  # Playback volume (0.0 to 2.0)
  volume: 1.0

  # Activity detection. These are empirically tuned per voice.
  tuning:
    # Normalized volume above which the voice counts as speaking
    volume_threshold: 0.01
    # How long Active must hold before a drop can go Silent
    min_active_dwell: "200ms"
    # How long Silent must hold before a rise can go Active
    min_silent_dwell: "50ms"
    # Raw volume samples averaged before the threshold comparison
    smoothing_window: 5
    # RMS analysis window and hop
    envelope_window: "20ms"
    envelope_hop: "10ms"
    # Volume assumed when envelope extraction fails
    fallback_volume: 0.5
    # Monitor polling period
    tick_interval: "10ms"

  # ElevenLabs backend
  elevenlabs:
    # api_key: "your-api-key-here"
    voice: "Rachel (21m00Tcm4TlvDq8ikWAM)"
    model_id: "eleven_multilingual_v2"
    stability: 0.5
    similarity_boost: 0.75
    style: 0.0
    speaker_boost: true
    timeout: "30s"

  # Piper backend
  piper:
    binary: "piper"
    model: "en_US-lessac-medium"
    sample_rate: 22050
    length_scale: 1.0
    timeout: "30s"

  # Mock backend (testing and demos)
  mock:
    sample_rate: 44100
    words_per_minute: 150
    generation_delay: "0ms"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the avatarsync config file",
	Long:    paragraph(fmt.Sprintf("\n%s the avatarsync config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("avatarsync config\navatarsync config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("avatarsync", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
