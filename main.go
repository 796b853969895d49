// Package main provides the voz CLI, the accessibility read-aloud tool of
// the Participa DF portal. It drives the speech coordinator against a local
// synthesizer the same way the portal pages do through the Reader surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/audio"
	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/speech"
	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/speech/engines/espeak"
	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/speech/engines/mock"
	"github.com/guiabbehusen/participa-df-fullstack-sub001/internal/speech/engines/piper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	langTag    string
	voiceName  string
	rate       float64
	pitch      float64
	volume     float64
	timeout    time.Duration

	rootCmd = &cobra.Command{
		Use:   "voz [TEXT|FILE|-]",
		Short: "Read text aloud, with the portal's accessibility voice",
		Long: paragraph(
			fmt.Sprintf("\nRead text aloud through a local speech engine, %s.", keyword("the way the portal does")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.ArbitraryArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return applyConfig()
		},
		RunE: execute,
	}
)

// envOverrides are environment knobs applied on top of the config file,
// mirroring the flags the portal's deploy tooling sets.
type envOverrides struct {
	Language  string `env:"VOZ_LANGUAGE"`
	Engine    string `env:"VOZ_ENGINE"`
	Voice     string `env:"VOZ_VOICE"`
	PiperDir  string `env:"VOZ_PIPER_MODELS"`
	EspeakBin string `env:"VOZ_ESPEAK_BINARY"`
}

// applyConfig resolves the effective settings: config file, then
// environment, then flags (flags are bound to viper and win).
func applyConfig() error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrides, err := env.ParseAs[envOverrides]()
	if err != nil {
		return fmt.Errorf("error parsing environment: %w", err)
	}
	if overrides.Language != "" {
		viper.Set("language", overrides.Language)
	}
	if overrides.Engine != "" {
		viper.Set("engine", overrides.Engine)
	}
	if overrides.Voice != "" {
		viper.Set("voice", overrides.Voice)
	}
	if overrides.PiperDir != "" {
		viper.Set("piper.models_dir", overrides.PiperDir)
	}
	if overrides.EspeakBin != "" {
		viper.Set("espeak.binary", overrides.EspeakBin)
	}

	engineName = viper.GetString("engine")
	langTag = viper.GetString("language")
	if voiceName == "" {
		voiceName = viper.GetString("voice")
	}

	switch engineName {
	case "espeak", "piper", "mock":
	default:
		return fmt.Errorf("unknown engine %q: use espeak, piper or mock", engineName)
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

// buildEngine constructs the configured platform engine. A platform without
// the capability yields an engine whose Available is false; the Reader turns
// that into silent no-ops rather than failures.
func buildEngine() (speech.Engine, error) {
	switch engineName {
	case "espeak":
		return espeak.New(espeak.Config{
			Binary: viper.GetString("espeak.binary"),
		}), nil

	case "piper":
		modelsDir, err := homedir.Expand(viper.GetString("piper.models_dir"))
		if err != nil {
			modelsDir = viper.GetString("piper.models_dir")
		}
		sampleRate := viper.GetInt("piper.sample_rate")
		player, err := audio.NewOtoPlayer(sampleRate)
		if err != nil {
			log.Warn("audio device unavailable", "error", err)
			return piper.New(piper.Config{}, nil), nil
		}
		return piper.New(piper.Config{
			Binary:     viper.GetString("piper.binary"),
			ModelsDir:  modelsDir,
			SampleRate: sampleRate,
		}, player), nil

	case "mock":
		return mock.New(
			mock.WithVoices(
				speech.Voice{ID: "pt-br-1", Name: "Luciana", Language: "pt-BR"},
				speech.Voice{ID: "pt-pt-1", Name: "Joana", Language: "pt-PT"},
				speech.Voice{ID: "en-us-1", Name: "Alloy", Language: "en-US"},
			),
			mock.WithTimings(100*time.Millisecond, time.Second),
		), nil

	default:
		return nil, fmt.Errorf("unknown engine %q", engineName)
	}
}

// newReader builds the public surface the same way the portal boot code
// does.
func newReader(engine speech.Engine) *speech.Reader {
	reader := speech.NewReader(engine, speech.ReaderConfig{
		Language: langTag,
		Timing: speech.Timing{
			PreSpeak: viper.GetDuration("timing.pre_speak"),
			Watchdog: viper.GetDuration("timing.watchdog"),
		},
	})
	if voiceName != "" {
		reader.SetVoiceByName(voiceName)
	}
	return reader
}

// textFromArgs resolves the text to read: stdin pipe, "-", an existing file
// path, or the arguments themselves joined as literal text.
func textFromArgs(args []string) (string, error) {
	if yes, err := stdinIsPipe(); err != nil {
		return "", err
	} else if yes {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read stdin: %w", err)
		}
		return string(b), nil
	}

	if len(args) == 0 {
		return "", errors.New("nothing to read: pass text, a file or pipe stdin")
	}

	if len(args) == 1 {
		if args[0] == "-" {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return "", fmt.Errorf("unable to read stdin: %w", err)
			}
			return string(b), nil
		}
		if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return "", fmt.Errorf("unable to read file: %w", err)
			}
			return string(b), nil
		}
	}

	return strings.Join(args, " "), nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(_ *cobra.Command, args []string) error {
	text, err := textFromArgs(args)
	if err != nil {
		return err
	}

	engine, err := buildEngine()
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	reader := newReader(engine)
	defer reader.Close()

	if !reader.Supported() {
		fmt.Println("Leitura em voz alta indisponível neste sistema.")
		return nil
	}

	done := make(chan error, 1)
	reader.Speak(text, speech.Options{
		Rate:   rate,
		Pitch:  pitch,
		Volume: volume,
		OnStart: func() {
			if v, ok := reader.CurrentVoice(); ok {
				log.Debug("readout started", "voice", v.Name, "language", v.Language)
			}
		},
		OnEnd:   func() { done <- nil },
		OnError: func(err error) { done <- err },
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("readout failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		reader.Cancel()
		return nil
	case <-time.After(timeout):
		reader.Cancel()
		return errors.New("readout timed out")
	}
}

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
	rootCmd.Flags().StringVarP(&engineName, "engine", "e", "", "speech engine (espeak, piper or mock)")
	rootCmd.Flags().StringVar(&langTag, "lang", "", "readout language tag (e.g. pt-BR)")
	rootCmd.Flags().StringVar(&voiceName, "voice", "", "pin a voice by name")
	rootCmd.Flags().Float64Var(&rate, "rate", 1.0, "speaking rate multiplier")
	rootCmd.Flags().Float64Var(&pitch, "pitch", 1.0, "voice pitch multiplier")
	rootCmd.Flags().Float64Var(&volume, "volume", 1.0, "volume multiplier")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "give up after this long")

	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("language", rootCmd.Flags().Lookup("lang"))

	viper.SetDefault("language", speech.DefaultLanguage)
	viper.SetDefault("engine", "espeak")
	viper.SetDefault("debug", false)
	viper.SetDefault("timing.pre_speak", speech.DefaultPreSpeakDelay)
	viper.SetDefault("timing.watchdog", speech.DefaultWatchdogDelay)
	viper.SetDefault("espeak.binary", "")
	viper.SetDefault("piper.binary", "piper")
	viper.SetDefault("piper.models_dir", "~/.local/share/voz/models")
	viper.SetDefault("piper.sample_rate", piper.DefaultSampleRate)

	rootCmd.AddCommand(voicesCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "voz")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "voz")}, dirs...)
	}
	if c := os.Getenv("VOZ_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	viper.SetConfigName("voz")
	viper.SetConfigType("yaml")
	for _, dir := range dirs {
		viper.AddConfigPath(dir)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("could not read configuration", "error", err)
		}
	}

	if viper.ConfigFileUsed() == "" && len(dirs) > 0 {
		viper.SetConfigFile(filepath.Join(dirs[0], "voz.yml"))
	}
}
