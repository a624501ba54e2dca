package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dashfetch/dashfetch/internal/assembler"
	"github.com/dashfetch/dashfetch/internal/config"
	"github.com/dashfetch/dashfetch/internal/httpclient"
	"github.com/dashfetch/dashfetch/internal/observability"
	"github.com/dashfetch/dashfetch/internal/version"
	"github.com/dashfetch/dashfetch/pkg/progress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <manifest-url> <output-path>",
	Short: "Download a DASH presentation and remux it to a single file",
	Long: `fetch retrieves the MPD manifest at manifest-url, resolves its audio and
video addressing, downloads every segment, and writes the remuxed result to
output-path.`,
	Args: cobra.ExactArgs(2),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().String("quality", string(config.QualityHighest), "representation quality preference (lowest, highest)")
	fetchCmd.Flags().String("language", "", "preferred audio language (BCP-47, e.g. en)")
	fetchCmd.Flags().Bool("audio", true, "fetch the audio stream")
	fetchCmd.Flags().Bool("video", true, "fetch the video stream")
	fetchCmd.Flags().Bool("keep-audio", false, "retain the demuxed audio temp file instead of deleting it")
	fetchCmd.Flags().Bool("keep-video", false, "retain the demuxed video temp file instead of deleting it")
	fetchCmd.Flags().Bool("content-type-checks", true, "reject segment responses with an unexpected content-type")
	fetchCmd.Flags().Int("sleep-between-requests", 0, "seconds to sleep between segment requests")
	fetchCmd.Flags().Int("max-http-errors", 10, "abort the download once more than this many segment fetches have failed permanently")
	fetchCmd.Flags().IntP("verbosity", "v", 1, "log verbosity 0-3 (0=warn, 1=info, 2=debug, 3=debug+source); ignored if --log-level is set explicitly")
	fetchCmd.Flags().String("muxer-binary", "", "path to the muxer binary (default: auto-detect on PATH)")
	fetchCmd.Flags().String("muxer-name", "ffmpeg", "muxer binary name to search for; it is always invoked with ffmpeg-style arguments")

	mustBindPFlag("fetch.quality_preference", fetchCmd.Flags().Lookup("quality"))
	mustBindPFlag("fetch.language_preference", fetchCmd.Flags().Lookup("language"))
	mustBindPFlag("fetch.fetch_audio", fetchCmd.Flags().Lookup("audio"))
	mustBindPFlag("fetch.fetch_video", fetchCmd.Flags().Lookup("video"))
	mustBindPFlag("fetch.keep_audio", fetchCmd.Flags().Lookup("keep-audio"))
	mustBindPFlag("fetch.keep_video", fetchCmd.Flags().Lookup("keep-video"))
	mustBindPFlag("fetch.content_type_checks", fetchCmd.Flags().Lookup("content-type-checks"))
	mustBindPFlag("fetch.sleep_between_requests", fetchCmd.Flags().Lookup("sleep-between-requests"))
	mustBindPFlag("fetch.max_http_errors", fetchCmd.Flags().Lookup("max-http-errors"))
	mustBindPFlag("fetch.verbosity", fetchCmd.Flags().Lookup("verbosity"))
	mustBindPFlag("muxer.binary_path", fetchCmd.Flags().Lookup("muxer-binary"))
	mustBindPFlag("muxer.name", fetchCmd.Flags().Lookup("muxer-name"))
}

func runFetch(cmd *cobra.Command, args []string) error {
	manifestURL, outputPath := args[0], args[1]
	logger := slog.Default()

	maxResponseSize, err := config.ParseByteSize(viper.GetString("fetch.max_response_size"))
	if err != nil {
		return fmt.Errorf("parsing fetch.max_response_size: %w", err)
	}

	cfg := &config.Config{
		Fetch: config.FetchConfig{
			QualityPreference:    config.QualityPreference(viper.GetString("fetch.quality_preference")),
			LanguagePreference:   viper.GetString("fetch.language_preference"),
			FetchAudio:           viper.GetBool("fetch.fetch_audio"),
			FetchVideo:           viper.GetBool("fetch.fetch_video"),
			KeepAudio:            viper.GetBool("fetch.keep_audio"),
			KeepVideo:            viper.GetBool("fetch.keep_video"),
			ContentTypeChecks:    viper.GetBool("fetch.content_type_checks"),
			SleepBetweenRequests: viper.GetInt("fetch.sleep_between_requests"),
			MaxHTTPErrors:        viper.GetInt("fetch.max_http_errors"),
			MaxResponseSize:      maxResponseSize,
			Verbosity:            viper.GetInt("fetch.verbosity"),
		},
		Muxer: config.MuxerConfig{
			BinaryPath: viper.GetString("muxer.binary_path"),
			Name:       viper.GetString("muxer.name"),
		},
		Logging: config.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
		HTTP: config.HTTPConfig{
			ManifestTimeout:   config.Duration(viper.GetDuration("http.manifest_timeout")),
			SegmentTimeout:    config.Duration(viper.GetDuration("http.segment_timeout")),
			RetryAttempts:     viper.GetInt("http.retry_attempts"),
			RetryDelay:        config.Duration(viper.GetDuration("http.retry_delay")),
			RetryMaxDelay:     config.Duration(viper.GetDuration("http.retry_max_delay")),
			BackoffMultiplier: viper.GetFloat64("http.backoff_multiplier"),
			CircuitThreshold:  viper.GetInt("http.circuit_threshold"),
			CircuitTimeout:    config.Duration(viper.GetDuration("http.circuit_timeout")),
			UserAgent:         version.UserAgent(),
		},
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	if !cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, cfg.Logging.AddSource = observability.LevelFromVerbosity(cfg.Fetch.Verbosity)
		logger = observability.NewLogger(cfg.Logging)
		observability.SetDefault(logger)
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Logger = logger
	httpCfg.UserAgent = cfg.HTTP.UserAgent
	httpCfg.Timeout = cfg.HTTP.SegmentTimeout.Duration()
	httpCfg.RetryAttempts = cfg.HTTP.RetryAttempts
	httpCfg.RetryDelay = cfg.HTTP.RetryDelay.Duration()
	httpCfg.RetryMaxDelay = cfg.HTTP.RetryMaxDelay.Duration()
	httpCfg.BackoffMultiplier = cfg.HTTP.BackoffMultiplier
	httpCfg.CircuitThreshold = cfg.HTTP.CircuitThreshold
	httpCfg.CircuitTimeout = cfg.HTTP.CircuitTimeout.Duration()
	client := httpclient.New(httpCfg)

	observer := progress.Multi{progress.NewLogging(logger)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal, aborting download", slog.String("signal", sig.String()))
		cancel()
	}()

	a := assembler.New(client, cfg, observer)

	logger.Info("starting dashfetch download",
		slog.String("manifest_url", manifestURL),
		slog.String("output_path", outputPath),
		slog.String("version", version.Version),
	)

	if err := a.Download(ctx, manifestURL, outputPath); err != nil {
		return fmt.Errorf("downloading %s: %w", manifestURL, err)
	}

	logger.Info("download complete", slog.String("output_path", outputPath))
	return nil
}
