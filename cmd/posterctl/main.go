package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/posterforge/posterforge/internal/adapters/nominatim"
	"github.com/posterforge/posterforge/internal/adapters/overpass"
	"github.com/posterforge/posterforge/internal/core/domain"
	"github.com/posterforge/posterforge/internal/core/usecases"
	"github.com/posterforge/posterforge/internal/pkg/config"
	"github.com/posterforge/posterforge/internal/pkg/logging"
	"github.com/posterforge/posterforge/internal/pkg/ratelimit"
	"github.com/posterforge/posterforge/internal/render"
	"github.com/posterforge/posterforge/internal/themes"
)

var rootCmd = &cobra.Command{
	Use:   "posterctl",
	Short: "Generate city map posters from OpenStreetMap data",
	Long: `posterctl runs the poster pipeline locally: geocode a city, fetch its
street network from OpenStreetMap, and render a print-ready PNG poster.`,
	SilenceUsage: true,
}

var (
	flagCity     string
	flagCountry  string
	flagTheme    string
	flagDistance int
	flagOutput   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a poster and write it to a file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load("posterctl")
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logging.Setup("warn", "text")

		svc, cleanup, err := buildService(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		svc.Start(ctx)

		snap, err := svc.Submit(ctx, domain.PosterRequest{
			City:     flagCity,
			Country:  flagCountry,
			Theme:    flagTheme,
			Distance: flagDistance,
		})
		if err != nil {
			return err
		}

		events, unsub, err := svc.Subscribe(snap.JobID)
		if err != nil {
			return err
		}
		defer unsub()

		var final domain.ProgressEvent
		for ev := range events {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", ev.Percent, ev.Message)
			final = ev
		}
		if final.Status != domain.JobCompleted {
			return fmt.Errorf("generation failed: %s", final.Error)
		}

		path, _, err := svc.Download(snap.JobID)
		if err != nil {
			return err
		}
		if err := copyFile(path, flagOutput); err != nil {
			return err
		}
		fmt.Println(flagOutput)
		return nil
	},
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available themes",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load("posterctl")
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logging.Setup("warn", "text")

		loader := themes.NewLoader(cfg.Assets.ThemesDir, logging.Component("themes"))
		list, err := loader.List()
		if err != nil {
			return err
		}
		for _, t := range list {
			if t.Description != "" {
				fmt.Printf("%-20s %s\n", t.Name, t.Description)
			} else {
				fmt.Println(t.Name)
			}
		}
		return nil
	},
}

// buildService wires a single-worker poster service against the live OSM
// APIs for one-shot CLI use.
func buildService(cfg *config.Config) (*usecases.PosterService, func(), error) {
	fonts, err := render.LoadFonts(cfg.Assets.FontsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load fonts: %w", err)
	}
	renderer := render.New(fonts, render.PosterOptions(cfg.Poster.DPI))
	loader := themes.NewLoader(cfg.Assets.ThemesDir, logging.Component("themes"))

	limiter := ratelimit.New(time.Duration(cfg.Upstream.RateLimitDelay * float64(time.Second)))
	geocoder := nominatim.New(time.Duration(cfg.Upstream.NominatimTimeout)*time.Second, logging.Component("nominatim"))
	fetcher := overpass.New(
		&http.Client{Timeout: time.Duration(cfg.Upstream.OverpassTimeout) * time.Second},
		limiter,
		logging.Component("overpass"),
	)

	tmpDir, err := os.MkdirTemp("", "posterctl-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	svcCfg := usecases.ServiceConfig{
		Workers:           1,
		QueueSize:         1,
		OutputDir:         tmpDir,
		MinDistance:       cfg.Poster.MinDistance,
		MaxDistance:       cfg.Poster.MaxDistance,
		DefaultDistance:   cfg.Poster.DefaultDistance,
		DefaultTheme:      cfg.Poster.DefaultTheme,
		GenerationTimeout: cfg.Jobs.GenerationTimeoutDuration(),
		RerenderTimeout:   cfg.Jobs.RerenderTimeoutDuration(),
		JobTTL:            time.Hour,
		JanitorInterval:   time.Hour,
		FeatureCacheTTL:   time.Duration(cfg.Jobs.FeatureCacheTTL) * time.Second,
		FeatureCacheSize:  cfg.Jobs.FeatureCacheSize,
	}
	svc := usecases.NewPosterService(svcCfg, geocoder, fetcher, loader, renderer, nil, nil, logging.Component("posters"))
	return svc, cleanup, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func init() {
	generateCmd.Flags().StringVar(&flagCity, "city", "", "city name (required)")
	generateCmd.Flags().StringVar(&flagCountry, "country", "", "country name (required)")
	generateCmd.Flags().StringVar(&flagTheme, "theme", "", "theme name (defaults to the configured theme)")
	generateCmd.Flags().IntVar(&flagDistance, "distance", 0, "map radius in meters (defaults to the configured distance)")
	generateCmd.Flags().StringVar(&flagOutput, "output", "poster.png", "output PNG path")
	_ = generateCmd.MarkFlagRequired("city")
	_ = generateCmd.MarkFlagRequired("country")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(themesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
