// Command ocrkit runs the OCR pipeline from the command line: full-page
// recognition, detection-only runs and model zoo inspection.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wudi/ocrkit/observability"

	// Register the inference runtimes.
	_ "github.com/wudi/ocrkit/backend/onnxrt"
	_ "github.com/wudi/ocrkit/backend/tflitert"
)

type settings struct {
	Debug       bool
	DetArch     string
	RecoArch    string
	Format      string
	Script      string
	Output      string
	DPI         float64
	BatchSize   int
	Concurrency int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ocrkit: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &settings{}

	root := &cobra.Command{
		Use:           "ocrkit",
		Short:         "Two-stage OCR: text detection and recognition",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&cfg.DetArch, "det-arch", "", "Detection architecture (default db_resnet50)")
	pf.StringVar(&cfg.RecoArch, "reco-arch", "", "Recognition architecture (default crnn_vgg16_bn)")
	pf.Float64Var(&cfg.DPI, "dpi", 144, "Rasterization DPI for PDF inputs")
	pf.IntVar(&cfg.BatchSize, "batch-size", 32, "Inference batch size")
	pf.IntVar(&cfg.Concurrency, "concurrency", 2, "Pages processed in parallel")

	root.AddCommand(newRunCommand(cfg))
	root.AddCommand(newDetectCommand(cfg))
	root.AddCommand(newModelsCommand())
	return root
}

// loadConfig layers viper config (ocrkit.yaml, OCRKIT_* env) under the flags:
// explicitly set flags win, then config values, then flag defaults.
func loadConfig(cmd *cobra.Command, cfg *settings) error {
	v := viper.New()
	v.SetConfigName("ocrkit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.config/ocrkit")
	}
	v.SetEnvPrefix("OCRKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	flags := cmd.Flags()
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return fmt.Errorf("bind inherited flags: %w", err)
	}
	cfg.Debug = v.GetBool("debug")
	cfg.DetArch = v.GetString("det-arch")
	cfg.RecoArch = v.GetString("reco-arch")
	cfg.DPI = v.GetFloat64("dpi")
	cfg.BatchSize = v.GetInt("batch-size")
	cfg.Concurrency = v.GetInt("concurrency")
	if flags.Lookup("format") != nil {
		cfg.Format = v.GetString("format")
	}
	if flags.Lookup("script") != nil {
		cfg.Script = v.GetString("script")
	}
	if flags.Lookup("output") != nil {
		cfg.Output = v.GetString("output")
	}
	return nil
}

func (s *settings) logger() observability.Logger {
	return observability.NewStdLogger(os.Stderr, s.Debug)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
