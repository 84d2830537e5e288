// Lucidia runtime.
//
// The executable shows a list of images through a wave-distortion shader
// that drifts on its own, and cross-fades between images on request:
//   - lucidia [images...]: open the viewer (files or directories)
//   - lucidia list: print the image list the viewer would use
//   - lucidia about: open the About window
//
// Rendering pipeline:
//  1. Resolve settings (flags, LUCIDIA_* env, lucidia.yaml, defaults).
//  2. Open a GLFW window with an OpenGL 3.3 core context.
//  3. Compile the embedded shaders and start decoding images in the background.
//  4. Draw one distorted quad per display refresh, fading between textures.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"lucidia/internal/config"
)

const (
	appName = "Lucidia"
	version = "0.4.0"
)

func init() {
	runtime.LockOSThread() // OpenGL and GLFW calls must stay on the main thread
}

func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "lucidia",
	})
}

func newRootCmd(v *viper.Viper, logger *log.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "lucidia [images or directories...]",
		Short:         "Psychedelic image viewer",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, v, logger, args)
			if err != nil {
				return err
			}
			return runViewer(s, logger)
		},
	}

	f := root.PersistentFlags()
	f.String("config", "", "config file (default ./lucidia.yaml or $XDG_CONFIG_HOME/lucidia/lucidia.yaml)")
	f.String("profile", "gallery", "presentation profile: single or gallery")
	f.Float64("fade-rate", 0.01, "fade progress added per frame")
	f.BoolP("fullscreen", "f", false, "start fullscreen on the primary monitor")
	f.Int("width", config.DefaultWidth, "window width")
	f.Int("height", config.DefaultHeight, "window height")
	f.Bool("vsync", true, "sync buffer swaps to the display")
	f.Bool("debug", false, "verbose logging and on-screen stats")
	f.Duration("idle-timeout", 0, "hide the cursor after this long without input (default 3s)")
	f.Int("workers", config.DefaultWorkers, "images decoded in parallel")
	f.Int64("seed", 0, "random seed for the rotation drift (0 = time based)")
	f.Bool("preload", true, "decode every image at start-up")
	f.String("hud-color", config.DefaultHUDColor, "CSS colour of the on-screen stats")

	if err := bindFlags(v, f, flagKeys); err != nil {
		panic(err)
	}

	root.AddCommand(newListCmd(v, logger), newAboutCmd(v, logger))
	return root
}

// flagKeys maps config keys to the flags that override them.
var flagKeys = map[string]string{
	"profile":        "profile",
	"fade_rate":      "fade-rate",
	"fullscreen":     "fullscreen",
	"width":          "width",
	"height":         "height",
	"vsync":          "vsync",
	"debug":          "debug",
	"idle_timeout":   "idle-timeout",
	"decode_workers": "workers",
	"seed":           "seed",
	"preload":        "preload",
	"hud_color":      "hud-color",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("binding %s: no flag --%s", key, name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

func newListCmd(v *viper.Viper, logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list [images or directories...]",
		Short: "print the resolved image list",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, v, logger, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, p := range s.Images {
				fmt.Fprintf(out, "%d\t%s\n", i+1, p)
			}
			return nil
		},
	}
}

func newAboutCmd(v *viper.Viper, logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "about [images or directories...]",
		Short: "show the About window",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, v, logger, args)
			if err != nil {
				// The window is still useful without images.
				logger.Warn("no images resolved", "err", err)
				s = nil
			}
			runAbout(v, s, logger)
			return nil
		},
	}
}

// loadSettings reads the config file, lets positional arguments replace the
// configured image list and resolves the final settings.
func loadSettings(cmd *cobra.Command, v *viper.Viper, logger *log.Logger, args []string) (*config.Settings, error) {
	if file, _ := cmd.Flags().GetString("config"); file != "" {
		v.SetConfigFile(file)
	}
	if err := config.Read(v); err != nil {
		return nil, err
	}
	if v.GetBool("debug") {
		logger.SetLevel(log.DebugLevel)
	}
	if len(args) > 0 {
		v.Set("images", args)
	}
	s, err := config.Load(v, logger)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return s, nil
}

func main() {
	logger := newLogger()
	if err := newRootCmd(config.New(), logger).Execute(); err != nil {
		logger.Error("lucidia failed", "err", err)
		os.Exit(1)
	}
}
