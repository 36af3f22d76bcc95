package caster

import (
	"fmt"
	"os"
	"strings"

	"github.com/HsienYu/BreakingNewsEffects/pkg/config"
	"github.com/HsienYu/BreakingNewsEffects/pkg/config/monitoring"
	"github.com/spf13/pflag"
)

type Config struct {
	Caster struct {
		Debug      bool
		Source     Source
		Sink       Sink
		Status     Status
		Monitoring monitoring.Config
	}
}

// Source configures the built-in test pattern generator which drives the
// bus when no external renderer is attached.
type Source struct {
	Enabled bool `fig:"enabled" default:"true"`
	Width   int  `fig:"width" default:"1280"`
	Height  int  `fig:"height" default:"720"`
	Fps     int  `fig:"fps" default:"30"`
}

// Sink is the configuration surface of the distribution subsystem.
type Sink struct {
	SenderName        string `fig:"sender_name" default:"Breaking News Effects"`
	Width             int    `fig:"width" default:"1920"`
	Height            int    `fig:"height" default:"1080"`
	TargetFps         int    `fig:"target_fps" default:"30"`
	PixelFormat       string `fig:"pixel_format" default:"bgra"`
	Orientation       string `fig:"orientation" default:"flip_both"`
	FallbackTransport string `fig:"fallback_transport" default:"http"`
	FallbackHost      string `fig:"fallback_host" default:"127.0.0.1"`
	FallbackPort      int    `fig:"fallback_port" default:"8080"`
	JpegQuality       int    `fig:"jpeg_quality" default:"85"`

	// HTTPS for the HTTP fallback. With no cert/key pair the
	// certificate is requested automatically for the domain.
	Https       bool   `fig:"https"`
	HttpsCert   string `fig:"https_cert"`
	HttpsKey    string `fig:"https_key"`
	HttpsDomain string `fig:"https_domain"`
}

type Status struct {
	Enabled bool `fig:"enabled" default:"true"`
	Port    int  `fig:"port" default:"9090"`
}

func (s Sink) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("bad resolution %vx%v", s.Width, s.Height)
	}
	if s.TargetFps <= 0 {
		return fmt.Errorf("bad target fps %v", s.TargetFps)
	}
	if s.JpegQuality < 1 || s.JpegQuality > 100 {
		return fmt.Errorf("jpeg quality %v out of range 1..100", s.JpegQuality)
	}
	if s.FallbackPort < 1 || s.FallbackPort > 65535 {
		return fmt.Errorf("bad fallback port %v", s.FallbackPort)
	}
	switch s.FallbackTransport {
	case "http", "udp":
	default:
		return fmt.Errorf("unknown fallback transport %q", s.FallbackTransport)
	}
	return nil
}

// allows custom config path
var configPath string

func NewConfig() Config {
	if configPath == "" {
		// the load happens before pflag runs, pre-read the path flag
		// so a custom config file is honored from the start
		configPath = scanConfFlag(os.Args[1:])
	}
	var conf Config
	if err := config.LoadConfig(&conf, configPath); err != nil {
		panic(fmt.Errorf("config load has failed, %w", err))
	}
	return conf
}

func scanConfFlag(args []string) string {
	for i, a := range args {
		switch {
		case a == "-c" || a == "--conf":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "--conf="):
			return strings.TrimPrefix(a, "--conf=")
		case strings.HasPrefix(a, "-c="):
			return strings.TrimPrefix(a, "-c=")
		}
	}
	return ""
}

// ConfigPath returns the custom config file path set by the --conf flag.
func ConfigPath() string { return configPath }

func (c *Config) ParseFlags() {
	c.WithFlags()
	pflag.StringVarP(&configPath, "conf", "c", configPath, "set custom configuration file path")
	pflag.Parse()
}

func (c *Config) WithFlags() {
	pflag.IntVar(&c.Caster.Monitoring.Port, "monitoring.port", c.Caster.Monitoring.Port, "monitoring server port")
	pflag.StringVar(&c.Caster.Sink.SenderName, "name", c.Caster.Sink.SenderName, "sender name")
	pflag.StringVar(&c.Caster.Sink.FallbackTransport, "transport", c.Caster.Sink.FallbackTransport, "fallback transport (http|udp)")
	pflag.IntVar(&c.Caster.Sink.FallbackPort, "port", c.Caster.Sink.FallbackPort, "fallback transport port")
	pflag.BoolVar(&c.Caster.Debug, "debug", c.Caster.Debug, "debug logging")
}
