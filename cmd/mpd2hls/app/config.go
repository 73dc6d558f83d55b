package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/spf13/pflag"

	"github.com/streambridge/mpd2hls/pkg/logging"
)

type ServerConfig struct {
	LogFormat string `json:"logformat"`
	LogLevel  string `json:"loglevel"`
	Port      int    `json:"port"`
	// TimeoutS is the total timeout for proxy requests (seconds).
	TimeoutS int `json:"timeout"`
	// OriginTimeoutS is the timeout for a single origin fetch (seconds).
	OriginTimeoutS int `json:"origintimeout"`
	// URLSecret seals the parameter sets of encrypted proxy URLs.
	URLSecret string `json:"urlsecret"`
	// Prefetch enables background cache warming on manifest requests.
	Prefetch bool `json:"prefetch"`
	// PrefetchSegments is the number of leading media segments warmed per profile.
	PrefetchSegments int `json:"prefetchsegments"`
	// PrefetchTTLS is how long warmed segments stay cached (seconds).
	PrefetchTTLS int `json:"prefetchttl"`
	// Domains enables automatic HTTPS via Let's Encrypt for these comma-separated domains.
	Domains  string `json:"domains"`
	CertPath string `json:"certpath"`
	KeyPath  string `json:"keypath"`
}

var DefaultConfig = ServerConfig{
	LogFormat:        "consolepretty",
	LogLevel:         "info",
	Port:             8888,
	TimeoutS:         60,
	OriginTimeoutS:   20,
	URLSecret:        "mpd2hls-dev-secret",
	Prefetch:         true,
	PrefetchSegments: 3,
	PrefetchTTLS:     60,
}

// LoadConfig loads defaults, .env file, config file, command line, and
// finally applies environment variables.
func LoadConfig(args []string) (*ServerConfig, error) {
	// A .env file is optional.
	_ = godotenv.Load()

	k := koanf.New(".")
	defaults := DefaultConfig
	k.Load(structs.Provider(defaults, "json"), nil)

	f := pflag.NewFlagSet("mpd2hls", pflag.ContinueOnError)
	f.Usage = func() {
		parts := strings.Split(args[0], "/")
		name := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, "Run as %s [options]:\n", name)
		f.PrintDefaults()
	}
	cfgFile := f.String("cfg", "", "path to a JSON config file")
	f.Int("port", k.Int("port"), "HTTP port")
	lf := strings.Join(logging.LogFormats, ", ")
	f.String("logformat", k.String("logformat"), fmt.Sprintf("log format [consolepretty, %s]", lf))
	ll := strings.Join(logging.LogLevels, ", ")
	f.String("loglevel", k.String("loglevel"), fmt.Sprintf("log level [%s]", ll))
	f.Int("timeout", k.Int("timeout"), "timeout for all requests (seconds)")
	f.Int("origintimeout", k.Int("origintimeout"), "timeout for a single origin fetch (seconds)")
	f.String("urlsecret", k.String("urlsecret"), "secret for encrypted proxy URLs")
	f.Bool("prefetch", k.Bool("prefetch"), "warm the segment cache in the background on manifest requests")
	f.Int("prefetchsegments", k.Int("prefetchsegments"), "number of leading segments warmed per profile")
	f.Int("prefetchttl", k.Int("prefetchttl"), "lifetime of warmed segments (seconds)")
	f.String("domains", k.String("domains"), "automatic HTTPS for these comma-separated domains")
	f.String("certpath", k.String("certpath"), "path to TLS certificate")
	f.String("keypath", k.String("keypath"), "path to TLS private key")
	if err := f.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("command line parse: %w", err)
	}

	// Load the config file provided on the command line.
	if *cfgFile != "" {
		cf := file.Provider(*cfgFile)
		if err := k.Load(cf, json.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Possibly override config file with command line parameters
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("parsing cli: %v", err)
	}

	// Overload with environment variables
	k.Load(env.Provider("MPD2HLS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "MPD2HLS_")), "_", ".", -1)
	}), nil)

	// The json tags equal the flag names, so unmarshal by json tag. The
	// default koanf tag would fall back to field-name matching and miss
	// TimeoutS, OriginTimeoutS, and PrefetchTTLS.
	var cfg ServerConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}

	return &cfg, nil
}
