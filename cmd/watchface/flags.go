package main

import "github.com/urfave/cli/v3"

var (
	modelName  string
	modelsFile string
	schemaPath string
	configFile string
	logLevel   string
	logFormat  string
	debug      bool
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "device model name from the catalog",
			Destination: &modelName,
		},
		&cli.StringFlag{
			Name:        "models",
			Usage:       "YAML or JSON model catalog (default: built-in)",
			Sources:     cli.EnvVars("WATCHFACE_MODELS"),
			Destination: &modelsFile,
		},
		&cli.StringFlag{
			Name:        "schema",
			Aliases:     []string{"s"},
			Usage:       "JSON parameter schema (default: built-in)",
			Sources:     cli.EnvVars("WATCHFACE_SCHEMA"),
			Destination: &schemaPath,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file (default: $XDG_CONFIG_HOME/watchface/config.yaml)",
			Sources:     cli.EnvVars("WATCHFACE_CONFIG"),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
