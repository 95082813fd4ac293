// Package flags defines all command line flags of the slashd node.
package flags

import (
	"github.com/urfave/cli/v2"
)

var (
	// DataDirFlag defines a path on disk where slashd databases are stored.
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the databases",
		Value: "./slashd-data",
	}
	// ClearDB tells the node to remove any previously stored data at startup.
	ClearDB = &cli.BoolFlag{
		Name:  "clear-db",
		Usage: "Clears any previously stored data at the data directory",
	}
	// VerbosityFlag defines the logrus configuration.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info, warn, error, fatal, panic)",
		Value: "info",
	}
	// LogFormat specifies the log output format.
	LogFormat = &cli.StringFlag{
		Name:  "log-format",
		Usage: "Specify log formatting. Supports: text, text-nocolor, fluentd, json",
		Value: "text",
	}
	// LogFileName specifies the log output file name.
	LogFileName = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Specify log file name, relative or absolute",
	}
	// ConfigFileFlag specifies the filepath to load flag values.
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config-file",
		Usage: "The filepath to a yaml file with flag values",
	}
	// RPCHost defines the address on which the HTTP API listens.
	RPCHost = &cli.StringFlag{
		Name:  "rpc-host",
		Usage: "Host on which the RPC server should listen",
		Value: "127.0.0.1",
	}
	// RPCPort defines the port on which the HTTP API listens.
	RPCPort = &cli.StringFlag{
		Name:  "rpc-port",
		Usage: "Port on which the RPC server should listen",
		Value: "4500",
	}
	// MonitoringHostFlag defines the host used by the prometheus service.
	MonitoringHostFlag = &cli.StringFlag{
		Name:  "monitoring-host",
		Usage: "Host used for the prometheus service",
		Value: "127.0.0.1",
	}
	// MonitoringPortFlag defines the port used by the prometheus service.
	MonitoringPortFlag = &cli.StringFlag{
		Name:  "monitoring-port",
		Usage: "Port used for the prometheus service",
		Value: "8081",
	}
	// VerifierEndpointFlag is the URL of the external proof-verification
	// gateway consulted during slash attempts.
	VerifierEndpointFlag = &cli.StringFlag{
		Name:  "verifier-endpoint",
		Usage: "URL of the inclusion proof verification gateway",
		Value: "http://127.0.0.1:3000/verify",
	}
	// ChainIDFlag overrides the chain id bound into the signing domain.
	ChainIDFlag = &cli.Uint64Flag{
		Name:  "chain-id",
		Usage: "Chain id bound into the commitment signing domain",
	}
	// VerifyingContractFlag overrides the contract instance address bound
	// into the signing domain.
	VerifyingContractFlag = &cli.StringFlag{
		Name:  "verifying-contract",
		Usage: "Contract instance address bound into the commitment signing domain",
	}
	// EnableTracingFlag defines a flag to enable tracing.
	EnableTracingFlag = &cli.BoolFlag{
		Name:  "enable-tracing",
		Usage: "Enables request tracing",
	}
	// TracingProcessNameFlag defines a name for the tracing process.
	TracingProcessNameFlag = &cli.StringFlag{
		Name:  "tracing-process-name",
		Usage: "The name to apply to tracing tag process_name",
	}
	// TracingEndpointFlag defines the jaeger collector endpoint.
	TracingEndpointFlag = &cli.StringFlag{
		Name:  "tracing-endpoint",
		Usage: "Tracing endpoint defines where slashd sends spans to",
		Value: "http://127.0.0.1:14268/api/traces",
	}
	// TraceSampleFractionFlag defines the fraction of traces sampled.
	TraceSampleFractionFlag = &cli.Float64Flag{
		Name:  "trace-sample-fraction",
		Usage: "Indicate what fraction of requests are sampled for tracing",
		Value: 0.20,
	}
)
