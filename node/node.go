// Package node defines the slashd node: it assembles the database, the bond
// ledger, the slashing engine, and the outward-facing services, and manages
// their lifecycle through a service registry.
package node

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/inclusion-protocol/slashd/async"
	"github.com/inclusion-protocol/slashd/bond"
	"github.com/inclusion-protocol/slashd/cmd/slashd/flags"
	"github.com/inclusion-protocol/slashd/config/params"
	"github.com/inclusion-protocol/slashd/db"
	"github.com/inclusion-protocol/slashd/db/kv"
	"github.com/inclusion-protocol/slashd/monitoring/prometheus"
	"github.com/inclusion-protocol/slashd/monitoring/tracing"
	"github.com/inclusion-protocol/slashd/rpc"
	"github.com/inclusion-protocol/slashd/runtime"
	"github.com/inclusion-protocol/slashd/slasher"
	"github.com/inclusion-protocol/slashd/verifier"
	"github.com/holiman/uint256"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "node")

// Node handles the lifecycle of the entire slashd system. It registers
// services to a service registry and starts and stops them together.
type Node struct {
	cliCtx   *cli.Context
	ctx      context.Context
	cancel   context.CancelFunc
	lock     sync.RWMutex
	services *runtime.ServiceRegistry
	stop     chan struct{} // Channel to wait for termination notifications.
	db       db.Database
	ledger   *bond.Ledger
	engine   *slasher.Engine
}

// New creates a new node instance, sets up configuration options, and
// registers every required service.
func New(cliCtx *cli.Context) (*Node, error) {
	if err := tracing.Setup(
		"slashd",
		cliCtx.String(flags.TracingProcessNameFlag.Name),
		cliCtx.String(flags.TracingEndpointFlag.Name),
		cliCtx.Float64(flags.TraceSampleFractionFlag.Name),
		cliCtx.Bool(flags.EnableTracingFlag.Name),
	); err != nil {
		return nil, err
	}
	applyConfigOverrides(cliCtx)

	ctx, cancel := context.WithCancel(cliCtx.Context)
	n := &Node{
		cliCtx:   cliCtx,
		ctx:      ctx,
		cancel:   cancel,
		services: runtime.NewServiceRegistry(),
		stop:     make(chan struct{}),
	}

	if err := n.startDB(cliCtx); err != nil {
		cancel()
		return nil, err
	}

	clk := clock.NewDefaultClock()
	n.ledger = bond.NewLedger(n.db, clk)
	proofVerifier := verifier.NewRemoteVerifier(cliCtx.String(flags.VerifierEndpointFlag.Name))
	n.engine = slasher.NewEngine(n.ledger, n.db, proofVerifier, clk)

	if err := n.registerRPCService(cliCtx); err != nil {
		cancel()
		return nil, err
	}
	if err := n.registerPrometheusService(cliCtx); err != nil {
		cancel()
		return nil, err
	}
	if err := n.registerEventLogger(); err != nil {
		cancel()
		return nil, err
	}
	return n, nil
}

func applyConfigOverrides(cliCtx *cli.Context) {
	cfg := params.ProtoConfig().Copy()
	overridden := false
	if cliCtx.IsSet(flags.ChainIDFlag.Name) {
		cfg.ChainID = uint256.NewInt(cliCtx.Uint64(flags.ChainIDFlag.Name))
		overridden = true
	}
	if cliCtx.IsSet(flags.VerifyingContractFlag.Name) {
		cfg.VerifyingContract = common.HexToAddress(cliCtx.String(flags.VerifyingContractFlag.Name))
		overridden = true
	}
	if overridden {
		log.WithFields(logrus.Fields{
			"chainId":           cfg.ChainID.String(),
			"verifyingContract": cfg.VerifyingContract.Hex(),
		}).Info("Using custom signing domain parameters")
		params.OverrideProtocolConfig(cfg)
	}
}

func (n *Node) startDB(cliCtx *cli.Context) error {
	dataDir := cliCtx.String(flags.DataDirFlag.Name)
	d, err := db.NewDB(dataDir, &kv.Config{})
	if err != nil {
		return err
	}
	if cliCtx.Bool(flags.ClearDB.Name) {
		if err := d.ClearDB(); err != nil {
			return err
		}
		d, err = db.NewDB(dataDir, &kv.Config{})
		if err != nil {
			return err
		}
	}
	log.WithField("database-path", dataDir).Info("Checking db")
	n.db = d
	return nil
}

func (n *Node) registerRPCService(cliCtx *cli.Context) error {
	service := rpc.NewService(n.ctx, &rpc.Config{
		Host:   cliCtx.String(flags.RPCHost.Name),
		Port:   cliCtx.String(flags.RPCPort.Name),
		Ledger: n.ledger,
		Engine: n.engine,
	})
	return n.services.RegisterService(service)
}

func (n *Node) registerPrometheusService(cliCtx *cli.Context) error {
	service := prometheus.NewService(
		cliCtx.String(flags.MonitoringHostFlag.Name)+":"+cliCtx.String(flags.MonitoringPortFlag.Name),
		n.services,
	)
	return n.services.RegisterService(service)
}

func (n *Node) registerEventLogger() error {
	return n.services.RegisterService(newEventLogger(n.ctx, n.ledger, n.engine))
}

// Start the slashd node and kick off every registered service.
func (n *Node) Start() {
	n.lock.Lock()
	n.services.StartAll()
	stop := n.stop
	n.lock.Unlock()

	async.RunEvery(n.ctx, 5*time.Minute, n.reportServiceStatuses)

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.Info("Already shutting down, interrupt more to panic.", "times", i-1)
			}
		}
		panic("Panic closing the slashd node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// reportServiceStatuses logs any registered service that is reporting
// unhealthy, so a degraded node is visible without scraping metrics.
func (n *Node) reportServiceStatuses() {
	for svc, err := range n.services.Statuses() {
		if err != nil {
			log.WithField("service", svc.String()).WithError(err).Warn("Service is unhealthy")
		}
	}
}

// Close handles graceful shutdown of the system.
func (n *Node) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	log.Info("Stopping slashd node")
	n.services.StopAll()
	if err := n.db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}
	n.cancel()
	close(n.stop)
}
