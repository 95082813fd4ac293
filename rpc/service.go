// Package rpc defines the inbound JSON-over-HTTP surface of the slashd node.
// State-mutating calls carry the acting address explicitly; the deployment is
// expected to place this API behind whatever authenticates callers, since the
// protocol treats caller identity as a trusted ambient input. Slashing itself
// is permissionless by design, so its handler requires no authorization
// beyond the signed commitment and verified evidence it submits.
package rpc

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/inclusion-protocol/slashd/bond"
	"github.com/inclusion-protocol/slashd/slasher"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "rpc")

// Config options for the slashd RPC server.
type Config struct {
	Host   string
	Port   string
	Ledger *bond.Ledger
	Engine *slasher.Engine
}

// Service defining an HTTP server for the slashd node.
type Service struct {
	cfg        *Config
	server     *http.Server
	failStatus error
}

// NewService instantiates a new RPC service instance that will be registered
// into a running slashd node.
func NewService(ctx context.Context, cfg *Config) *Service {
	s := &Service{cfg: cfg}

	r := mux.NewRouter()
	r.HandleFunc("/v1/bond/deposit", s.depositHandler).Methods(http.MethodPost)
	r.HandleFunc("/v1/bond/withdrawals/initiate", s.initiateWithdrawalHandler).Methods(http.MethodPost)
	r.HandleFunc("/v1/bond/withdrawals/complete", s.completeWithdrawalHandler).Methods(http.MethodPost)
	r.HandleFunc("/v1/bond/{proposer}", s.bondHandler).Methods(http.MethodGet)
	r.HandleFunc("/v1/slash", s.slashHandler).Methods(http.MethodPost)
	r.HandleFunc("/v1/commitments/{hash}/slashed", s.slashedHandler).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: r,
	}
	return s
}

// Start the HTTP server and listen for requests.
func (s *Service) Start() {
	log.WithField("address", s.server.Addr).Info("Starting service")
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Errorf("Could not listen on %s", s.server.Addr)
			s.failStatus = err
		}
	}()
}

// Stop the service gracefully.
func (s *Service) Stop() error {
	log.Info("Stopping service")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Status returns an error if the service failed to bind or serve.
func (s *Service) Status() error {
	if s.failStatus != nil {
		return s.failStatus
	}
	return nil
}
