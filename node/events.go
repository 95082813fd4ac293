package node

import (
	"context"

	"github.com/inclusion-protocol/slashd/bond"
	"github.com/inclusion-protocol/slashd/slasher"
	"github.com/sirupsen/logrus"
)

var auditLog = logrus.WithField("prefix", "audit")

// eventLogger subscribes to the ledger and engine feeds and writes every
// emitted fact to the audit log stream, where external tooling (payout
// dispatchers, dashboards) picks them up.
type eventLogger struct {
	ctx    context.Context
	cancel context.CancelFunc
	ledger *bond.Ledger
	engine *slasher.Engine
}

func newEventLogger(ctx context.Context, ledger *bond.Ledger, engine *slasher.Engine) *eventLogger {
	ctx, cancel := context.WithCancel(ctx)
	return &eventLogger{ctx: ctx, cancel: cancel, ledger: ledger, engine: engine}
}

// Start consuming events.
func (e *eventLogger) Start() {
	ledgerCh := make(chan *bond.Event, 16)
	slashCh := make(chan *slasher.SlashedEvent, 16)
	ledgerSub := e.ledger.SubscribeEvents(ledgerCh)
	slashSub := e.engine.SubscribeSlashEvents(slashCh)
	go func() {
		defer ledgerSub.Unsubscribe()
		defer slashSub.Unsubscribe()
		for {
			select {
			case ev := <-ledgerCh:
				e.logLedgerEvent(ev)
			case ev := <-slashCh:
				auditLog.WithFields(logrus.Fields{
					"proposer":       ev.Proposer.Hex(),
					"commitmentHash": ev.CommitmentHash.Hex(),
					"amount":         ev.Amount.String(),
					"caller":         ev.Caller.Hex(),
				}).Info("slashed")
			case <-e.ctx.Done():
				return
			}
		}
	}()
}

func (e *eventLogger) logLedgerEvent(ev *bond.Event) {
	switch data := ev.Data.(type) {
	case *bond.DepositReceivedData:
		auditLog.WithFields(logrus.Fields{
			"proposer": data.Proposer.Hex(),
			"amount":   data.Amount.String(),
			"newBond":  data.NewBond.String(),
		}).Info("deposit")
	case *bond.WithdrawalInitiatedData:
		auditLog.WithFields(logrus.Fields{
			"proposer":   data.Proposer.Hex(),
			"amount":     data.Amount.String(),
			"unlockTime": data.UnlockTime.String(),
		}).Info("withdrawal_initiated")
	case *bond.WithdrawalCompletedData:
		auditLog.WithFields(logrus.Fields{
			"proposer":      data.Proposer.Hex(),
			"amount":        data.Amount.String(),
			"remainingBond": data.RemainingBond.String(),
		}).Info("withdrawal_completed")
	}
}

// Stop consuming events.
func (e *eventLogger) Stop() error {
	e.cancel()
	return nil
}

// Status always reports healthy; the logger has no failure modes that should
// degrade node health.
func (e *eventLogger) Status() error {
	return nil
}
