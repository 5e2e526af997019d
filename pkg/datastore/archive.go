package datastore

import (
	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/util"
)

var logger = util.Logger("datastore")

// Archiver saves the snapshot of every request that reaches a terminal status.
func Archiver(store Store) proofrequest.TransitionHandler {
	return func(tr proofrequest.Transition) {
		if !tr.To.Terminal() {
			return
		}

		if err := store.SaveProofRequest(tr.Snapshot); err != nil {
			logger.WithError(err).WithField("id", tr.Snapshot.ID).Error("unable to archive proof request")
		}
	}
}
