/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package framework

import (
	"github.com/pkg/errors"

	"github.com/scoir/proofbridge/pkg/datastore"
	"github.com/scoir/proofbridge/pkg/datastore/mongodb"
)

// DatastoreConfig selects the archive backend. An empty Database means no archive.
type DatastoreConfig struct {
	Database string          `mapstructure:"database"`
	Mongo    *mongodb.Config `mapstructure:"mongo"`
}

// StorageProvider opens the configured backend. It returns a nil provider and no error
// when no database is configured.
func (r *DatastoreConfig) StorageProvider() (datastore.Provider, error) {
	switch r.Database {
	case "":
		return nil, nil
	case "mongo":
		if r.Mongo == nil || r.Mongo.URL == "" {
			return nil, errors.New("datastore.mongo.url is required for the mongo datastore")
		}
		dp, err := mongodb.NewProvider(r.Mongo)
		if err != nil {
			return nil, errors.Wrap(err, "unable to create mongo datastore")
		}
		return dp, nil
	}

	return nil, errors.Errorf("unsupported datastore %q", r.Database)
}
