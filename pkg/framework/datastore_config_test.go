/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/
package framework

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoir/proofbridge/pkg/datastore/mongodb"
)

func TestDatastoreConfig_StorageProvider(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		dsc := &DatastoreConfig{}

		dp, err := dsc.StorageProvider()
		require.NoError(t, err)
		require.Nil(t, dp)
	})

	t.Run("mongo without url", func(t *testing.T) {
		dsc := &DatastoreConfig{Database: "mongo", Mongo: &mongodb.Config{Database: "proofbridge"}}

		dp, err := dsc.StorageProvider()
		require.Error(t, err)
		require.Contains(t, err.Error(), "datastore.mongo.url is required")
		require.Nil(t, dp)
	})

	t.Run("unsupported", func(t *testing.T) {
		dsc := &DatastoreConfig{Database: "couchdb"}

		dp, err := dsc.StorageProvider()
		require.Error(t, err)
		require.Contains(t, err.Error(), `unsupported datastore "couchdb"`)
		require.Nil(t, dp)
	})
}
