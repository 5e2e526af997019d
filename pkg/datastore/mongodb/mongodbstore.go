/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongodb

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/scoir/proofbridge/pkg/datastore"
	"github.com/scoir/proofbridge/pkg/proofrequest"
	"github.com/scoir/proofbridge/pkg/template"
)

const (
	defaultPageSize = 10
	opTimeout       = 10 * time.Second
)

type Config struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// Provider represents a Mongo DB implementation of the storage.Provider interface
type Provider struct {
	client   *mongo.Client
	database string
	stores   map[string]*mongoDBStore
	sync.RWMutex
}

type mongoDBStore struct {
	templates     *mongo.Collection
	webhooks      *mongo.Collection
	proofRequests *mongo.Collection
}

// NewProvider instantiates Provider
func NewProvider(config *Config) (*Provider, error) {
	if config == nil {
		return nil, errors.New("config missing")
	}

	tM := reflect.TypeOf(bson.M{})
	reg := bson.NewRegistryBuilder().RegisterTypeMapEntry(bsontype.EmbeddedDocument, tM).Build()
	clientOpts := options.Client().SetRegistry(reg).ApplyURI(config.URL)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to mongo")
	}

	p := &Provider{
		client:   mongoClient,
		database: config.Database,
		stores:   map[string]*mongoDBStore{},
	}

	return p, nil
}

// OpenStore opens the collections of the named database, or of the configured one when name is empty.
func (p *Provider) OpenStore(name string) (datastore.Store, error) {
	p.Lock()
	defer p.Unlock()

	if name == "" {
		name = p.database
	}
	if name == "" {
		return nil, errors.New("store name is required")
	}

	if store, ok := p.stores[name]; ok {
		return store, nil
	}

	db := p.client.Database(name)
	store := &mongoDBStore{
		templates:     db.Collection(datastore.TemplateC),
		webhooks:      db.Collection(datastore.WebhookC),
		proofRequests: db.Collection(datastore.ProofRequestC),
	}

	p.stores[name] = store

	return store, nil
}

// Close forgets all stores and disconnects the client.
func (p *Provider) Close() error {
	p.Lock()
	defer p.Unlock()

	p.stores = make(map[string]*mongoDBStore)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return errors.Wrap(p.client.Disconnect(ctx), "unable to disconnect from mongo")
}

// CloseStore closes a previously opened stores
func (p *Provider) CloseStore(name string) error {
	p.Lock()
	defer p.Unlock()

	delete(p.stores, name)
	return nil
}

func (r *mongoDBStore) InsertTemplate(t *template.ProofTemplate) error {
	if err := t.Validate(); err != nil {
		return errors.Wrap(err, "invalid template")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.templates.ReplaceOne(ctx, bson.M{"id": t.ID}, t, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(err, "unable to insert template")
	}

	return nil
}

// GetTemplate loads a template and replays it through the template API so stored data obeys the same rules as new data.
func (r *mongoDBStore) GetTemplate(id string) (*template.ProofTemplate, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw := &template.ProofTemplate{}
	err := r.templates.FindOne(ctx, bson.M{"id": id}).Decode(raw)
	if err != nil {
		return nil, notFound(err, "unable to load template %s", id)
	}

	return template.Rebuild(raw)
}

func (r *mongoDBStore) ListTemplates(c *datastore.TemplateCriteria) (*datastore.TemplateList, error) {
	if c == nil {
		c = &datastore.TemplateCriteria{PageSize: defaultPageSize}
	}

	bc := bson.M{}
	if c.Name != "" {
		p := fmt.Sprintf(".*%s.*", regexp.QuoteMeta(c.Name))
		bc["name"] = primitive.Regex{Pattern: p, Options: "i"}
	}
	if c.Format != "" {
		bc["format"] = c.Format
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	count, err := r.templates.CountDocuments(ctx, bc)
	if err != nil {
		return nil, errors.Wrap(err, "unable to count templates")
	}

	results, err := r.templates.Find(ctx, bc, page(c.Start, c.PageSize).SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, errors.Wrap(err, "error trying to find templates")
	}

	out := datastore.TemplateList{
		Count:     int(count),
		Templates: []*template.ProofTemplate{},
	}

	err = results.All(ctx, &out.Templates)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode templates")
	}

	return &out, nil
}

func (r *mongoDBStore) DeleteTemplate(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.templates.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return errors.Wrap(err, "unable to delete template")
	}

	return nil
}

func (r *mongoDBStore) InsertWebhook(hook *datastore.Webhook) (string, error) {
	if hook.Topic == "" || hook.URL == "" {
		return "", errors.New("webhook topic and url are required")
	}
	if hook.ID == "" {
		hook.ID = uuid.New().String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.webhooks.InsertOne(ctx, hook)
	if err != nil {
		return "", errors.Wrap(err, "unable to insert webhook")
	}

	return hook.ID, nil
}

func (r *mongoDBStore) ListWebhooks(topic string) ([]*datastore.Webhook, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	results, err := r.webhooks.Find(ctx, bson.M{"topic": topic})
	if err != nil {
		return nil, errors.Wrapf(err, "error trying to find webhooks for %s", topic)
	}

	out := []*datastore.Webhook{}
	err = results.All(ctx, &out)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode webhooks")
	}

	return out, nil
}

func (r *mongoDBStore) DeleteWebhook(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.webhooks.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return errors.Wrap(err, "unable to delete webhook")
	}

	return nil
}

func (r *mongoDBStore) SaveProofRequest(pr *proofrequest.ProofRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.proofRequests.ReplaceOne(ctx, bson.M{"id": pr.ID}, pr, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrapf(err, "unable to save proof request %s", pr.ID)
	}

	return nil
}

func (r *mongoDBStore) GetProofRequest(id string) (*proofrequest.ProofRequest, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pr := &proofrequest.ProofRequest{}
	err := r.proofRequests.FindOne(ctx, bson.M{"id": id}).Decode(pr)
	if err != nil {
		return nil, notFound(err, "unable to load proof request %s", id)
	}

	return pr, nil
}

// ListProofRequests returns archived requests, most recent first.
func (r *mongoDBStore) ListProofRequests(c *datastore.ProofRequestCriteria) (*datastore.ProofRequestList, error) {
	if c == nil {
		c = &datastore.ProofRequestCriteria{PageSize: defaultPageSize}
	}

	bc := bson.M{}
	if c.TemplateID != "" {
		bc["templateid"] = c.TemplateID
	}
	if c.Status != "" {
		bc["status"] = c.Status
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	count, err := r.proofRequests.CountDocuments(ctx, bc)
	if err != nil {
		return nil, errors.Wrap(err, "unable to count proof requests")
	}

	results, err := r.proofRequests.Find(ctx, bc, page(c.Start, c.PageSize).SetSort(bson.M{"createdat": -1}))
	if err != nil {
		return nil, errors.Wrap(err, "error trying to find proof requests")
	}

	out := datastore.ProofRequestList{
		Count:         int(count),
		ProofRequests: []*proofrequest.ProofRequest{},
	}

	err = results.All(ctx, &out.ProofRequests)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode proof requests")
	}

	return &out, nil
}

func page(start, size int) *options.FindOptions {
	if size <= 0 {
		size = defaultPageSize
	}
	return options.Find().SetSkip(int64(start)).SetLimit(int64(size))
}

func notFound(err error, msg string, args ...interface{}) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Wrapf(datastore.ErrNotFound, msg, args...)
	}
	return errors.Wrapf(err, msg, args...)
}
