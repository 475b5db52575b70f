package pipeline

import (
	"context"
	"fmt"

	"xcreport/src/broker"
	"xcreport/src/config"
	"xcreport/src/contracts"
	"xcreport/src/logger"
	"xcreport/src/store"
)

// Mode selects where messages and reports live.
type Mode int

const (
	// LocalMode keeps everything in process: in-memory broker and store.
	LocalMode Mode = iota
	// DistributedMode uses Redpanda for messages and, when configured, Postgres for reports.
	DistributedMode
)

func (m Mode) String() string {
	if m == DistributedMode {
		return "distributed"
	}
	return "local"
}

// DetectMode picks DistributedMode when seed brokers are configured.
func DetectMode(cfg *config.Config) Mode {
	if cfg != nil && cfg.UsesRedpanda() {
		return DistributedMode
	}
	return LocalMode
}

// Backend bundles the broker and store a binary works against.
type Backend struct {
	Mode   Mode
	Broker broker.Broker
	Store  store.Store
	Codec  contracts.Codec
}

// Open builds the backend described by cfg. The store is Postgres whenever a DSN is
// configured, in either mode.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	codec, err := contracts.CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	b := &Backend{Mode: DetectMode(cfg), Codec: codec}

	if b.Mode == DistributedMode {
		rp, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
		}
		b.Broker = rp
	} else {
		b.Broker = broker.NewInMemoryBroker()
	}

	if cfg.UsesPostgres() {
		pg, err := store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			b.Broker.Close()
			return nil, fmt.Errorf("failed to create Postgres store: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			b.Broker.Close()
			return nil, err
		}
		b.Store = pg
	} else {
		b.Store = store.NewInMemoryStore()
	}

	log.Debug("[Pipeline] opened %s backend (codec %s)", b.Mode, codec.Name())
	return b, nil
}

// Typed returns the broker wrapped with the backend codec.
func (b *Backend) Typed() *broker.Codec {
	return broker.WithCodec(b.Broker, b.Codec)
}

// Close shuts down the broker and the store.
func (b *Backend) Close() error {
	if err := b.Broker.Close(); err != nil {
		return err
	}
	return b.Store.Close()
}
