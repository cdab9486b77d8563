package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/cooksync/internal/config"
	"github.com/cooksync/internal/document"
	"github.com/cooksync/pkg/logger"
)

// CassandraStore implements Store on top of a Cassandra cluster. Documents
// are stored one row per session id as a JSON blob; the keyspace and table
// are created on startup if they do not exist.
type CassandraStore struct {
	session  *gocql.Session
	keyspace string
	timeout  time.Duration
	logger   *logger.Logger
}

// NewCassandraStore connects to the cluster and bootstraps the schema.
func NewCassandraStore(cfg config.CassandraConfig, log *logger.Logger) (*CassandraStore, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.Timeout
	cluster.Consistency = parseConsistency(cfg.Consistency)

	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	cluster.NumConns = 2
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Cassandra session: %w", err)
	}

	log.Info("Connected to Cassandra",
		logger.F("hosts", fmt.Sprintf("%v", cfg.Hosts)),
		logger.F("keyspace", cfg.Keyspace))

	s := &CassandraStore{
		session:  session,
		keyspace: cfg.Keyspace,
		timeout:  cfg.Timeout,
		logger:   log,
	}

	if err := s.initializeSchema(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *CassandraStore) initializeSchema() error {
	createKeyspace := fmt.Sprintf(`
		CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {
			'class': 'SimpleStrategy',
			'replication_factor': 1
		}`, s.keyspace)

	if err := s.session.Query(createKeyspace).Exec(); err != nil {
		return fmt.Errorf("failed to create keyspace: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.documents (
			session_id text PRIMARY KEY,
			doc text,
			updated_at timestamp
		)`, s.keyspace)

	if err := s.session.Query(createTable).Exec(); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	return nil
}

// LoadDocument retrieves a session's document row.
func (s *CassandraStore) LoadDocument(ctx context.Context, id string) (document.Document, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s.documents WHERE session_id = ?`, s.keyspace)

	queryCtx, cancel := s.queryContext(ctx)
	defer cancel()

	var data string
	err := s.session.Query(query, id).WithContext(queryCtx).Scan(&data)
	if err != nil {
		if err == gocql.ErrNotFound {
			return document.Document{}, ErrSessionNotFound
		}
		return document.Document{}, fmt.Errorf("failed to get document: %w", err)
	}

	var doc document.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return document.Document{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// SaveDocument upserts a session's document row.
func (s *CassandraStore) SaveDocument(ctx context.Context, id string, doc document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s.documents (session_id, doc, updated_at)
		VALUES (?, ?, ?)`, s.keyspace)

	queryCtx, cancel := s.queryContext(ctx)
	defer cancel()

	if err := s.session.Query(query, id, string(data), time.Now()).WithContext(queryCtx).Exec(); err != nil {
		s.logger.Error("Failed to save document",
			logger.F("session_id", id),
			logger.F("error", err.Error()))
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// DeleteDocument removes a session's document row.
func (s *CassandraStore) DeleteDocument(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s.documents WHERE session_id = ?`, s.keyspace)

	queryCtx, cancel := s.queryContext(ctx)
	defer cancel()

	if err := s.session.Query(query, id).WithContext(queryCtx).Exec(); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Close shuts down the Cassandra session.
func (s *CassandraStore) Close() {
	if s.session != nil {
		s.session.Close()
		s.logger.Info("Cassandra session closed")
	}
}

// queryContext applies the configured timeout unless the caller already
// carries a deadline.
func (s *CassandraStore) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// parseConsistency maps a config string to a gocql consistency level,
// defaulting to quorum.
func parseConsistency(value string) gocql.Consistency {
	switch value {
	case "one":
		return gocql.One
	case "local_one":
		return gocql.LocalOne
	case "local_quorum":
		return gocql.LocalQuorum
	case "all":
		return gocql.All
	default:
		return gocql.Quorum
	}
}
