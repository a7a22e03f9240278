package dimonmem

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

const embedQueueSize = 256

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:     db,
		tuning: DefaultTuning,
		now:    time.Now,
		embedQ: make(chan int64, embedQueueSize),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if err := s.migrate(); err != nil {
		cancel()
		db.Close()
		return nil, err
	}

	go s.embedWorker(ctx)

	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if _, err := s.db.Exec(vecSchema); err != nil {
		return err
	}

	return nil
}

func (s *Store) SetEmbedder(e Embedder) {
	s.embedder = e
}

func (s *Store) HasEmbedder() bool {
	return s.embedder != nil
}

// SetTuning replaces the engine constants. Call before serving traffic.
func (s *Store) SetTuning(t Tuning) {
	s.tuning = t
}

func (s *Store) Tuning() Tuning {
	return s.tuning
}

func (s *Store) Close() error {
	s.cancel()
	<-s.done

	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}
