package db

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"asset-portal/internal/config"
)

// PoolConfig construye la configuración del pool a partir de la configuración del servicio.
func PoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Sin conexiones mínimas: la primera conexión se abre con la primera consulta.
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = 0
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return poolCfg, nil
}

// LazyPool expone un único pool compartido que se construye en el primer Acquire.
type LazyPool struct {
	init func() (*pgxpool.Pool, error)
	mu   sync.Mutex
	pool *pgxpool.Pool
}

// NewLazyPool prepara el pool sin abrir conexiones todavía.
func NewLazyPool(cfg *config.Config) *LazyPool {
	lp := &LazyPool{}
	lp.init = sync.OnceValues(func() (*pgxpool.Pool, error) {
		poolCfg, err := PoolConfig(cfg)
		if err != nil {
			return nil, err
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			return nil, err
		}
		lp.mu.Lock()
		lp.pool = pool
		lp.mu.Unlock()
		return pool, nil
	})
	return lp
}

// Acquire devuelve el pool compartido; llamadas concurrentes obtienen el mismo resultado.
func (l *LazyPool) Acquire(_ context.Context) (*pgxpool.Pool, error) {
	return l.init()
}

// Ping verifica conectividad con la base de datos.
func (l *LazyPool) Ping(ctx context.Context) error {
	pool, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Close cierra el pool si llegó a construirse.
func (l *LazyPool) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pool != nil {
		l.pool.Close()
		l.pool = nil
	}
}
