package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sh4cK-18/travel-bus/internal/metrics"
	"github.com/Sh4cK-18/travel-bus/internal/repository"
	"github.com/Sh4cK-18/travel-bus/internal/service"
	"github.com/Sh4cK-18/travel-bus/pkg/logger"
)

// ExpirySweeperConfig contains configuration for the expiry sweeper
type ExpirySweeperConfig struct {
	// SweepInterval is the interval between scans for expired reservations
	SweepInterval time.Duration
	// BatchSize is the number of reservations to process in each sweep
	BatchSize int
}

// DefaultExpirySweeperConfig returns default configuration
func DefaultExpirySweeperConfig() *ExpirySweeperConfig {
	return &ExpirySweeperConfig{
		SweepInterval: time.Minute,
		BatchSize:     100,
	}
}

// ExpirySweeper periodically expires pending reservations past their TTL and
// returns their seats to route inventory. Each reservation is handled in
// isolation so one failure never stalls the batch, and the conditional
// transition underneath makes a sweep racing a concurrent purchase harmless.
type ExpirySweeper struct {
	reservationRepo    repository.ReservationRepository
	reservationService service.ReservationService
	metrics            *metrics.Metrics
	config             *ExpirySweeperConfig
	log                *logger.Logger
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool

	// Stats
	totalExpired     int64
	totalFailed      int64
	lastSweepTime    time.Time
	lastExpiredCount int
}

// NewExpirySweeper creates a new expiry sweeper
func NewExpirySweeper(
	reservationRepo repository.ReservationRepository,
	reservationService service.ReservationService,
	m *metrics.Metrics,
	config *ExpirySweeperConfig,
) *ExpirySweeper {
	if config == nil {
		config = DefaultExpirySweeperConfig()
	}
	return &ExpirySweeper{
		reservationRepo:    reservationRepo,
		reservationService: reservationService,
		metrics:            m,
		config:             config,
		log:                logger.Get(),
		stopCh:             make(chan struct{}),
	}
}

// Start starts the expiry sweeper
func (w *ExpirySweeper) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("expiry sweeper already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("starting expiry sweeper",
		zap.Duration("interval", w.config.SweepInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(1)
	go w.run(ctx)

	return nil
}

// Stop stops the expiry sweeper and waits for the current sweep to finish
func (w *ExpirySweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("expiry sweeper stopped")
}

func (w *ExpirySweeper) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass over expired reservations. Exported so it can be
// triggered directly, the ticker calls it on schedule.
func (w *ExpirySweeper) Sweep(ctx context.Context) {
	start := time.Now()

	w.mu.Lock()
	w.lastSweepTime = start
	w.mu.Unlock()

	expired, err := w.reservationRepo.ListExpired(ctx, start.UTC(), w.config.BatchSize)
	if err != nil {
		w.log.Error("failed to list expired reservations", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		return
	}

	w.log.Info("sweeping expired reservations", zap.Int("count", len(expired)))

	var swept int64
	var failed int64
	for _, reservation := range expired {
		if err := w.reservationService.ExpireReservation(ctx, reservation.ID); err != nil {
			failed++
			w.log.Error("failed to expire reservation",
				zap.String("reservation_id", reservation.ID),
				zap.Error(err),
			)
			continue
		}
		swept++
	}

	w.mu.Lock()
	w.totalExpired += swept
	w.totalFailed += failed
	w.lastExpiredCount = len(expired)
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.SweepDuration.Record(ctx, time.Since(start).Seconds())
	}
}

// GetStats returns sweeper statistics
func (w *ExpirySweeper) GetStats() *ExpirySweeperStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &ExpirySweeperStats{
		IsRunning:        w.running,
		TotalExpired:     w.totalExpired,
		TotalFailed:      w.totalFailed,
		LastSweepTime:    w.lastSweepTime,
		LastExpiredCount: w.lastExpiredCount,
	}
}

// ExpirySweeperStats contains sweeper statistics
type ExpirySweeperStats struct {
	IsRunning        bool      `json:"is_running"`
	TotalExpired     int64     `json:"total_expired"`
	TotalFailed      int64     `json:"total_failed"`
	LastSweepTime    time.Time `json:"last_sweep_time"`
	LastExpiredCount int       `json:"last_expired_count"`
}
