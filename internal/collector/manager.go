package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/speedwagon-io/sensord/internal/buffer"
	"github.com/speedwagon-io/sensord/internal/commit"
	"github.com/speedwagon-io/sensord/internal/lib/logger/sl"
	"github.com/speedwagon-io/sensord/internal/metrics"
	"github.com/speedwagon-io/sensord/internal/model"
)

type Options struct {
	Interval time.Duration
	// Timeout bounds a whole cycle; zero leaves the cycle unbounded.
	Timeout time.Duration
	// AbortOnError stops the cycle at the first acquisition failure instead
	// of skipping the device. Commit failures never abort.
	AbortOnError bool
	ReplayLimit  int
	BufferMaxAge time.Duration
}

// CommitResult pairs a local record id with the server's correlation id.
type CommitResult struct {
	RecordID      uuid.UUID
	CorrelationID uuid.UUID
}

type CycleReport struct {
	Records  []model.Record
	Commits  []CommitResult
	Replayed int
	Errors   []error
}

// Manager runs acquisition cycles: collect, assemble, then commit or print.
// Cycles are sequential and never overlap.
type Manager struct {
	log        *slog.Logger
	opts       Options
	collectors []Collector
	committer  commit.Committer
	buffer     buffer.Buffer
	metrics    *metrics.Metrics
	assembler  model.Assembler
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewManager wires a cycle runner. committer, buf and m may be nil: without
// a committer records are only logged, without a buffer failed commits are dropped.
func NewManager(
	log *slog.Logger,
	opts Options,
	collectors []Collector,
	committer commit.Committer,
	buf buffer.Buffer,
	m *metrics.Metrics,
) *Manager {
	return &Manager{
		log:        log,
		opts:       opts,
		collectors: collectors,
		committer:  committer,
		buffer:     buf,
		metrics:    m,
		assembler:  model.DefaultAssembler,
		stopCh:     make(chan struct{}),
	}
}

// WithAssembler replaces the id and clock sources.
func (m *Manager) WithAssembler(a model.Assembler) *Manager {
	m.assembler = a
	return m
}

func (m *Manager) Start(ctx context.Context) {
	m.log.Info("starting collector manager",
		slog.Int("collectors", len(m.collectors)),
		slog.Duration("interval", m.opts.Interval),
		slog.Bool("commit", m.committer != nil),
	)

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.runLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("context cancelled, stopping manager")
			return
		case <-m.stopCh:
			m.log.Info("stop signal received, stopping manager")
			return
		case <-ticker.C:
			m.runLogged(ctx)
		}
	}
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		for _, c := range m.collectors {
			if err := c.Close(); err != nil {
				m.log.Error("failed to close collector", slog.String("collector", c.Name()), sl.Err(err))
			}
		}
	})
}

func (m *Manager) runLogged(ctx context.Context) {
	report, err := m.RunOnce(ctx)
	if err != nil {
		m.log.Error("cycle aborted", sl.Err(err))
	}
	m.log.Debug("cycle finished",
		slog.Int("records", len(report.Records)),
		slog.Int("committed", len(report.Commits)),
		slog.Int("replayed", report.Replayed),
		slog.Int("errors", len(report.Errors)),
	)
}

// RunOnce performs one full cycle. The returned error is non-nil only when
// AbortOnError stopped the cycle early.
func (m *Manager) RunOnce(ctx context.Context) (CycleReport, error) {
	started := time.Now()
	defer func() {
		m.observe(func(x *metrics.Metrics) { x.ObserveCycle(time.Since(started).Seconds()) })
	}()

	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	var report CycleReport

	m.replayBuffered(ctx, &report)

	for _, c := range m.collectors {
		samples, err := c.Collect(ctx)
		if err != nil {
			if abortErr := m.acquisitionFailed(&report, c.Name(), err); abortErr != nil {
				return report, abortErr
			}
		}

		for _, s := range samples {
			if s.Err != nil {
				if abortErr := m.acquisitionFailed(&report, s.Source, s.Err); abortErr != nil {
					return report, abortErr
				}
				continue
			}

			record := m.assembler.Assemble(s.Reading)
			report.Records = append(report.Records, record)
			m.observe(func(x *metrics.Metrics) { x.ReadingTaken(string(s.Reading.Family())) })

			m.log.Info("record",
				slog.String("id", record.ID().String()),
				slog.String("record", record.String()),
			)

			m.commitRecord(ctx, &report, record)
		}
	}

	m.updateBufferGauge(ctx)
	return report, nil
}

func (m *Manager) acquisitionFailed(report *CycleReport, source string, err error) error {
	stage := Stage(err)
	report.Errors = append(report.Errors, err)
	m.observe(func(x *metrics.Metrics) { x.ReadFailed(stage) })

	m.log.Error("failed to read sensor",
		slog.String("source", source),
		slog.String("stage", stage),
		sl.Err(err),
	)

	if m.opts.AbortOnError {
		return fmt.Errorf("%s: %w", source, err)
	}
	return nil
}

func (m *Manager) commitRecord(ctx context.Context, report *CycleReport, record model.Record) {
	if m.committer == nil {
		return
	}

	correlationID, err := m.committer.Commit(ctx, record)
	m.observe(func(x *metrics.Metrics) { x.CommitDone(err == nil) })

	if err != nil {
		report.Errors = append(report.Errors, err)
		m.log.Error("failed to commit record",
			slog.String("id", record.ID().String()),
			sl.Err(err),
		)

		if m.buffer != nil {
			if bufErr := m.buffer.Store(ctx, record); bufErr != nil {
				m.log.Error("failed to buffer record",
					slog.String("id", record.ID().String()),
					sl.Err(bufErr),
				)
			} else {
				m.log.Info("record buffered for the next cycle",
					slog.String("id", record.ID().String()),
				)
			}
		}
		return
	}

	report.Commits = append(report.Commits, CommitResult{RecordID: record.ID(), CorrelationID: correlationID})
	m.log.Info("record committed",
		slog.String("id", record.ID().String()),
		slog.String("record_id", correlationID.String()),
	)
}

// replayBuffered resubmits records from earlier failed commits, oldest
// first, stopping at the first failure.
func (m *Manager) replayBuffered(ctx context.Context, report *CycleReport) {
	if m.committer == nil || m.buffer == nil {
		return
	}

	limit := m.opts.ReplayLimit
	if limit <= 0 {
		limit = 100
	}

	pending, err := m.buffer.GetPending(ctx, limit)
	if err != nil {
		m.log.Error("failed to get pending records from buffer", sl.Err(err))
		return
	}

	if len(pending) > 0 {
		m.log.Info("replaying buffered records", slog.Int("count", len(pending)))
	}

	var sent []uuid.UUID
	for _, record := range pending {
		correlationID, err := m.committer.Commit(ctx, record)
		m.observe(func(x *metrics.Metrics) { x.CommitDone(err == nil) })
		if err != nil {
			m.log.Debug("failed to commit buffered record",
				slog.String("id", record.ID().String()),
				sl.Err(err),
			)
			break
		}
		sent = append(sent, record.ID())
		report.Commits = append(report.Commits, CommitResult{RecordID: record.ID(), CorrelationID: correlationID})
	}

	if len(sent) > 0 {
		if err := m.buffer.MarkSent(ctx, sent); err != nil {
			m.log.Error("failed to remove committed records from buffer", sl.Err(err))
		} else {
			report.Replayed = len(sent)
			m.log.Info("buffered records committed", slog.Int("count", len(sent)))
		}
	}

	if m.opts.BufferMaxAge > 0 {
		if err := m.buffer.Cleanup(ctx, m.opts.BufferMaxAge); err != nil {
			m.log.Error("failed to cleanup old buffer records", sl.Err(err))
		}
	}
}

func (m *Manager) updateBufferGauge(ctx context.Context) {
	if m.buffer == nil || m.metrics == nil {
		return
	}
	count, err := m.buffer.Count(ctx)
	if err != nil {
		m.log.Error("failed to count buffered records", sl.Err(err))
		return
	}
	m.metrics.SetBuffered(count)
}

func (m *Manager) observe(fn func(*metrics.Metrics)) {
	if m.metrics != nil {
		fn(m.metrics)
	}
}
