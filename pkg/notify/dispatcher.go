// Package notify delivers outbound Discord notifications off the request path.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"modtraining_backend/pkg/logger"
	"modtraining_backend/pkg/monitoring"
)

type Job func(ctx context.Context) error

type task struct {
	kind string
	job  Job
}

// Dispatcher 异步执行通知任务，队列满时丢弃并记录日志，不阻塞请求。
type Dispatcher struct {
	queue chan task
	wg    sync.WaitGroup
	once  sync.Once
	done  chan struct{}
}

func NewDispatcher(size int) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	return &Dispatcher{
		queue: make(chan task, size),
		done:  make(chan struct{}),
	}
}

// Enqueue 返回 false 表示任务被丢弃
func (d *Dispatcher) Enqueue(kind string, job Job) bool {
	select {
	case <-d.done:
		return false
	default:
	}

	select {
	case d.queue <- task{kind: kind, job: job}:
		return true
	default:
		logger.Log.Warn("notification queue full, dropping", zap.String("kind", kind))
		monitoring.NotificationsTotal.WithLabelValues(kind, "dropped").Inc()
		return false
	}
}

// Start 启动消费协程，直到 ctx 取消或 Stop 被调用；退出前排空已入队任务。
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx)
	}()
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		select {
		case t := <-d.queue:
			d.execute(ctx, t)
		case <-ctx.Done():
			d.drain(context.Background())
			return
		case <-d.done:
			d.drain(ctx)
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case t := <-d.queue:
			d.execute(ctx, t)
		default:
			return
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("notification panicked", zap.String("kind", t.kind), zap.Any("panic", r))
			monitoring.NotificationsTotal.WithLabelValues(t.kind, "error").Inc()
		}
	}()

	if err := t.job(ctx); err != nil {
		logger.Log.Warn("notification failed", zap.String("kind", t.kind), zap.Error(err))
		monitoring.NotificationsTotal.WithLabelValues(t.kind, "error").Inc()
		return
	}
	monitoring.NotificationsTotal.WithLabelValues(t.kind, "ok").Inc()
}

// Stop 通知消费协程退出并等待剩余任务完成
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.done) })
	d.wg.Wait()
}
