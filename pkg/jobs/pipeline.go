package jobs

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/dyike/patvec/pkg/embed"
	"github.com/dyike/patvec/pkg/store"
	"github.com/dyike/patvec/pkg/vectordb"
)

// ErrExhausted 所有重试用尽后仍未成功
var ErrExhausted = errors.New("embedding job exhausted retries")

// Embedder 流水线需要的嵌入能力（由embed.Service实现）
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Info() embed.Info
}

// task 单个待处理任务
type task struct {
	jobID    string
	patentID string
}

// Pipeline 异步嵌入任务流水线
//
// 每个专利ID通过FNV哈希固定分配到一个worker：同一专利的任务
// 串行执行且按入队顺序处理，不同专利可以并行。失败的尝试按
// 指数退避重试，重试用尽后任务进入failed终态。
type Pipeline struct {
	store       *store.Store
	embedder    Embedder
	workers     int
	maxAttempts int
	retryBase   time.Duration

	mu     sync.RWMutex
	closed bool
	shards []chan task
	eg     *errgroup.Group
	cancel context.CancelFunc
}

// Options 流水线配置
type Options struct {
	Workers     int           // 并行worker数，默认4
	MaxAttempts int           // 每个任务的最大尝试次数（含首次），默认3
	RetryBase   time.Duration // 指数退避的基础间隔，默认500ms
}

// NewPipeline 创建流水线，调用Start前不处理任何任务
func NewPipeline(s *store.Store, e Embedder, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}

	return &Pipeline{
		store:       s,
		embedder:    e,
		workers:     opts.Workers,
		maxAttempts: opts.MaxAttempts,
		retryBase:   opts.RetryBase,
	}
}

// Start 启动worker池
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.eg, ctx = errgroup.WithContext(ctx)

	p.shards = make([]chan task, p.workers)
	for i := range p.shards {
		ch := make(chan task, 64)
		p.shards[i] = ch
		p.eg.Go(func() error {
			for t := range ch {
				p.process(ctx, t)
			}
			return nil
		})
	}
}

// Close 停止接收新任务，排空队列后返回
// 之后的Enqueue会返回错误而不是panic
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	for _, ch := range p.shards {
		close(ch)
	}
	err := p.eg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	return err
}

// Enqueue 为专利创建嵌入任务并立即返回任务ID
// 同一专利的任务会被同一个worker按入队顺序处理
// 每个worker队列缓冲64个任务，队列满时入队会等待worker腾出空间
func (p *Pipeline) Enqueue(patentID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.shards == nil {
		return "", errors.New("pipeline not started")
	}
	if p.closed {
		return "", errors.New("pipeline closed")
	}

	jobID, err := p.store.CreateJob(patentID)
	if err != nil {
		return "", err
	}

	p.shards[shardFor(patentID, p.workers)] <- task{jobID: jobID, patentID: patentID}
	return jobID, nil
}

// Cancel 取消尚未开始的任务
// 运行中或已结束的任务不受影响，返回false
func (p *Pipeline) Cancel(jobID string) (bool, error) {
	return p.store.CancelJob(jobID)
}

// shardFor 专利ID到worker的稳定映射
func shardFor(patentID string, workers int) int {
	h := fnv.New32a()
	h.Write([]byte(patentID))
	return int(h.Sum32() % uint32(workers))
}

// process 执行单个任务：嵌入并写入索引
func (p *Pipeline) process(ctx context.Context, t task) {
	// 状态机claim：任务已被取消时直接跳过
	claimed, err := p.store.ClaimJob(t.jobID)
	if err != nil {
		log.Error("failed to claim job", "job", t.jobID, "error", err)
		return
	}
	if !claimed {
		log.Debug("skipping non-pending job", "job", t.jobID)
		return
	}

	backoff := retry.WithMaxRetries(uint64(p.maxAttempts-1), retry.NewExponential(p.retryBase))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptErr := p.attempt(ctx, t)
		if attemptErr == nil {
			return nil
		}

		if recordErr := p.store.IncrementJobAttempt(t.jobID, attemptErr.Error()); recordErr != nil {
			log.Error("failed to record job attempt", "job", t.jobID, "error", recordErr)
		}

		if isPermanent(attemptErr) {
			// 永久性错误不重试
			return attemptErr
		}

		log.Warn("embedding attempt failed, will retry", "job", t.jobID, "error", attemptErr)
		return retry.RetryableError(attemptErr)
	})

	if err == nil {
		if markErr := p.store.MarkJobSucceeded(t.jobID); markErr != nil {
			log.Error("failed to mark job succeeded", "job", t.jobID, "error", markErr)
		}
		return
	}

	if !isPermanent(err) {
		err = fmt.Errorf("%w: %v", ErrExhausted, err)
	}

	log.Error("embedding job failed", "job", t.jobID, "patent", t.patentID, "error", err)
	if markErr := p.store.MarkJobFailed(t.jobID, err.Error()); markErr != nil {
		log.Error("failed to mark job failed", "job", t.jobID, "error", markErr)
	}
}

// attempt 单次嵌入尝试
func (p *Pipeline) attempt(ctx context.Context, t task) error {
	patent, err := p.store.GetPatent(t.patentID)
	if err != nil {
		return err
	}

	vec, err := p.embedder.Embed(ctx, embedText(patent))
	if err != nil {
		return err
	}

	return p.store.UpsertVector(t.patentID, vec, p.embedder.Info().Model)
}

// embedText 组合用于嵌入的文本：标题+摘要，没有摘要时用正文
func embedText(p *store.Patent) string {
	parts := []string{p.Title}
	if p.Abstract != "" {
		parts = append(parts, p.Abstract)
	} else if p.Content != "" {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n")
}

// isPermanent 判断错误是否不值得重试
// 输入无效和维度不匹配重试也不会变好；provider不可用是暂时的
func isPermanent(err error) bool {
	return errors.Is(err, embed.ErrInvalidInput) ||
		errors.Is(err, vectordb.ErrDimensionMismatch)
}
