package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
)

// Job 定时任务
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler 基于 cron 表达式（含秒）的后台任务调度
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	log  *logrus.Entry
}

// New 创建调度器，ctx 取消后新触发的任务会立即失败
func New(ctx context.Context, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		ctx:  ctx,
		log:  logger.Component("scheduler"),
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("调度器已启动")
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("调度器已停止")
}

// AddJob 注册任务，schedule 例如 "0 30 20 * * *" 表示每天 20:30
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"schedule": schedule, "job": job.Name()}).Info("任务已注册")
	return nil
}

// Next 返回下一次触发时间，没有任务时为零值
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, entry := range s.cron.Entries() {
		if next.IsZero() || (!entry.Next.IsZero() && entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}

// RunNow 立即执行任务
func (s *Scheduler) RunNow(job Job) error {
	s.log.WithField("job", job.Name()).Info("立即执行任务")
	return job.Run(s.ctx)
}

func (s *Scheduler) run(job Job) {
	log := s.log.WithField("job", job.Name())
	log.Debug("开始执行任务")

	start := time.Now()
	if err := job.Run(s.ctx); err != nil {
		log.Errorf("任务执行失败: %v", err)
		return
	}
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Debug("任务执行完成")
}

// Analyzer 按日期执行一次分析
type Analyzer interface {
	Analyze(ctx context.Context, date string, force bool) (*model.Report, error)
}

// DailyAnalysisJob 每次触发时分析当天的新闻
type DailyAnalysisJob struct {
	analyzer Analyzer
	loc      *time.Location
	timeout  time.Duration
}

// NewDailyAnalysisJob timeout <= 0 表示不限制单次运行时长
func NewDailyAnalysisJob(analyzer Analyzer, loc *time.Location, timeout time.Duration) *DailyAnalysisJob {
	if loc == nil {
		loc = time.Local
	}
	return &DailyAnalysisJob{analyzer: analyzer, loc: loc, timeout: timeout}
}

func (j *DailyAnalysisJob) Name() string {
	return "daily_news_analysis"
}

func (j *DailyAnalysisJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	date := model.FormatDate(time.Now().In(j.loc))
	_, err := j.analyzer.Analyze(ctx, date, false)
	return err
}
