package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
	"github.com/iWorld-y/news_analysis/internal/news"
	"github.com/iWorld-y/news_analysis/internal/notify"
	"github.com/iWorld-y/news_analysis/internal/storage"
)

// Stage 单次运行所处的阶段
type Stage string

const (
	StageCheckExisting   Stage = "check_existing"
	StageReadInput       Stage = "read_input"
	StageAnalyzeParallel Stage = "analyze_parallel"
	StageRecommend       Stage = "recommend"
	StageAssembleReport  Stage = "assemble_report"
	StagePersist         Stage = "persist"
	StageUpdateIndex     Stage = "update_index"
	StageNotify          Stage = "notify"
	StageDone            Stage = "done"
)

type SentimentAnalyzer interface {
	Analyze(ctx context.Context, content string) (*model.Sentiment, error)
}

type TrendAnalyzer interface {
	Analyze(ctx context.Context, content string) (*model.Trend, error)
}

type Recommender interface {
	Generate(ctx context.Context, sentiment model.Sentiment, trends model.Trend) []model.Recommendation
}

// ReportStore 报告的持久化存储
type ReportStore interface {
	Save(report *model.Report) (string, error)
	Load(date string) (*model.Report, error)
	SaveResults(report *model.Report, format storage.Format) (string, error)
	Remove(date string) error
}

type DateIndex interface {
	AddDate(date string) error
}

// Mirror 报告镜像存储，写入失败不影响本次运行
type Mirror interface {
	Save(ctx context.Context, report *model.Report) error
}

// Deps 引擎依赖，Notifier 与 Mirror 可为空
type Deps struct {
	Reader      news.Reader
	Sentiment   SentimentAnalyzer
	Trend       TrendAnalyzer
	Recommender Recommender
	Store       ReportStore
	Index       DateIndex
	Notifier    notify.Notifier
	Mirror      Mirror
}

// Engine 驱动单个日期的完整分析流程
type Engine struct {
	Deps
	progress func(date string, stage Stage)
}

// Option 引擎选项
type Option func(*Engine)

// WithProgress 每进入一个阶段时回调
func WithProgress(fn func(date string, stage Stage)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

func New(deps Deps, opts ...Option) *Engine {
	e := &Engine{Deps: deps}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze 分析指定日期的新闻，date 为空时使用今天；已有结果且未强制时直接返回已有报告
func (e *Engine) Analyze(ctx context.Context, date string, force bool) (*model.Report, error) {
	if date == "" {
		date = model.Today()
	}
	if _, err := model.ParseDate(date); err != nil {
		return nil, err
	}

	log := logger.Log.WithFields(logrus.Fields{
		"date":   date,
		"run_id": uuid.NewString(),
	})

	e.enter(date, StageCheckExisting)
	existing, err := e.Store.Load(date)
	if err != nil {
		if !force {
			return nil, fmt.Errorf("load existing report: %w", err)
		}
		// 强制重跑时旧文件损坏不影响本次运行，只是失败时无法恢复
		log.Warnf("读取已有报告失败: %v", err)
		existing = nil
	}
	if existing != nil && !force {
		log.Info("分析结果已存在，跳过")
		e.enter(date, StageDone)
		return existing, nil
	}

	log.Info("开始分析")

	e.enter(date, StageReadInput)
	content, err := e.Reader.ReadNews(ctx, date)
	if err != nil {
		log.Errorf("读取新闻失败: %v", err)
		return nil, fmt.Errorf("read news: %w", err)
	}

	e.enter(date, StageAnalyzeParallel)
	sentiment, trends, err := e.analyzeParallel(ctx, content)
	if err != nil {
		log.Errorf("分析失败: %v", err)
		return nil, err
	}

	e.enter(date, StageRecommend)
	recs := e.Recommender.Generate(ctx, *sentiment, *trends)

	e.enter(date, StageAssembleReport)
	report, err := model.NewReport(date, *sentiment, *trends, recs)
	if err != nil {
		return nil, fmt.Errorf("assemble report: %w", err)
	}

	e.enter(date, StagePersist)
	if err := e.persist(report); err != nil {
		log.Errorf("保存失败: %v", err)
		e.rollback(log, date, existing)
		return nil, err
	}

	e.enter(date, StageUpdateIndex)
	if err := e.Index.AddDate(date); err != nil {
		log.Errorf("更新索引失败: %v", err)
		e.rollback(log, date, existing)
		return nil, fmt.Errorf("update index: %w", err)
	}

	if e.Mirror != nil {
		if err := e.Mirror.Save(ctx, report); err != nil {
			log.Warnf("写入数据库镜像失败: %v", err)
		}
	}

	e.enter(date, StageNotify)
	if e.Notifier != nil {
		sent := e.Notifier.Notify(ctx, report)
		log.WithField("sent", sent).Info("通知分发完成")
	}

	e.enter(date, StageDone)
	log.WithFields(logrus.Fields{
		"sentiment":       report.Sentiment.Category,
		"score":           report.Sentiment.Score,
		"recommendations": len(report.Recommendations),
	}).Info("分析完成")
	return report, nil
}

// analyzeParallel 并发执行情绪与趋势分析，任一失败则返回该错误
func (e *Engine) analyzeParallel(ctx context.Context, content string) (*model.Sentiment, *model.Trend, error) {
	var (
		sentiment *model.Sentiment
		trends    *model.Trend
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := e.Sentiment.Analyze(gctx, content)
		if err != nil {
			return err
		}
		sentiment = s
		return nil
	})
	g.Go(func() error {
		t, err := e.Trend.Analyze(gctx, content)
		if err != nil {
			return err
		}
		trends = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sentiment, trends, nil
}

func (e *Engine) persist(report *model.Report) error {
	if _, err := e.Store.Save(report); err != nil {
		return err
	}
	if _, err := e.Store.SaveResults(report, storage.FormatMarkdown); err != nil {
		return err
	}
	return nil
}

// rollback 撤销本次运行写入的文件，<date>.json 存在即表示该日期已分析完成，
// 失败的运行不能留下它。强制重跑时恢复之前的报告
func (e *Engine) rollback(log *logrus.Entry, date string, previous *model.Report) {
	if previous == nil {
		if err := e.Store.Remove(date); err != nil {
			log.Errorf("回滚失败: %v", err)
		}
		return
	}
	if _, err := e.Store.Save(previous); err != nil {
		log.Errorf("恢复已有报告失败: %v", err)
		return
	}
	if _, err := e.Store.SaveResults(previous, storage.FormatMarkdown); err != nil {
		log.Errorf("恢复已有结果失败: %v", err)
	}
}

func (e *Engine) enter(date string, stage Stage) {
	if e.progress != nil {
		e.progress(date, stage)
	}
}
