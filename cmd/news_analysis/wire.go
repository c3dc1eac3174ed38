package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iWorld-y/news_analysis/internal/analysis"
	"github.com/iWorld-y/news_analysis/internal/engine"
	"github.com/iWorld-y/news_analysis/internal/llm"
	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
	"github.com/iWorld-y/news_analysis/internal/news"
	"github.com/iWorld-y/news_analysis/internal/notify"
	"github.com/iWorld-y/news_analysis/internal/storage"
)

var errReportNotFound = errors.New("分析报告不存在")

// openStores 创建文件存储与索引
func (a *app) openStores() (*storage.FileStorage, *storage.IndexManager, error) {
	s := a.cfg.Storage
	fileStore, err := storage.NewFileStorage(s.AnalysisDir, s.ResultsDir)
	if err != nil {
		return nil, nil, err
	}
	index, err := storage.NewIndexManager(s.AnalysisDir)
	if err != nil {
		return nil, nil, err
	}
	return fileStore, index, nil
}

func (a *app) newNotifier() *notify.FeishuNotifier {
	f := a.cfg.Feishu
	return notify.NewFeishuNotifier(f.WebhookURL, f.Enabled, time.Duration(f.Timeout)*time.Second)
}

// newReader 本地文件优先，其次网页抓取，最后是新闻搜索
func (a *app) newReader() news.Reader {
	n := a.cfg.News
	readers := []news.Reader{news.NewFileReader(a.cfg.Storage.NewsDir, n.MinLength)}
	if n.SourceURL != "" {
		readers = append(readers, news.NewWebReader(n.SourceURL, 30*time.Second, n.MinLength))
	}
	if n.SearchAPIKey != "" {
		readers = append(readers, news.NewTavilyReader(n.SearchAPIKey, n.SearchEndpoint, n.MinLength))
	}
	return news.NewFallbackReader(readers...)
}

// newEngine 组装完整的分析流程，返回的 cleanup 用于释放数据库连接
func (a *app) newEngine(ctx context.Context) (*engine.Engine, func(), error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, err
	}

	client, err := llm.New(ctx, a.cfg.LLM, llm.WithLimiter(llm.NewLimiter(a.cfg.Concurrency)))
	if err != nil {
		return nil, nil, err
	}

	fileStore, index, err := a.openStores()
	if err != nil {
		return nil, nil, err
	}

	maxInput := a.cfg.News.MaxInput
	deps := engine.Deps{
		Reader:      a.newReader(),
		Sentiment:   analysis.NewSentimentAnalyzer(client, maxInput),
		Trend:       analysis.NewTrendAnalyzer(client, maxInput),
		Recommender: analysis.NewRecommendationEngine(client),
		Store:       fileStore,
		Index:       index,
		Notifier:    a.newNotifier(),
	}

	cleanup := func() {}
	if dsn := a.cfg.DB.DSN; dsn != "" {
		pg, err := storage.NewPostgresStore(ctx, dsn)
		if err != nil {
			logger.Log.Warnf("数据库镜像不可用，仅写入文件: %v", err)
		} else {
			deps.Mirror = pg
			cleanup = func() {
				if err := pg.Close(); err != nil {
					logger.Log.Warnf("关闭数据库连接失败: %v", err)
				}
			}
		}
	}

	progress := engine.WithProgress(func(date string, stage engine.Stage) {
		logger.Log.WithField("date", date).Debugf("进入阶段: %s", stage)
	})
	return engine.New(deps, progress), cleanup, nil
}

// loadReport 读取已有报告，不存在时返回错误
func loadReport(store *storage.FileStorage, date string) (*model.Report, error) {
	report, err := store.Load(date)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("%w - %s", errReportNotFound, date)
	}
	return report, nil
}
