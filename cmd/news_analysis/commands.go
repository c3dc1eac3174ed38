package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kratos/kratos/v2"

	"github.com/iWorld-y/news_analysis/internal/engine"
	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
	"github.com/iWorld-y/news_analysis/internal/scheduler"
	"github.com/iWorld-y/news_analysis/internal/server"
	"github.com/iWorld-y/news_analysis/internal/storage"
)

func runAnalyze(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("analyze")
	date := fs.String("date", "", "日期 YYYYMMDD，默认今天")
	force := fs.Bool("force", false, "已有结果时强制重新分析")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	d, err := requireDate(*date, true)
	if err != nil {
		return err
	}

	e, cleanup, err := a.newEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := e.Analyze(ctx, d, *force)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "分析完成！日期: %s\n", report.Date)
	fmt.Fprintf(a.stdout, "市场情绪: %s (%d/100)\n", report.Sentiment.Category, report.Sentiment.Score)
	fmt.Fprintln(a.stdout, "分析结果已保存到:")
	fmt.Fprintf(a.stdout, "  - 分析文件: %s\n", filepath.Join(a.cfg.Storage.AnalysisDir, report.Date+".json"))
	fmt.Fprintf(a.stdout, "  - 结果文件: %s\n", filepath.Join(a.cfg.Storage.ResultsDir, report.Date+".md"))
	return nil
}

func runQuery(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("query")
	date := fs.String("date", "", "日期 YYYYMMDD")
	format := fs.String("format", "text", "输出格式: text|json|markdown")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	d, err := requireDate(*date, false)
	if err != nil {
		return err
	}
	f, err := storage.ParseFormat(*format)
	if err != nil || f == storage.FormatCSV {
		return usagef("不支持的格式: %s", *format)
	}

	store, _, err := a.openStores()
	if err != nil {
		return err
	}
	report, err := loadReport(store, d)
	if err != nil {
		return err
	}

	out, err := storage.Render(report, f)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, out)
	return nil
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("list")
	limit := fs.Int("limit", 0, "最多返回的条数，0 表示全部")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	_, index, err := a.openStores()
	if err != nil {
		return err
	}

	dates := index.GetDates(*limit)
	if len(dates) == 0 {
		fmt.Fprintln(a.stdout, "没有找到分析记录")
		return nil
	}
	for _, d := range dates {
		fmt.Fprintln(a.stdout, d)
	}
	return nil
}

func runCompare(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("compare")
	metricFlag := fs.String("metric", "all", "对比维度: sentiment|trends|all")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	metric, err := engine.ParseMetric(*metricFlag)
	if err != nil {
		return usagef("%v", err)
	}
	dates := fs.Args()
	if len(dates) < 2 {
		return usagef("至少需要2个日期进行对比")
	}
	for _, d := range dates {
		if !model.ValidateDate(d) {
			return usagef("无效的日期格式: %s", d)
		}
	}

	store, _, err := a.openStores()
	if err != nil {
		return err
	}
	reports := make([]*model.Report, 0, len(dates))
	for _, d := range dates {
		report, err := loadReport(store, d)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	fmt.Fprintln(a.stdout, engine.Compare(reports, metric))
	return nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("export")
	date := fs.String("date", "", "日期 YYYYMMDD")
	format := fs.String("format", "", "导出格式: json|csv|markdown")
	output := fs.String("output", "", "输出文件路径，默认输出到标准输出")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	d, err := requireDate(*date, false)
	if err != nil {
		return err
	}
	f, err := storage.ParseFormat(*format)
	if err != nil || f == storage.FormatText {
		return usagef("不支持的导出格式: %q", *format)
	}

	store, _, err := a.openStores()
	if err != nil {
		return err
	}
	report, err := loadReport(store, d)
	if err != nil {
		return err
	}

	content, err := storage.Render(report, f)
	if err != nil {
		return err
	}

	if *output == "" {
		fmt.Fprintln(a.stdout, content)
		return nil
	}
	if err := os.WriteFile(*output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("写入导出文件失败: %w", err)
	}
	fmt.Fprintf(a.stdout, "导出成功: %s\n", *output)
	return nil
}

func runSendFeishu(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("send-feishu")
	date := fs.String("date", "", "日期 YYYYMMDD，默认今天")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	d, err := requireDate(*date, true)
	if err != nil {
		return err
	}

	store, _, err := a.openStores()
	if err != nil {
		return err
	}
	report, err := loadReport(store, d)
	if err != nil {
		fmt.Fprintf(a.stderr, "请先运行分析命令: news_analysis analyze -date %s\n", d)
		return err
	}

	if !a.cfg.Feishu.Enabled {
		return fmt.Errorf("飞书通知未启用，请设置 FEISHU_ENABLED=true")
	}
	if a.cfg.Feishu.WebhookURL == "" {
		return fmt.Errorf("飞书 Webhook URL 未配置，请设置 FEISHU_WEBHOOK_URL")
	}

	if !a.newNotifier().Notify(ctx, report) {
		return fmt.Errorf("飞书消息发送失败，请查看日志")
	}
	fmt.Fprintf(a.stdout, "✅ 飞书消息发送成功！日期: %s\n", d)
	return nil
}

func runSchedule(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("schedule")
	now := fs.Bool("now", false, "启动时立即执行一次")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	e, cleanup, err := a.newEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	loc := a.cfg.Schedule.Location()
	timeout := a.cfg.LLM.RequestTimeout() * 3
	job := scheduler.NewDailyAnalysisJob(e, loc, timeout)

	s := scheduler.New(ctx, loc)
	if err := s.AddJob(a.cfg.Schedule.Cron, job); err != nil {
		return usagef("无效的 cron 表达式 %q: %v", a.cfg.Schedule.Cron, err)
	}

	if *now {
		if err := s.RunNow(job); err != nil {
			logger.Log.Errorf("立即执行失败: %v", err)
		}
	}

	s.Start()
	logger.Log.Infof("下次执行时间: %s", s.Next().In(loc).Format(time.DateTime))
	<-ctx.Done()
	s.Stop()
	return nil
}

func runServe(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("serve")
	addr := fs.String("addr", a.cfg.Server.Addr, "监听地址")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	store, index, err := a.openStores()
	if err != nil {
		return err
	}

	klog := logger.NewKratosLogger(logger.Log)
	srvCfg := a.cfg.Server
	srvCfg.Addr = *addr
	srv := server.NewHTTPServer(srvCfg, server.NewReportService(store, index, klog), klog)

	kapp := kratos.New(
		kratos.Name("news_analysis"),
		kratos.Context(ctx),
		kratos.Logger(klog),
		kratos.Server(srv),
	)
	return kapp.Run()
}
