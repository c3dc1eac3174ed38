package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/iWorld-y/news_analysis/internal/config"
	"github.com/iWorld-y/news_analysis/internal/logger"
	"github.com/iWorld-y/news_analysis/internal/model"
	"github.com/iWorld-y/news_analysis/internal/news"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError 参数或日期格式错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"analyze":     {"分析指定日期的新闻并生成报告", runAnalyze},
	"query":       {"查询指定日期的分析报告", runQuery},
	"list":        {"列出已分析的日期", runList},
	"compare":     {"对比多个日期的分析结果", runCompare},
	"export":      {"导出分析报告", runExport},
	"send-feishu": {"将分析报告发送到飞书", runSendFeishu},
	"schedule":    {"按 cron 表达式每日自动分析", runSchedule},
	"serve":       {"启动只读报告 HTTP 服务", runServe},
}

// app 单次命令执行的上下文
type app struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("news_analysis", flag.ContinueOnError)
	global.SetOutput(stderr)
	confPath := global.String("conf", config.DefaultPath, "config path, eg: -conf configs/config.yaml")
	global.Usage = func() { printUsage(stderr) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return exitUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "错误: 未知命令 %q\n", rest[0])
		printUsage(stderr)
		return exitUsage
	}

	cfg, err := config.Load(*confPath)
	if err != nil {
		fmt.Fprintf(stderr, "错误: 无法加载配置: %v\n", err)
		return exitFailure
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(stderr, "错误: 无法初始化日志: %v\n", err)
		return exitFailure
	}

	a := &app{cfg: cfg, stdout: stdout, stderr: stderr}
	if err := cmd.run(ctx, a, rest[1:]); err != nil {
		return a.fail(rest[0], err)
	}
	return exitOK
}

// fail 输出错误并映射为退出码
func (a *app) fail(name string, err error) int {
	var uerr *usageError
	var verr *model.ValidationError
	switch {
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintf(a.stderr, "错误: %v\n", err)
		return exitUsage
	case errors.As(err, &verr) && verr.Field == "date":
		fmt.Fprintf(a.stderr, "错误: %v\n", err)
		return exitUsage
	case errors.Is(err, news.ErrInputNotFound):
		fmt.Fprintf(a.stderr, "错误: 文件不存在 - %v\n", err)
		return exitFailure
	}

	logger.Log.WithField("command", name).Errorf("命令执行失败: %v", err)
	fmt.Fprintf(a.stderr, "错误: %v\n", err)
	return exitFailure
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("用法: news_analysis [-conf path] <command> [flags]\n\n命令:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-12s %s\n", name, commands[name].summary)
	}
	fmt.Fprint(w, b.String())
}

// newFlagSet 子命令参数解析，错误输出到 stderr
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usagef("%v", err)
	}
	return nil
}

// requireDate 校验日期参数，allowEmpty 为 true 时空值取今天
func requireDate(date string, allowEmpty bool) (string, error) {
	if date == "" {
		if allowEmpty {
			return model.Today(), nil
		}
		return "", usagef("缺少 -date 参数")
	}
	if !model.ValidateDate(date) {
		return "", usagef("无效的日期格式: %s. 期望格式: YYYYMMDD", date)
	}
	return date, nil
}
