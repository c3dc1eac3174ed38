package server

import (
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/news_analysis/internal/config"
	"github.com/iWorld-y/news_analysis/internal/model"
	"github.com/iWorld-y/news_analysis/internal/storage"
)

// ReportReader 按日期读取报告，不存在时返回 (nil, nil)
type ReportReader interface {
	Load(date string) (*model.Report, error)
}

// DateLister 已分析日期索引
type DateLister interface {
	GetDates(limit int) []string
	GetLatest() string
}

// ReportService 只读报告接口
type ReportService struct {
	reports ReportReader
	index   DateLister
	log     *log.Helper
}

func NewReportService(reports ReportReader, index DateLister, logger log.Logger) *ReportService {
	return &ReportService{reports: reports, index: index, log: log.NewHelper(logger)}
}

// DateList GET /api/reports 的响应
type DateList struct {
	Dates  []string `json:"dates"`
	Latest string   `json:"latest"`
}

// NewHTTPServer 注册报告查询路由
func NewHTTPServer(c config.ServerConfig, s *ReportService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)

	r := srv.Route("/")
	r.GET("/healthz", s.Health)
	r.GET("/api/reports", s.ListReports)
	r.GET("/api/reports/{date}", s.GetReport)
	r.GET("/api/reports/{date}/markdown", s.GetReportMarkdown)

	return srv
}

func (s *ReportService) Health(ctx http.Context) error {
	return ctx.String(200, "ok")
}

func (s *ReportService) ListReports(ctx http.Context) error {
	limit := 0
	if v := ctx.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return errors.BadRequest("INVALID_LIMIT", "limit must be a non-negative integer")
		}
		limit = n
	}

	dates := s.index.GetDates(limit)
	if dates == nil {
		dates = []string{}
	}
	return ctx.Result(200, &DateList{Dates: dates, Latest: s.index.GetLatest()})
}

func (s *ReportService) GetReport(ctx http.Context) error {
	report, err := s.load(ctx.Vars().Get("date"))
	if err != nil {
		return err
	}
	return ctx.Result(200, report)
}

func (s *ReportService) GetReportMarkdown(ctx http.Context) error {
	report, err := s.load(ctx.Vars().Get("date"))
	if err != nil {
		return err
	}
	content, err := storage.Render(report, storage.FormatMarkdown)
	if err != nil {
		return errors.InternalServer("RENDER_FAILED", err.Error())
	}
	return ctx.Blob(200, "text/markdown; charset=utf-8", []byte(content))
}

func (s *ReportService) load(date string) (*model.Report, error) {
	if !model.ValidateDate(date) {
		return nil, errors.BadRequest("INVALID_DATE", "date must be YYYYMMDD: "+date)
	}

	report, err := s.reports.Load(date)
	if err != nil {
		s.log.Errorf("加载报告失败 [%s]: %v", date, err)
		return nil, errors.InternalServer("LOAD_FAILED", "failed to load report")
	}
	if report == nil {
		return nil, errors.NotFound("REPORT_NOT_FOUND", "report not found: "+date)
	}
	return report, nil
}
