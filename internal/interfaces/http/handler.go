// @title           Trade Feed API
// @version         1.0
// @description     Trade record store with filtered search and a live recent-activity summary feed
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	appinterfaces "tradefeed/internal/application/interfaces"
	apptrades "tradefeed/internal/application/service/trades"
	trade "tradefeed/internal/domain/entity/trade"
	interfaces "tradefeed/internal/domain/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "tradefeed/docs"
)

const (
	tradesBasePath  = "/api/v1/trades"
	summaryFeedPath = "/ws/trade-summary"
)

// TradeService is the part of the trade service the HTTP layer needs.
type TradeService interface {
	Save(ctx context.Context, record *trade.Record) (*trade.Record, error)
	Search(ctx context.Context, criteria trade.SearchCriteria, page trade.PageRequest) (*trade.SearchResult, error)
}

var _ TradeService = (*apptrades.Service)(nil)

type Dependencies struct {
	Trades  TradeService
	Summary interfaces.SummaryProvider
	// Stream serves the live summary feed. The route is skipped when nil.
	Stream http.Handler
	// Metrics serves the Prometheus scrape endpoint. The route is skipped when nil.
	Metrics    http.Handler
	Cache      *redis.Client
	CacheTTL   time.Duration
	CORSOrigin string
	Logger     *logrus.Logger
}

type Handler struct {
	router   *gin.Engine
	trades   TradeService
	summary  interfaces.SummaryProvider
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *logrus.Entry
}

var _ appinterfaces.HTTPHandler = (*Handler)(nil)

func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), cors(deps.CORSOrigin))

	h := &Handler{
		router:   router,
		trades:   deps.Trades,
		summary:  deps.Summary,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		logger:   logger.WithField("component", "http"),
	}
	h.registerRoutes(deps)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes(deps Dependencies) {
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	h.router.GET("/health", h.health)
	if deps.Metrics != nil {
		h.router.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	if deps.Stream != nil {
		h.router.GET(summaryFeedPath, gin.WrapH(deps.Stream))
	}

	trades := h.router.Group(tradesBasePath)
	{
		trades.POST("", h.saveTrade)
		trades.GET("", h.cacheMiddleware(), h.searchTrades)
		trades.GET("/summary/recent-hour", h.recentHourSummary)
	}
}

// health reports liveness
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// saveTrade stores a trade record
// @Summary      Save trade
// @Description  Store a trade record. A missing tradeId is assigned; an existing tradeId is overwritten.
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        trade  body      trade.Record  true  "Trade record"
// @Success      201    {object}  trade.Record
// @Failure      400    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /trades [post]
func (h *Handler) saveTrade(c *gin.Context) {
	var record trade.Record
	if err := c.ShouldBindJSON(&record); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	saved, err := h.trades.Save(c.Request.Context(), &record)
	if err != nil {
		if isValidationError(err) {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		h.logger.WithError(err).Error("save trade failed")
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// searchTrades searches trade records
// @Summary      Search trades
// @Description  Filter trades; every parameter is optional. Unknown enum values are ignored. The total is capped at 1000.
// @Tags         trades
// @Produce      json
// @Param        userId     query     string  false  "Exact user id"
// @Param        symbol     query     string  false  "BTC or USDT"
// @Param        side       query     string  false  "BUY or SELL"
// @Param        orderType  query     string  false  "LIMIT or MARKET"
// @Param        status     query     string  false  "FILLED or PARTIAL"
// @Param        exchange   query     string  false  "Exact exchange name"
// @Param        notesKeyword  query  string  false  "Text matched against notes"
// @Param        keyword    query     string  false  "Alias of notesKeyword"
// @Param        page       query     int     false  "Page number, from 1"  default(1)
// @Param        size       query     int     false  "Page size, at most 1000"  default(20)
// @Success      200        {object}  trade.SearchResult
// @Failure      500        {object}  map[string]string
// @Router       /trades [get]
func (h *Handler) searchTrades(c *gin.Context) {
	criteria := parseCriteria(c)
	page := trade.PageRequest{
		Page: queryInt(c, "page", trade.DefaultPage),
		Size: queryInt(c, "size", trade.DefaultPageSize),
	}
	result, err := h.trades.Search(c.Request.Context(), criteria, page)
	if err != nil {
		h.logger.WithError(err).Error("search trades failed")
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// recentHourSummary aggregates the last hour of trades
// @Summary      Recent hour summary
// @Description  Count and total amount of trades executed in the last hour, or in the hour ending at the latest trade when the last hour is empty.
// @Tags         summary
// @Produce      json
// @Success      200  {object}  summary.Wire
// @Failure      500  {object}  map[string]string
// @Router       /trades/summary/recent-hour [get]
func (h *Handler) recentHourSummary(c *gin.Context) {
	result, err := h.summary.SummarizeRecentHour(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, result.ToWire())
}

func parseCriteria(c *gin.Context) trade.SearchCriteria {
	criteria := trade.SearchCriteria{
		UserID:       c.Query("userId"),
		Exchange:     c.Query("exchange"),
		NotesKeyword: c.Query("notesKeyword"),
	}
	if criteria.NotesKeyword == "" {
		criteria.NotesKeyword = c.Query("keyword")
	}
	if v, err := trade.NewSymbol(c.Query("symbol")); err == nil {
		criteria.Symbol = v
	}
	if v, err := trade.NewSide(c.Query("side")); err == nil {
		criteria.Side = v
	}
	if v, err := trade.NewOrderType(c.Query("orderType")); err == nil {
		criteria.OrderType = v
	}
	if v, err := trade.NewOrderStatus(c.Query("status")); err == nil {
		criteria.Status = v
	}
	return criteria
}

// queryInt falls back to def when the parameter is absent or not a number.
func queryInt(c *gin.Context, key string, def int) int {
	value := c.Query(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}

func isValidationError(err error) bool {
	return errors.Is(err, apptrades.ErrNilTrade) ||
		errors.Is(err, trade.ErrInvalidSymbol) ||
		errors.Is(err, trade.ErrInvalidSide) ||
		errors.Is(err, trade.ErrInvalidOrderType) ||
		errors.Is(err, trade.ErrInvalidOrderStatus)
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
