package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "messenger"

// UnmatchedRoute labels requests that hit no registered route, so raw paths
// never become label values.
const UnmatchedRoute = "unmatched"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route template and status code.",
	}, []string{"method", "route", "status"})

	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route template.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route"})

	httpRateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-caller rate limiter.",
	}, []string{"route"})

	grpcRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "grpc",
		Name:      "requests_total",
		Help:      "Unary gRPC calls by full method and status code.",
	}, []string{"method", "code"})

	messagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chat",
		Name:      "messages_sent_total",
		Help:      "Messages stored, by chat kind.",
	}, []string{"chat_kind"})

	domainErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "domain",
		Name:      "errors_total",
		Help:      "Operations rejected with a domain error, by operation and kind.",
	}, []string{"operation", "kind"})

	publishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "amqp",
		Name:      "publish_failures_total",
		Help:      "Events the broker refused, by routing key.",
	}, []string{"routing_key"})
)

func init() {
	prometheus.MustRegister(
		httpRequests,
		httpLatency,
		httpRateLimited,
		grpcRequests,
		messagesSent,
		domainErrors,
		publishFailures,
	)
}

// RouteLabel returns the matched route template for c.
func RouteLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return UnmatchedRoute
}

// HTTPMetricsMiddleware counts every request and observes its latency.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := RouteLabel(c)
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// GRPCServerMetricsUnaryInterceptor counts unary calls by method and code.
func GRPCServerMetricsUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		grpcRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

func IncRateLimited(route string) {
	httpRateLimited.WithLabelValues(route).Inc()
}

// IncMessageSent counts a stored message; kind is "dm" or "group".
func IncMessageSent(kind string) {
	messagesSent.WithLabelValues(kind).Inc()
}

func IncDomainError(operation, kind string) {
	domainErrors.WithLabelValues(operation, kind).Inc()
}

func IncPublishFailure(routingKey string) {
	publishFailures.WithLabelValues(routingKey).Inc()
}
