package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHTTPMetricsUseRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware())
	r.GET("/chats/:chat_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	matched := httpRequests.WithLabelValues(http.MethodGet, "/chats/:chat_id", "200")
	unmatched := httpRequests.WithLabelValues(http.MethodGet, UnmatchedRoute, "404")
	beforeMatched := testutil.ToFloat64(matched)
	beforeUnmatched := testutil.ToFloat64(unmatched)

	for _, path := range []string{"/chats/1", "/chats/2", "/nope/3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, beforeMatched+2, testutil.ToFloat64(matched))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
}

func TestGRPCInterceptorCountsByCode(t *testing.T) {
	interceptor := GRPCServerMetricsUnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	ok := grpcRequests.WithLabelValues(info.FullMethod, codes.OK.String())
	unavailable := grpcRequests.WithLabelValues(info.FullMethod, codes.Unavailable.String())
	beforeOK := testutil.ToFloat64(ok)
	beforeUnavailable := testutil.ToFloat64(unavailable)

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "up", nil
	})
	require.NoError(t, err)
	_, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.Unavailable, "db down")
	})
	require.Error(t, err)

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeUnavailable+1, testutil.ToFloat64(unavailable))
}
