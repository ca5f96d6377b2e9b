package gatehttp

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"uigate/internal/gateway"
	"uigate/internal/gateway/provider"
)

// bindAndRun 统一处理：绑定 JSON → 执行操作 → 渲染结果或分类错误。
func bindAndRun[In any, Out any](c *gin.Context, run func(In) (Out, error)) {
	var in In
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errBody("invalid request body: "+err.Error(), "bad_request"))
		return
	}
	out, err := run(in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func errBody(message, cause string) gin.H {
	return gin.H{"error": gin.H{"message": message, "cause": cause}}
}

// renderError 把网关错误映射到 HTTP 状态：
// 入参问题 400，上游鉴权/不可达/失败 502，超时 504，配置缺失 503。
// 低置信兜底结果不会走到这里，它们是正常的 200。
func renderError(c *gin.Context, err error) {
	if errors.Is(err, gateway.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, errBody(err.Error(), "bad_request"))
		return
	}
	ce := provider.AsClassified(err)
	status := http.StatusBadGateway
	switch ce.Cause {
	case provider.CauseRateLimit:
		status = http.StatusTooManyRequests
	case provider.CauseTimeout, provider.CauseCanceled:
		status = http.StatusGatewayTimeout
	case provider.CauseConfig:
		status = http.StatusServiceUnavailable
	case provider.CauseBreakerOpen:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, errBody(err.Error(), string(ce.Cause)))
}

func (s *Server) registerOperations(group *gin.RouterGroup) {
	group.POST("/commands", func(c *gin.Context) {
		bindAndRun(c, func(in gateway.CommandsInput) (gateway.CommandsResult, error) {
			return s.gw.Commands(c.Request.Context(), in)
		})
	})
	group.POST("/recover", func(c *gin.Context) {
		bindAndRun(c, func(in gateway.RecoverInput) (gateway.RecoverResult, error) {
			return s.gw.Recover(c.Request.Context(), in)
		})
	})
	group.POST("/check/task", func(c *gin.Context) {
		bindAndRun(c, func(in gateway.TaskCheckInput) (taskCheckResponse, error) {
			res, err := s.gw.TaskCheck(c.Request.Context(), in)
			return taskCheckResponse{
				Success:    res.Passed,
				Reason:     res.Reason,
				Confidence: res.Confidence,
				Fallback:   res.Fallback,
			}, err
		})
	})
	group.POST("/scenarios", func(c *gin.Context) {
		bindAndRun(c, func(in gateway.ScenariosInput) (any, error) {
			return s.gw.Scenarios(c.Request.Context(), in)
		})
	})
	group.POST("/check/assert", func(c *gin.Context) {
		bindAndRun(c, func(in gateway.AssertInput) (any, error) {
			return s.gw.Assert(c.Request.Context(), in)
		})
	})
	group.POST("/locate/text", func(c *gin.Context) {
		bindAndRun(c, func(in gateway.TextLocateInput) (any, error) {
			return s.gw.LocateText(c.Request.Context(), in)
		})
	})
	group.POST("/locate/image", func(c *gin.Context) {
		bindAndRun(c, func(in gateway.ImageLocateInput) (any, error) {
			return s.gw.LocateImage(c.Request.Context(), in)
		})
	})
}

// taskCheckResponse 对外字段名用 success（前后校验语义），内部仍是 CheckResult。
type taskCheckResponse struct {
	Success    bool    `json:"success"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback,omitempty"`
}
