package handlers

import (
	"context"
	"errors"
	"net"

	"github.com/Abhinav5603/generator-1/internal/llm"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUnavailable reports failures of a dependency rather than of this
// service: model outages, timeouts, and connections that never opened.
func isUnavailable(err error) bool {
	if errors.Is(err, llm.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// respondDependencyError is the last branch of every handler's error switch.
// The cause is logged on the gin context and never returned.
func respondDependencyError(ctx *gin.Context, err error, message string) {
	_ = ctx.Error(err)

	if isUnavailable(err) {
		RespondServiceUnavailable(ctx, message)
		return
	}
	RespondInternal(ctx, message)
}
