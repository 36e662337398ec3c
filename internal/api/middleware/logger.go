package middleware

import (
	"fmt"
	"io"
	"regexp"

	"github.com/gin-gonic/gin"
)

var tokenParam = regexp.MustCompile(`([?&]token=)[^&]*`)

// AccessLog is gin's request logger with ?token= values masked. A nil out
// writes to gin.DefaultWriter.
func AccessLog(out io.Writer) gin.HandlerFunc {
	if out == nil {
		out = gin.DefaultWriter
	}
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output: out,
		Formatter: func(p gin.LogFormatterParams) string {
			return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
				p.TimeStamp.Format("2006/01/02 - 15:04:05"),
				p.StatusCode,
				p.Latency,
				p.ClientIP,
				p.Method,
				maskToken(p.Path),
				p.ErrorMessage,
			)
		},
	})
}

func maskToken(path string) string {
	return tokenParam.ReplaceAllString(path, "${1}[REDACTED]")
}
