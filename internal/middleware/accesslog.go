package middleware

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
)

// combinedTimeLayout is the Apache log timestamp, e.g. 10/Oct/2000:13:55:36 -0700.
const combinedTimeLayout = "02/Jan/2006:15:04:05 -0700"

// AccessLog appends one Apache combined-format line per request to out.
func AccessLog(out io.Writer) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: CombinedLogFormatter,
		Output:    out,
	})
}

// CombinedLogFormatter renders a request in Apache combined log format.
func CombinedLogFormatter(p gin.LogFormatterParams) string {
	size := "-"
	if p.BodySize > 0 {
		size = fmt.Sprint(p.BodySize)
	}

	proto, referer, agent := "HTTP/1.1", "-", "-"
	if p.Request != nil {
		proto = p.Request.Proto
		if r := p.Request.Referer(); r != "" {
			referer = r
		}
		if ua := p.Request.UserAgent(); ua != "" {
			agent = ua
		}
	}

	return fmt.Sprintf("%s - - [%s] \"%s %s %s\" %d %s %q %q\n",
		p.ClientIP,
		p.TimeStamp.Format(combinedTimeLayout),
		p.Method,
		p.Path,
		proto,
		p.StatusCode,
		size,
		referer,
		agent,
	)
}
