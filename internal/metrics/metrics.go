// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package metrics exports prometheus metrics for conversions and the REST API.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mlnoga/slantrange/internal/sr"
)

var (
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slantrange_conversions_total",
			Help: "Total number of slant range conversions by result.",
		},
		[]string{"result"},
	)

	conversionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slantrange_conversion_duration_seconds",
			Help:    "Slant range conversion duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	maxSquaredError = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slantrange_max_squared_error",
			Help:    "Maximum squared interpolation error per conversion, in squared pixels.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 9),
		},
	)

	avgSquaredError = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slantrange_avg_squared_error",
			Help:    "Average squared interpolation error per conversion, in squared pixels.",
			Buckets: prometheus.ExponentialBuckets(1e-8, 10, 9),
		},
	)

	outputPixels = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "slantrange_output_pixels_total",
			Help: "Total number of slant range pixels written.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slantrange_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slantrange_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(conversionsTotal)
	prometheus.MustRegister(conversionSeconds)
	prometheus.MustRegister(maxSquaredError)
	prometheus.MustRegister(avgSquaredError)
	prometheus.MustRegister(outputPixels)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result label for a conversion outcome
func resultLabel(res *sr.Result, err error) string {
	switch {
	case err == nil && res.Copied:
		return "copied"
	case err == nil && len(res.Warnings) > 0:
		return "warning"
	case err == nil:
		return "ok"
	case errors.Is(err, sr.ErrEmptyImage):
		return "empty_image"
	case errors.Is(err, sr.ErrUnsupportedGeometry):
		return "unsupported_geometry"
	case errors.Is(err, sr.ErrUnresolvableGeometry):
		return "unresolvable_geometry"
	case errors.Is(err, sr.ErrGridFitInconsistency):
		return "grid_fit_inconsistency"
	case errors.Is(err, sr.ErrAccuracyExceeded):
		return "accuracy_exceeded"
	case errors.Is(err, sr.ErrInsufficientMemory):
		return "insufficient_memory"
	default:
		return "error"
	}
}

// Records the outcome of a conversion
func ObserveConversion(res *sr.Result, err error, duration time.Duration) {
	conversionsTotal.WithLabelValues(resultLabel(res, err)).Inc()
	conversionSeconds.Observe(duration.Seconds())
	if err != nil || res.Copied {
		return
	}
	maxSquaredError.Observe(res.Report.MaxSquaredError)
	avgSquaredError.Observe(res.Report.AverageSquaredError)
	outputPixels.Add(float64(res.Plan.OutLines) * float64(res.Plan.OutSamples))
}

// Middleware records request count and duration for each request.
// Routes are labelled by their pattern to bound cardinality
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "other"
		}
		code := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(path, c.Request.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
