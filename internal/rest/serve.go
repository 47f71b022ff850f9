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

// Package rest serves slant range conversion jobs over HTTP.
package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	"github.com/mlnoga/slantrange/internal/metrics"
	"github.com/mlnoga/slantrange/internal/ops"
	"github.com/mlnoga/slantrange/web"
)

// Listens and serves on the given address until the server fails
func Serve(addr, version string, maxThreads int) error {
	return NewRouter(version, maxThreads).Run(addr)
}

// Returns the HTTP handler for the API and the metrics endpoint
func NewRouter(version string, maxThreads int) *gin.Engine {
	r := gin.Default()
	r.Use(metrics.Middleware())
	r.GET("/", getIndex)
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/info", getInfo(version, maxThreads))
			v1.POST("/job", postJob(maxThreads))
		}
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	return r
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func getInfo(version string, maxThreads int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":       version,
			"cpu":           cpuid.CPU.BrandName,
			"physicalCores": cpuid.CPU.PhysicalCores,
			"logicalCores":  cpuid.CPU.LogicalCores,
			"avx2":          cpuid.CPU.AVX2(),
			"memoryMB":      memory.TotalMemory() / 1024 / 1024,
			"maxThreads":    maxThreads,
			"goMaxProcs":    runtime.GOMAXPROCS(0),
		})
	}
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Serializes writes of concurrent operators into the response, flushing each one
type flushWriter struct {
	mutex sync.Mutex
	w     gin.ResponseWriter
}

func (fw *flushWriter) Write(p []byte) (n int, err error) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	n, err = fw.w.Write(p)
	fw.w.Flush()
	return n, err
}

// Runs a JSON operator sequence, streaming the log as plain text.
// Paths are restricted to the current directory tree
func postJob(maxThreads int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var seq ops.OpSequence
		if err := c.ShouldBindJSON(&seq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(seq.Steps) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "job has no steps"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/plain")
		c.Writer.WriteHeader(http.StatusOK)
		logWriter := &flushWriter{w: c.Writer}

		if err := printArgs(logWriter, "Arguments:\n", "\n", &seq); err != nil {
			fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
			return
		}

		ctx := ops.NewContext(logWriter, maxThreads)
		ctx.RestrictPaths = true
		promises, err := seq.MakePromises(nil, ctx)
		if err != nil {
			fmt.Fprintf(logWriter, "error: %s\n", err.Error())
			return
		}
		if _, err = ops.MaterializeAll(promises, ctx.MaxThreads, true); err != nil {
			fmt.Fprintf(logWriter, "error: %s\n", err.Error())
			return
		}
		fmt.Fprintf(logWriter, "Done.\n")
	}
}
