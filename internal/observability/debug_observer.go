// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"strings"
	"sync"
	"time"
)

// DebugObserver provides detailed step-by-step debugging
type DebugObserver struct {
	*StandardObserver
	mu     sync.Mutex
	indent int
}

func (d *DebugObserver) prefix() string {
	return strings.Repeat("  ", d.indent)
}

// StartStep begins a processing step with indentation
func (d *DebugObserver) StartStep(component, step, target string) func(success bool, details string) {
	start := time.Now()

	d.mu.Lock()
	d.log.Debug().Str("component", component).Str("target", target).Msg(d.prefix() + "🔄 " + step)
	d.indent++
	d.mu.Unlock()

	return func(success bool, details string) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.indent--

		mark, verb := "✅ ", " completed"
		if !success {
			mark, verb = "❌ ", " failed"
		}
		d.log.Debug().
			Str("component", component).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("details", details).
			Msg(d.prefix() + mark + step + verb)
	}
}

// LogDetail logs a detail within the current step
func (d *DebugObserver) LogDetail(component, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log.Debug().Str("component", component).Msg(d.prefix() + "   → " + detail)
}

// LogMetric logs a metric value
func (d *DebugObserver) LogMetric(component, metric string, value interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log.Debug().Str("component", component).Interface(metric, value).Msg(d.prefix() + "   📊 " + metric)
}
