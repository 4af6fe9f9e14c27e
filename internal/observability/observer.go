// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Level controls how much an Observer records
type Level int

const (
	LevelOff     Level = 0
	LevelMetrics Level = 1
	LevelDebug   Level = 2
)

// ParseLevel maps "off", "metrics" and "debug" to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none":
		return LevelOff, nil
	case "metrics", "info":
		return LevelMetrics, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelOff, fmt.Errorf("unknown observability level %q", s)
}

// StandardObserver times engine operations and writes one structured
// record per operation. Records never carry matched values.
type StandardObserver struct {
	level         Level
	log           zerolog.Logger
	DebugObserver *DebugObserver // set when level is LevelDebug
}

// NewStandardObserver creates an observer writing through logger
func NewStandardObserver(level Level, logger zerolog.Logger) *StandardObserver {
	o := &StandardObserver{level: level, log: logger}
	if level == LevelDebug {
		o.DebugObserver = &DebugObserver{StandardObserver: o}
	}
	return o
}

// Nop returns an observer that records nothing
func Nop() *StandardObserver {
	return NewStandardObserver(LevelOff, zerolog.Nop())
}

// Level returns the configured level
func (o *StandardObserver) Level() Level {
	return o.level
}

// Logger returns the underlying logger
func (o *StandardObserver) Logger() *zerolog.Logger {
	return &o.log
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, target string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		o.LogOperation(OperationData{
			Component:  component,
			Operation:  operation,
			Target:     target,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// LogOperation logs operation data
func (o *StandardObserver) LogOperation(data OperationData) {
	if o == nil || o.level == LevelOff {
		return
	}
	if data.RequestID == "" {
		data.RequestID = uuid.NewString()
	}

	ev := o.log.Info()
	if o.level == LevelDebug {
		ev = o.log.Debug()
	}
	if !data.Success {
		ev = o.log.Warn()
	}
	ev = ev.Str("component", data.Component).
		Str("operation", data.Operation).
		Str("request_id", data.RequestID).
		Int64("duration_ms", data.DurationMs).
		Bool("success", data.Success)
	if data.Target != "" {
		ev = ev.Str("target", data.Target)
	}
	if data.Error != "" {
		ev = ev.Str("error", data.Error)
	}
	if len(data.Metadata) > 0 {
		ev = ev.Fields(data.Metadata)
	}
	ev.Msg("operation")
}

// OperationData is one timed operation
type OperationData struct {
	Component  string                 `json:"component"`
	Operation  string                 `json:"operation"`
	RequestID  string                 `json:"request_id"`
	Target     string                 `json:"target,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
