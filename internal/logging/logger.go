// Package logging provides categorized structured logging for standforge.
// Each pipeline subsystem logs through its own named zap logger so a single
// run can be filtered per stage (dimension, compress, hierarchy, ...).
package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Category identifies a pipeline subsystem.
type Category string

const (
	CategoryDimension Category = "dimension" // Geometric fit and packing analysis
	CategoryFormData  Category = "formdata"  // Requirement extraction and validation
	CategoryQuality   Category = "quality"   // Prompt quality assessment
	CategoryCompress  Category = "compress"  // Budgeted prompt compression
	CategoryHierarchy Category = "hierarchy" // Source-of-truth orchestration
	CategoryVisual    Category = "visual"    // Visual-context collaborator calls
	CategoryQA        Category = "qa"        // End-to-end QA battery
	CategoryCache     Category = "cache"     // Memoization cache
	CategoryConfig    Category = "config"    // Configuration loading and reload
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Initialize installs the process-wide root logger. debug selects the zap
// development config (console encoder, Debug level); otherwise the production
// config is used. Safe to call more than once; later calls replace the root
// and drop cached category loggers.
func Initialize(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	SetRoot(l)
	return nil
}

// SetRoot replaces the root logger. Used by Initialize and by tests that
// want to capture output.
func SetRoot(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	root = l
	loggers = make(map[Category]*zap.SugaredLogger)
}

// Get returns the sugared logger for a category, creating it on first use.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	l := root.Named(string(cat)).Sugar()
	loggers[cat] = l
	return l
}

// Nop returns a no-op sugared logger for tests and optional dependencies.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Sync flushes buffered log entries. Best-effort; errors from stderr syncing
// are ignored by callers at process exit.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return root.Sync()
}
