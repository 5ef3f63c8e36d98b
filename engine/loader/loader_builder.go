package loader

import (
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/charmbracelet/log"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithTranslationOnlyOffsets is an option builder that keeps only the translation part of
// every bone offset, discarding rotation and scale from the inverse bind matrices.
//
// Returns:
//   - LoaderBuilderOption: a function that enables translation-only offsets
func WithTranslationOnlyOffsets() LoaderBuilderOption {
	return func(l *loader) {
		l.translationOnlyOffsets = true
	}
}

// WithLogger is an option builder that sets the logger used for import statistics.
//
// Parameters:
//   - lg: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(lg *log.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - m: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, m *model.ImportedModel) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = m
	}
}
