package planex

import (
	"log/slog"

	"github.com/citydesk/planex/extractor"
	"github.com/citydesk/planex/model"
)

// pipelineOptions holds configuration accumulated by the fluent chain.
type pipelineOptions struct {
	// Measurement interpretation. scale, when positive, overrides the
	// unit-derived factor; calibration from dimension annotations or a
	// scale notation fills in when neither is explicit.
	unit  model.Unit
	scale float64

	// Geometry tuning. Zero means the analyzer default.
	tolerance   float64
	minRoomArea float64

	// Rasterization.
	dpi      int
	renderer extractor.Renderer

	// Recognition.
	languages     string
	minConfidence float64

	logger *slog.Logger
}

func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{
		unit:          model.Millimeter,
		dpi:           150,
		minConfidence: 0.5,
	}
}

// clone creates a copy of pipelineOptions. All fields are values or
// shared handles, so a field copy suffices; having the method keeps
// chain immutability explicit at the call sites.
func (o pipelineOptions) clone() pipelineOptions {
	return o
}
