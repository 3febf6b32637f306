package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/TheFellow/fluid/pkg/fluid"
)

// evalContext exposes the built-in settings as `defaults` and a handful of
// numeric functions.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"defaults": settingsValue(fluid.DefaultSettings()),
		},
		Functions: map[string]function.Function{
			"min":   stdlib.MinFunc,
			"max":   stdlib.MaxFunc,
			"abs":   stdlib.AbsoluteFunc,
			"floor": stdlib.FloorFunc,
			"ceil":  stdlib.CeilFunc,
		},
	}
}

// settingsValue mirrors the attribute names of the settings block.
func settingsValue(s fluid.Settings) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"delta_time":               cty.NumberFloatVal(s.DeltaTime),
		"viscosity":                cty.NumberFloatVal(s.Viscosity),
		"diffusion_rate":           cty.NumberFloatVal(s.DiffusionRate),
		"temp_diffusion_rate":      cty.NumberFloatVal(s.TempDiffusionRate),
		"diffusion_method":         cty.StringVal(s.DiffusionMethod.String()),
		"advection_method":         cty.StringVal(s.AdvectionMethod.String()),
		"interpolation_method":     cty.StringVal(s.InterpolationMethod.String()),
		"advection_steps":          cty.NumberIntVal(int64(s.AdvectionSteps)),
		"incompressibility_method": cty.StringVal(s.IncompressibilityMethod.String()),
		"buoyancy_alpha":           cty.NumberFloatVal(s.BuoyancyAlpha),
		"buoyancy_beta":            cty.NumberFloatVal(s.BuoyancyBeta),
		"vorticity_confinement":    cty.NumberFloatVal(s.VorticityConfinement),
		"add_density":              cty.NumberFloatVal(s.AddDensity),
		"add_temperature":          cty.NumberFloatVal(s.AddTemperature),
	})
}
