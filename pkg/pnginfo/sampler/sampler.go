// Package sampler maps internal sampler and scheduler identifiers to the
// display names used by image-sharing sites.
package sampler

// Scheduler identifiers with special handling.
const (
	SchedulerNormal      = "normal"
	SchedulerKarras      = "karras"
	SchedulerExponential = "exponential"
)

var displayNames = map[string]string{
	"euler":              "Euler",
	"euler_ancestral":    "Euler a",
	"heun":               "Heun",
	"dpm_2":              "DPM2",
	"dpm_2_ancestral":    "DPM2 a",
	"lms":                "LMS",
	"dpm_fast":           "DPM fast",
	"dpm_adaptive":       "DPM adaptive",
	"dpmpp_2s_ancestral": "DPM++ 2S a",
	"dpmpp_sde":          "DPM++ SDE",
	"dpmpp_sde_gpu":      "DPM++ SDE",
	"dpmpp_2m":           "DPM++ 2M",
	"dpmpp_2m_sde":       "DPM++ 2M SDE",
	"dpmpp_2m_sde_gpu":   "DPM++ 2M SDE",
	"dpmpp_3m_sde":       "DPM++ 3M SDE",
	"dpmpp_3m_sde_gpu":   "DPM++ 3M SDE",
	"ddim":               "DDIM",
	"plms":               "PLMS",
	"uni_pc":             "UniPC",
	"uni_pc_bh2":         "UniPC",
	"lcm":                "LCM",
}

// knownExponential lists the samplers that have an Exponential display
// variant. Any other mapped sampler drops the exponential scheduler.
var knownExponential = map[string]bool{
	"DPM++ 2M SDE": true,
	"DPM++ 3M SDE": true,
}

// Lookup returns the display name of a sampler identifier.
func Lookup(name string) (string, bool) {
	d, ok := displayNames[name]
	return d, ok
}

// DisplayName returns the display name for a sampler/scheduler pair, or ""
// when sampler is empty. An empty scheduler is treated as normal. Karras
// appends " Karras", exponential appends " Exponential" where that variant
// exists, and any other non-default scheduler appends "_" plus its name.
//
//	DisplayName("dpmpp_2m", "karras")      == "DPM++ 2M Karras"
//	DisplayName("dpmpp_2m", "exponential") == "DPM++ 2M"
//	DisplayName("dpmpp_2m", "simple")      == "DPM++ 2M_simple"
//	DisplayName("ipndm", "karras")         == "ipndm_karras"
func DisplayName(sampler, scheduler string) string {
	if sampler == "" {
		return ""
	}
	mapped, ok := displayNames[sampler]
	if !ok {
		return sampler + unmappedSuffix(scheduler)
	}
	switch scheduler {
	case SchedulerKarras:
		return mapped + " Karras"
	case SchedulerExponential:
		if knownExponential[mapped] {
			return mapped + " Exponential"
		}
		return mapped
	}
	return mapped + unmappedSuffix(scheduler)
}

// unmappedSuffix is the scheduler suffix for samplers without a display
// name: "_" plus the scheduler, none for normal.
func unmappedSuffix(scheduler string) string {
	if scheduler == "" || scheduler == SchedulerNormal {
		return ""
	}
	return "_" + scheduler
}

// RawName returns the internal sampler name with the scheduler appended
// unless it is the default.
//
//	RawName("euler", "karras") == "euler_karras"
func RawName(sampler, scheduler string) string {
	if sampler == "" {
		return ""
	}
	return sampler + unmappedSuffix(scheduler)
}
