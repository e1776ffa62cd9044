package model

import (
	"sort"
)

// Channel names of the main-engine telemetry stream. The short identifiers
// are the internal schema; the long names are the DAS export headers they
// map to.
const (
	ChanShaftPower = "ME SHAFT POWER"
	ChanShaftRPM   = "ME RPM"
	ChanFOInTemp   = "ME F.O. IN TEMP."
	ChanExhCyl1    = "ME EXH. GAS OUT TEMP.CYL. NO.1"
	ChanDataTime   = "dataTime"
)

// ChannelRenames maps internal channel identifiers to the human-readable
// headers used by the DAS export and the labeled reference workbook.
var ChannelRenames = map[string]string{
	"ME_CSW_IN_T":             "ME COPT COND CSW IN TEMP",
	"ME_CYL_OIL_IN_T":         "ME CYL. L.O IN TEMP.",
	"ME_EXH_GAS_1_OUT_T":      "ME EXH. GAS OUT TEMP.CYL. NO.1",
	"ME_EXH_GAS_2_OUT_T":      "ME EXH. GAS OUT TEMP.CYL. NO.2",
	"ME_EXH_GAS_3_OUT_T":      "ME EXH. GAS OUT TEMP.CYL. NO.3",
	"ME_EXH_GAS_4_OUT_T":      "ME EXH. GAS OUT TEMP.CYL. NO.4",
	"ME_EXH_GAS_5_OUT_T":      "ME EXH. GAS OUT TEMP.CYL. NO.5",
	"ME_EXH_GAS_6_OUT_T":      "ME EXH. GAS OUT TEMP.CYL. NO.6",
	"ME_EXH_GAS_TC_IN_T":      "ME T/C 1 EXH. GAS IN TEMP.",
	"ME_EXH_GAS_TC_OUT_T":     "ME T/C 1  EXH. GAS OUT TEMP.",
	"ME_FO_IN_P":              "ME F.O IN PRESS",
	"ME_FO_IN_T":              "ME F.O. IN TEMP.",
	"ME_JACKET_CFW_1_OUT_T":   "ME J.C.W OUT HIGH TEMP SLD.CYL.1",
	"ME_JACKET_CFW_2_OUT_T":   "ME J.C.W OUT HIGH TEMP SLD.CYL.2",
	"ME_JACKET_CFW_3_OUT_T":   "ME J.C.W OUT HIGH TEMP SLD.CYL.3",
	"ME_JACKET_CFW_4_OUT_T":   "ME J.C.W OUT HIGH TEMP SLD.CYL.4",
	"ME_JACKET_CFW_5_OUT_T":   "ME J.C.W OUT HIGH TEMP SLD.CYL.5",
	"ME_JACKET_CFW_6_OUT_T":   "ME J.C.W OUT HIGH TEMP SLD.CYL.6",
	"ME_JACKET_CFW_IN_P":      "ME J.C.W IN PRESS",
	"ME_MAIN_LO_IN_P":         "ME L.O IN PRESS",
	"ME_MAIN_LO_IN_T":         "ME L.O IN TEMP.",
	"ME_SCAV_AIR_RECEIV_P":    "SCAV. AIR PRESS IN AIR RECEIVER",
	"ME_SCAV_AIR_RECEIV_T":    "ME SCAV. AIR TEMP.  IN SCAV.",
	"ME_SCAV_AIR_1_BOX_T_SD":  "ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.1 SLD",
	"ME_SCAV_AIR_2_BOX_T_SD":  "ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.2 SLD",
	"ME_SCAV_AIR_3_BOX_T_SD":  "ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.3 SLD",
	"ME_SCAV_AIR_4_BOX_T_SD":  "ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.4 SLD",
	"ME_SCAV_AIR_5_BOX_T_SD":  "ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.5 SLD",
	"ME_SCAV_AIR_6_BOX_T_SD":  "ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.6 SLD",
	"Shaft_Power":             "ME SHAFT POWER",
	"Shaft_RPM":               "ME RPM",
	"dataTime":                "dataTime",
}

// SelectedChannels returns the DAS headers of every channel the pipeline
// consumes, time column included.
func SelectedChannels() []string {
	out := make([]string, 0, len(ChannelRenames))
	seen := make(map[string]bool)
	for _, v := range ChannelRenames {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	sort.Strings(out)
	return out
}

// FeatureChannels returns the numeric channels only, time column excluded.
func FeatureChannels() []string {
	out := []string{}
	for _, c := range SelectedChannels() {
		if c != ChanDataTime {
			out = append(out, c)
		}
	}
	return out
}

// Range is an inclusive physical validity interval for one channel.
type Range struct {
	Min float64
	Max float64
}

// PhysicalRanges declares the plausible sensor range per channel. Values
// strictly outside become missing markers during range validation.
var PhysicalRanges = map[string]Range{
	"ME COPT COND CSW IN TEMP":         {0, 70},
	"ME CYL. L.O IN TEMP.":             {0, 90},
	"ME EXH. GAS OUT TEMP.CYL. NO.1":   {0.1, 600},
	"ME EXH. GAS OUT TEMP.CYL. NO.2":   {0.1, 600},
	"ME EXH. GAS OUT TEMP.CYL. NO.3":   {0.1, 600},
	"ME EXH. GAS OUT TEMP.CYL. NO.4":   {0.1, 600},
	"ME EXH. GAS OUT TEMP.CYL. NO.5":   {0.1, 600},
	"ME EXH. GAS OUT TEMP.CYL. NO.6":   {0.1, 600},
	"ME T/C 1 EXH. GAS IN TEMP.":       {0, 600},
	"ME T/C 1  EXH. GAS OUT TEMP.":     {0, 500},
	"ME F.O IN PRESS":                  {0, 10},
	"ME F.O. IN TEMP.":                 {0, 150},
	"ME J.C.W OUT HIGH TEMP SLD.CYL.1": {0, 90},
	"ME J.C.W OUT HIGH TEMP SLD.CYL.2": {0, 90},
	"ME J.C.W OUT HIGH TEMP SLD.CYL.3": {0, 90},
	"ME J.C.W OUT HIGH TEMP SLD.CYL.4": {0, 90},
	"ME J.C.W OUT HIGH TEMP SLD.CYL.5": {0, 90},
	"ME J.C.W OUT HIGH TEMP SLD.CYL.6": {0, 90},
	"ME J.C.W IN PRESS":                {0, 0.7},
	"ME L.O IN PRESS":                  {0, 0.6},
	"ME L.O IN TEMP.":                  {0, 80},
	"SCAV. AIR PRESS IN AIR RECEIVER":  {-1, 3.5},
	"ME SCAV. AIR TEMP.  IN SCAV.":     {0, 60},
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.1 SLD": {15, 130},
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.2 SLD": {15, 130},
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.3 SLD": {15, 130},
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.4 SLD": {15, 130},
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.5 SLD": {15, 130},
	"ME SCAV. AIR FIRE DET. TEMP. HIGH PISTON CYL. NO.6 SLD": {15, 130},
	"ME SHAFT POWER": {0, 9000},
	"ME RPM":         {-100, 99},
}
