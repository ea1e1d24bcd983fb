package parser

import (
	"github.com/dshills/chunklink/pkg/types"
)

// esModuleMarker is the export name a foreign module uses to declare that it
// follows native namespace semantics
const esModuleMarker = "__esModule"

// detectInteropMarkers derives interop facts from the export list
func detectInteropMarkers(mod *types.Module) {
	// Only foreign modules can self-identify as native
	if mod.Format != types.FormatForeign {
		return
	}

	checkESModuleMarker(mod)
}

// checkESModuleMarker treats an included __esModule export as the native marker
func checkESModuleMarker(mod *types.Module) {
	if mod.NativeMarker {
		return
	}
	if e, ok := mod.Export(esModuleMarker); ok && e.Included {
		mod.NativeMarker = true
	}
}
