//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"bin2tif/pkg/bin2tif"
)

var (
	lastFrame *bin2tif.ColorFrame
	lastBBox  bin2tif.BoundingBox
)

func main() {
	js.Global().Set("convertBin", js.FuncOf(convertBin))
	js.Global().Set("renderPreview", js.FuncOf(renderPreview))
	select {} // block forever
}

// convertBin(binBytes, metadataJSON, zOffset, options) -> {tiff, south, north, west, east}
func convertBin(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorResult("usage: convertBin(binBytes, metadataJSON, zOffset, options)")
	}

	jsBytes := args[0]
	raw := make([]byte, jsBytes.Get("length").Int())
	js.CopyBytesToGo(raw, jsBytes)

	metadataJSON := []byte(args[1].String())
	zOffset := args[2].Float()

	conv := bin2tif.NewConverter(bin2tif.DefaultCalibration(), nil)
	if len(args) >= 4 && args[3].Type() == js.TypeObject {
		patternVal := args[3].Get("pattern")
		if patternVal.Type() == js.TypeString {
			p, err := bin2tif.ParsePattern(patternVal.String())
			if err != nil {
				return errorResult(err.Error())
			}
			conv.Pattern = p
		}
	}

	frame, bbox, err := conv.ProcessBytes(context.Background(), raw, metadataJSON, zOffset)
	if err != nil {
		return errorResult("Conversion error: " + err.Error())
	}
	lastFrame, lastBBox = &frame, bbox

	tiffBytes, err := conv.Encode(frame, bbox)
	if err != nil {
		return errorResult("Encoding error: " + err.Error())
	}

	return js.ValueOf(map[string]interface{}{
		"tiff":  toUint8Array(tiffBytes),
		"south": bbox.South,
		"north": bbox.North,
		"west":  bbox.West,
		"east":  bbox.East,
	})
}

func renderPreview(this js.Value, args []js.Value) interface{} {
	if lastFrame == nil {
		return js.Null()
	}

	jpegBytes, err := bin2tif.RenderPreviewBytes(*lastFrame, lastBBox)
	if err != nil {
		return js.Null()
	}
	return toUint8Array(jpegBytes)
}

func toUint8Array(b []byte) js.Value {
	uint8Array := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(uint8Array, b)
	return uint8Array
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
