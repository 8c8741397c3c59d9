//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/heliumproject/editor-go/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	editorEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	editorEngine.Set("loadDocument", js.FuncOf(loadDocument))
	editorEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	editorEngine.Set("submit", js.FuncOf(submit))
	editorEngine.Set("undo", js.FuncOf(undo))
	editorEngine.Set("redo", js.FuncOf(redo))
	editorEngine.Set("setCamera", js.FuncOf(setCamera))
	editorEngine.Set("setSelection", js.FuncOf(setSelection))

	// --- Queries (frontend ← backend) ---
	editorEngine.Set("render", js.FuncOf(render))
	editorEngine.Set("hitTest", js.FuncOf(hitTest))
	editorEngine.Set("getScene", js.FuncOf(getScene))
	editorEngine.Set("getSelection", js.FuncOf(getSelection))

	// Register on global scope
	js.Global().Set("editorEngine", editorEngine)

	// Signal that WASM is ready
	js.Global().Set("editorWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(value string, err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(value)
}

func status(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func vec3(args []js.Value, at int) mgl64.Vec3 {
	return mgl64.Vec3{args[at].Float(), args[at+1].Float(), args[at+2].Float()}
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	return status(eng.LoadDocument(args[0].String()))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	return status(eng.LoadSampleDocument())
}

func submit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing operation JSON"})
	}
	return result(eng.Submit(args[0].String()))
}

func undo(this js.Value, args []js.Value) interface{} {
	return status(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return status(eng.Redo())
}

// setCamera(ex, ey, ez, cx, cy, cz)
func setCamera(this js.Value, args []js.Value) interface{} {
	if len(args) < 6 {
		return nil
	}
	eng.SetCamera(vec3(args, 0), vec3(args, 3))
	return nil
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return status(eng.SetSelection(nil))
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	return status(eng.SetSelection(ids))
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return result(eng.Render())
}

// hitTest(ox, oy, oz, dx, dy, dz)
func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 6 {
		return js.ValueOf("")
	}
	return result(eng.HitTest(vec3(args, 0), vec3(args, 3)))
}

func getScene(this js.Value, args []js.Value) interface{} {
	return result(eng.GetScene())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}
