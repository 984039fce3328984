// Package translator wraps the ANGLE shader translator that turns the ESSL
// effect fragment into desktop GLSL.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// Get returns the process-wide shader translator. The underlying WASM
// runtime is started on first use.
func Get() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	if initErr != nil {
		return nil, fmt.Errorf("initializing shader translator: %w", initErr)
	}
	return translator, nil
}

// FragmentToGL410 translates an ESSL 3.00 fragment shader to GLSL 4.10.
// It returns the translated source and the mapping from authored uniform
// names to the mangled names in the translated source; GL uniform lookups
// must go through that mapping.
func FragmentToGL410(src string) (string, map[string]string, error) {
	tr, err := Get()
	if err != nil {
		return "", nil, err
	}

	out, err := tr.TranslateShader(src, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return "", nil, fmt.Errorf("translating fragment shader: %w", err)
	}

	names := make(map[string]string, len(out.Variables))
	for name, v := range out.Variables {
		names[name] = v.MappedName
	}
	return out.Code, names, nil
}
