package shader

// Uniform names as authored in the effect fragment shader. The fragment is
// translated from ESSL before compilation, so GL locations must be resolved
// through the translator's variable map keyed by these names.
const (
	UniformTexture          = "uTexture"
	UniformTexSize          = "uTexSize"
	UniformResolution       = "uResolution"
	UniformMouse            = "uMouse"
	UniformTime             = "uTime"
	UniformParallaxStrength = "uParallaxStrength"
	UniformDistortionMult   = "uDistortionMult"
	UniformGlassStrength    = "uGlassStrength"
	UniformStripesFreq      = "uStripesFreq"
	UniformGlassSmooth      = "uGlassSmooth"
	UniformEdgePadding      = "uEdgePadding"
	UniformFlowSpeed        = "uFlowSpeed"
)

// TunableUniformNames lists the seven tunable uniforms in declaration order.
func TunableUniformNames() []string {
	return []string{
		UniformParallaxStrength,
		UniformDistortionMult,
		UniformGlassStrength,
		UniformStripesFreq,
		UniformGlassSmooth,
		UniformEdgePadding,
		UniformFlowSpeed,
	}
}

// ────────────────────────────────── Desktop GL ──────────────────────────────────

// The plane vertex shader is compiled as-is (no translation). The fragment
// derives its UV from gl_FragCoord, so no varyings cross the translated
// boundary.
const planeVertexShaderSource = `#version 410 core
layout (location = 0) in vec2 in_vert;
uniform mat4 uViewProj;
uniform vec2 uPlaneSize;
void main() {
    vec3 world = vec3(in_vert * uPlaneSize * 0.5, 0.0);
    gl_Position = uViewProj * vec4(world, 1.0);
}
`

const overlayVertexShaderSource = `#version 410 core
layout (location = 0) in vec2 in_pos;
layout (location = 1) in vec2 in_uv;
uniform vec2 uViewport;
out vec2 frag_uv;
void main() {
    vec2 ndc = vec2(in_pos.x / uViewport.x * 2.0 - 1.0,
                    1.0 - in_pos.y / uViewport.y * 2.0);
    frag_uv = in_uv;
    gl_Position = vec4(ndc, 0.0, 1.0);
}
`

const overlayFragmentShaderSource = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D uText;
void main() { fragColor = texture(uText, frag_uv); }
`

// ─────────────────────────── Effect fragment (ESSL) ────────────────────────────

const effectPreamble = `#version 300 es
precision highp float;
precision highp int;

uniform sampler2D uTexture;
uniform vec2  uTexSize;
uniform vec2  uResolution;
uniform vec2  uMouse;
uniform float uTime;
uniform float uParallaxStrength;
uniform float uDistortionMult;
uniform float uGlassStrength;
uniform float uStripesFreq;
uniform float uGlassSmooth;
uniform float uEdgePadding;
uniform float uFlowSpeed;

out vec4 fragColor;
`

const effectBody = `
// background-size: cover. A texture under one pixel on an axis maps
// identically, which leaves the (1,1) placeholder sampling its single texel.
vec2 coverFit(vec2 uv) {
    if (uTexSize.x < 1.0 || uTexSize.y < 1.0) {
        return uv;
    }
    float scale = max(uResolution.x / uTexSize.x, uResolution.y / uTexSize.y);
    vec2 scaled = uTexSize * scale;
    vec2 offset = (uResolution - scaled) * 0.5;
    return (uv * uResolution - offset) / scaled;
}

float edgeFade(float x) {
    if (uEdgePadding <= 0.0) {
        return 1.0;
    }
    return smoothstep(0.0, uEdgePadding, x) * (1.0 - smoothstep(1.0 - uEdgePadding, 1.0, x));
}

// Eleven sawtooth taps at smoothness-spaced offsets, averaged. Periodic in x
// with period 1/uStripesFreq, drifting at uFlowSpeed.
float fractalGlass(float x, float t) {
    float period = 1.0 / uStripesFreq;
    float sum = 0.0;
    for (int i = -5; i <= 5; i++) {
        float u = x + float(i) * uGlassSmooth + t * uFlowSpeed;
        sum += mod(u, period) * uGlassStrength;
    }
    return sum / 11.0;
}

void main() {
    vec2 uv = gl_FragCoord.xy / uResolution;
    float fade = edgeFade(uv.x);
    float glassX = fractalGlass(uv.x, uTime);
    float mixedX = mix(uv.x, glassX, fade);
    float dist = glassX - uv.x;
    float mx = uMouse.x / uResolution.x;
    float par = (mx - 0.5) * uParallaxStrength * (1.0 + abs(dist) * uDistortionMult) * fade;
    vec2 warped = vec2(clamp(mixedX + par, 0.0, 1.0), clamp(uv.y, 0.0, 1.0));
    fragColor = texture(uTexture, coverFit(warped));
}
`

// ────────────────────────────────── Public API ─────────────────────────────────

// PlaneVertexShader returns the desktop GLSL vertex shader for the effect
// plane.
func PlaneVertexShader() string {
	return planeVertexShaderSource
}

// EffectFragmentShader returns the complete ESSL 3.00 effect fragment,
// ready for translation to desktop GLSL.
func EffectFragmentShader() string {
	return effectPreamble + effectBody
}

// OverlayVertexShader returns the pixel-space overlay vertex shader.
func OverlayVertexShader() string {
	return overlayVertexShaderSource
}

// OverlayFragmentShader returns the overlay texture fragment shader.
func OverlayFragmentShader() string {
	return overlayFragmentShaderSource
}
