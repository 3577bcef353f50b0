package host

import (
	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/shader"
)

const noiseHeader = `#version 120
varying vec2 uv;
uniform float seed;
float hash(vec2 p) { return fract(sin(dot(p + seed, vec2(12.9898, 78.233))) * 43758.5453); }
`

const whiteNoise = noiseHeader + `
void main() { gl_FragColor = vec4(vec3(hash(uv)), 1.0); }
`

const valueNoise = noiseHeader + `
float noise(vec2 p) {
	vec2 i = floor(p), f = fract(p);
	vec2 u = f * f * (3.0 - 2.0 * f);
	return mix(mix(hash(i), hash(i + vec2(1, 0)), u.x), mix(hash(i + vec2(0, 1)), hash(i + vec2(1, 1)), u.x), u.y);
}
void main() { gl_FragColor = vec4(vec3(noise(uv * 64.0)), 1.0); }
`

const blueNoise = noiseHeader + `
void main() {
	float c = hash(uv);
	float n = 0.25 * (hash(uv + vec2(0.001, 0)) + hash(uv - vec2(0.001, 0)) + hash(uv + vec2(0, 0.001)) + hash(uv - vec2(0, 0.001)));
	gl_FragColor = vec4(vec3(clamp(c - n + 0.5, 0.0, 1.0)), 1.0);
}
`

type noiseShader struct {
	req     fx.TexReq
	frag    string
	program string
	source  string
}

var noiseShaders = []noiseShader{
	{fx.TexWhiteNoise, "vfx-white-noise-frag", "vfx-white-noise", whiteNoise},
	{fx.TexPerlinNoise, "vfx-perlin-noise-frag", "vfx-perlin-noise", valueNoise},
	{fx.TexBlueNoise, "vfx-blue-noise-frag", "vfx-blue-noise", blueNoise},
}

func preloadBuiltins(c *shader.Cache) error {
	if err := c.PreloadBuiltins(); err != nil {
		return err
	}
	for _, n := range noiseShaders {
		if err := c.Preload(shader.StageFragment, n.frag, n.source); err != nil {
			return err
		}
	}
	return nil
}

// noiseFor picks the first noise texture a plugin asked for.
func noiseFor(req fx.TexReq) (noiseShader, bool) {
	for _, n := range noiseShaders {
		if req&n.req != 0 {
			return n, true
		}
	}
	return noiseShader{}, false
}
