// Package gpubatch is the GPU submission glue for the batch queue: it
// compiles the instanced sprite shader, packs per-sprite instance data, and
// turns flushed batches into device buffer uploads and recorded draws. With
// no device attached it degrades to counting, which keeps headless runs and
// tests on the same code path.
package gpubatch

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// spriteShaderWGSL is the instanced sprite-quad shader. Each instance
// carries position, scale, rotation, and an RGBA tint; the vertex stage
// expands two triangles per instance from the storage buffer and the
// fragment stage writes the tint. Texturing happens in the host's own
// passes; this pipeline covers the batched tinted-quad path.
const spriteShaderWGSL = `
struct Instance {
    pos: vec2<f32>,
    scale: vec2<f32>,
    rot: f32,
    color: u32,
}

struct Uniforms {
    viewport: vec2<f32>,
    pad: vec2<f32>,
}

@group(0) @binding(0) var<uniform> uniforms: Uniforms;
@group(0) @binding(1) var<storage, read> instances: array<Instance>;

struct VertexOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) tint: vec4<f32>,
}

fn unpack_color(c: u32) -> vec4<f32> {
    return vec4<f32>(
        f32((c >> 24u) & 0xffu) / 255.0,
        f32((c >> 16u) & 0xffu) / 255.0,
        f32((c >> 8u) & 0xffu) / 255.0,
        f32(c & 0xffu) / 255.0,
    );
}

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, @builtin(instance_index) ii: u32) -> VertexOut {
    // Unit quad as two triangles.
    var corners = array<vec2<f32>, 6>(
        vec2<f32>(0.0, 0.0), vec2<f32>(1.0, 0.0), vec2<f32>(0.0, 1.0),
        vec2<f32>(1.0, 0.0), vec2<f32>(1.0, 1.0), vec2<f32>(0.0, 1.0),
    );
    let corner = corners[vi];
    let inst = instances[ii];

    let centered = (corner - vec2<f32>(0.5, 0.5)) * inst.scale;
    let c = cos(inst.rot);
    let s = sin(inst.rot);
    let rotated = vec2<f32>(
        centered.x * c - centered.y * s,
        centered.x * s + centered.y * c,
    );
    let world = rotated + inst.pos;
    let ndc = world / uniforms.viewport * 2.0 - vec2<f32>(1.0, 1.0);

    var out: VertexOut;
    out.pos = vec4<f32>(ndc.x, -ndc.y, 0.0, 1.0);
    var tint = unpack_color(inst.color);
    if (inst.color == 0u) {
        tint = vec4<f32>(1.0, 1.0, 1.0, 1.0);
    }
    out.tint = tint;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    return in.tint;
}
`

// compileSpriteShader compiles the sprite shader WGSL to SPIR-V words.
// SPIR-V is little-endian 32-bit words.
func compileSpriteShader() ([]uint32, error) {
	spirvBytes, err := naga.Compile(spriteShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("gpubatch: compile sprite shader: %w", err)
	}

	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// shaderResources bundles the HAL objects behind the sprite pipeline so
// teardown happens in one place, in reverse creation order.
type shaderResources struct {
	device     hal.Device
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	uniformBuf hal.Buffer
}

func newShaderResources(device hal.Device) (*shaderResources, error) {
	words, err := compileSpriteShader()
	if err != nil {
		return nil, err
	}
	r := &shaderResources{device: device}

	r.module, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sprite_batch",
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("gpubatch: create shader module: %w", err)
	}

	r.bindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_batch_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("gpubatch: create bind group layout: %w", err)
	}

	r.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sprite_batch_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("gpubatch: create pipeline layout: %w", err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	r.pipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sprite_batch_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.module,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     r.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("gpubatch: create render pipeline: %w", err)
	}

	r.uniformBuf, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_batch_uniforms",
		Size:  spriteUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		r.destroy()
		return nil, fmt.Errorf("gpubatch: create uniform buffer: %w", err)
	}

	return r, nil
}

// destroy releases the HAL resources in reverse creation order. Safe to
// call on a partially built bundle and more than once.
func (r *shaderResources) destroy() {
	if r.device == nil {
		return
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bindLayout != nil {
		r.device.DestroyBindGroupLayout(r.bindLayout)
		r.bindLayout = nil
	}
	if r.module != nil {
		r.device.DestroyShaderModule(r.module)
		r.module = nil
	}
	r.device = nil
}
