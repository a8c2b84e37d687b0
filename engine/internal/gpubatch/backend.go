package gpubatch

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/hebedebe/TouchingJack2/engine/batch"
)

// ErrClosed is returned when submitting to a closed backend.
var ErrClosed = errors.New("gpubatch: backend closed")

// ErrNoDevice is returned when InitPipeline is called without a usable
// device or queue.
var ErrNoDevice = errors.New("gpubatch: no device")

// floatsPerInstance is the packed instance stride: pos.xy, scale.xy,
// rotation, color bits. Must match the Instance struct in the shader.
const floatsPerInstance = 6

// instanceStride is the packed instance size in bytes.
const instanceStride = floatsPerInstance * 4

// verticesPerSprite is two triangles per expanded quad.
const verticesPerSprite = 6

// spriteUniformSize is the uniform block size: the viewport vec2 padded to
// 16 bytes, matching the Uniforms struct in the shader.
const spriteUniformSize = 16

// ArtifactFormat is the texture format sprite artifacts upload as.
const ArtifactFormat = gputypes.TextureFormatRGBA8Unorm

// Stats counts work the backend has done.
type Stats struct {
	// Submissions is the number of draw calls issued (or counted, on
	// the null device).
	Submissions uint64

	// Sprites is the total instance count across submissions.
	Sprites uint64

	// InstanceBytes is the total packed instance data.
	InstanceBytes uint64
}

// groupResources is one flushed group's GPU state: its uploaded instance
// buffer and the bind group tying it to the shared uniforms.
type groupResources struct {
	instanceBuf hal.Buffer
	bindGroup   hal.BindGroup
	instances   uint32
}

// Backend turns flushed batches into GPU submissions through the host's
// device boundary. The host owns the device; the backend receives it
// through InitPipeline and never creates one. A provider with a nil device
// (render/NullDeviceHandle style) leaves the backend on the counting
// fallback.
//
// Backend is driven from the frame thread.
type Backend struct {
	provider gpucontext.DeviceProvider
	shader   *shaderResources
	queue    hal.Queue

	viewport  [2]float32
	instances []float32
	packed    []byte
	frame     []groupResources

	stats  Stats
	closed bool
}

// New creates a Backend on the given provider. Pass nil for a pure
// counting backend.
func New(provider gpucontext.DeviceProvider) *Backend {
	return &Backend{
		provider: provider,
		viewport: [2]float32{1, 1},
	}
}

// InitPipeline compiles the sprite shader and builds the render pipeline
// against the host's HAL device. Hosts that expose a HAL device and queue
// call this once at startup; without it the backend stays on the counting
// path.
func (b *Backend) InitPipeline(device hal.Device, queue hal.Queue) error {
	if b.closed {
		return ErrClosed
	}
	if device == nil || queue == nil {
		return ErrNoDevice
	}
	if b.shader != nil {
		return nil
	}
	shader, err := newShaderResources(device)
	if err != nil {
		return err
	}
	b.shader = shader
	b.queue = queue
	b.writeViewport()
	return nil
}

// SetViewport sets the pixel dimensions sprite positions map to. Takes
// effect immediately on a live pipeline; otherwise remembered for
// InitPipeline.
func (b *Backend) SetViewport(width, height float32) {
	if width <= 0 || height <= 0 {
		return
	}
	b.viewport = [2]float32{width, height}
	if b.shader != nil {
		b.writeViewport()
	}
}

func (b *Backend) writeViewport() {
	var buf [spriteUniformSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(b.viewport[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(b.viewport[1]))
	b.queue.WriteBuffer(b.shader.uniformBuf, 0, buf[:])
}

// Submit implements batch.Backend. Each batch becomes one submission: its
// commands are packed into instance data; on a live pipeline the data is
// uploaded through the host queue and the group gets a bind group for
// RecordDraws, after the previous frame's resources are released. Without
// a live device the packing still runs and the counters still advance, so
// draw-call stats stay meaningful headless.
func (b *Backend) Submit(batches []batch.Batch) error {
	if b.closed {
		return ErrClosed
	}

	live := b.shader != nil && b.queue != nil
	if live {
		b.releaseFrame()
	}

	for _, group := range batches {
		b.instances = packInstances(b.instances[:0], group.Commands)
		b.stats.Submissions++
		b.stats.Sprites += uint64(len(group.Commands))
		b.stats.InstanceBytes += uint64(len(b.instances) * 4)

		if live && len(group.Commands) > 0 {
			if err := b.uploadGroup(len(group.Commands)); err != nil {
				return err
			}
		}
	}
	return nil
}

// uploadGroup creates the current group's instance buffer and bind group
// and uploads the packed data through the host queue.
func (b *Backend) uploadGroup(count int) error {
	b.packed = floatBytes(b.packed[:0], b.instances)
	device := b.shader.device

	instanceBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_batch_instances",
		Size:  uint64(len(b.packed)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpubatch: create instance buffer: %w", err)
	}
	b.queue.WriteBuffer(instanceBuf, 0, b.packed)

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sprite_batch_bind",
		Layout: b.shader.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: b.shader.uniformBuf.NativeHandle(), Offset: 0, Size: spriteUniformSize,
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: instanceBuf.NativeHandle(), Offset: 0, Size: uint64(len(b.packed)),
			}},
		},
	})
	if err != nil {
		device.DestroyBuffer(instanceBuf)
		return fmt.Errorf("gpubatch: create bind group: %w", err)
	}

	b.frame = append(b.frame, groupResources{
		instanceBuf: instanceBuf,
		bindGroup:   bindGroup,
		instances:   uint32(count),
	})
	return nil
}

// RecordDraws records one instanced draw per uploaded group into the
// host's render pass. The host owns the pass; the backend only records
// into it. A no-op without a live pipeline or uploaded groups.
func (b *Backend) RecordDraws(rp hal.RenderPassEncoder) {
	if rp == nil || b.shader == nil || len(b.frame) == 0 {
		return
	}
	rp.SetPipeline(b.shader.pipeline)
	for _, g := range b.frame {
		rp.SetBindGroup(0, g.bindGroup, nil)
		rp.Draw(verticesPerSprite, g.instances, 0, 0)
	}
}

// FrameGroups returns the number of groups uploaded for the current frame.
func (b *Backend) FrameGroups() int {
	return len(b.frame)
}

// releaseFrame destroys the previous frame's per-group resources.
func (b *Backend) releaseFrame() {
	device := b.shader.device
	for _, g := range b.frame {
		if g.bindGroup != nil {
			device.DestroyBindGroup(g.bindGroup)
		}
		if g.instanceBuf != nil {
			device.DestroyBuffer(g.instanceBuf)
		}
	}
	b.frame = b.frame[:0]
}

// Stats returns the backend's counters.
func (b *Backend) Stats() Stats {
	return b.stats
}

// Close releases the frame resources and the shader pipeline. Subsequent
// submits fail.
func (b *Backend) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.shader != nil {
		b.releaseFrame()
		b.shader.destroy()
		b.shader = nil
	}
	b.queue = nil
}

// packInstances appends one packed instance per command to dst:
// position.xy, scale.xy, rotation, color bits. The layout must match
// instanceStride and the shader's Instance struct.
func packInstances(dst []float32, cmds []batch.Command) []float32 {
	for _, c := range cmds {
		sx := c.Scale.X
		sy := c.Scale.Y
		if sx == 0 {
			sx = 1
		}
		if sy == 0 {
			sy = 1
		}
		dst = append(dst,
			float32(c.Position.X), float32(c.Position.Y),
			float32(sx), float32(sy),
			float32(c.Rotation),
			colorBits(c.Color),
		)
	}
	return dst
}

// colorBits reinterprets the packed RGBA tint as a float for the instance
// buffer. The shader reads it back as u32.
func colorBits(c uint32) float32 {
	return math.Float32frombits(c)
}

// floatBytes appends src to dst as little-endian 32-bit words, the layout
// the instance buffer uses.
func floatBytes(dst []byte, src []float32) []byte {
	for _, f := range src {
		var w [4]byte
		binary.LittleEndian.PutUint32(w[:], math.Float32bits(f))
		dst = append(dst, w[:]...)
	}
	return dst
}
