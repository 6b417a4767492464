package graphics

import "github.com/kaisc/lemon-toolkit/common"

// Command is one resource-lifecycle operation recorded into a frame. The
// backend consumes creates and updates in recorded order before any drawcall
// of the same frame, and frees after the last drawcall.
type Command interface {
	isCommand()
}

// CreateVertexBufferCmd uploads a new vertex buffer.
type CreateVertexBufferCmd struct {
	Handle common.Handle
	Data   []byte
	Layout VertexLayout
	Usage  BufferUsage
}

// UpdateVertexBufferCmd rewrites a dynamic vertex buffer range starting at the
// given vertex.
type UpdateVertexBufferCmd struct {
	Handle common.Handle
	Start  uint32
	Data   []byte
}

// FreeVertexBufferCmd destroys a vertex buffer.
type FreeVertexBufferCmd struct {
	Handle common.Handle
}

// CreateIndexBufferCmd uploads a new index buffer.
type CreateIndexBufferCmd struct {
	Handle common.Handle
	Data   []byte
	Format IndexElementFormat
	Usage  BufferUsage
}

// UpdateIndexBufferCmd rewrites a dynamic index buffer range starting at the
// given index.
type UpdateIndexBufferCmd struct {
	Handle common.Handle
	Start  uint32
	Data   []byte
}

// FreeIndexBufferCmd destroys an index buffer.
type FreeIndexBufferCmd struct {
	Handle common.Handle
}

// CreateTextureCmd uploads a new texture.
type CreateTextureCmd struct {
	Handle      common.Handle
	Data        []byte
	Format      TextureFormat
	PixelFormat TexturePixelFormat
	Width       uint16
	Height      uint16
	Usage       BufferUsage
}

// UpdateTextureMipmapCmd generates or drops the texture's mipmap chain.
type UpdateTextureMipmapCmd struct {
	Handle common.Handle
	Mipmap bool
}

// UpdateTextureAddressModeCmd changes the addressing mode of one coordinate.
type UpdateTextureAddressModeCmd struct {
	Handle common.Handle
	Coord  TextureCoordinate
	Mode   TextureAddressMode
}

// UpdateTextureFilterModeCmd changes the texture's filter mode.
type UpdateTextureFilterModeCmd struct {
	Handle common.Handle
	Mode   TextureFilterMode
}

// FreeTextureCmd destroys a texture.
type FreeTextureCmd struct {
	Handle common.Handle
}

// CreateProgramCmd compiles and links a shader pair.
type CreateProgramCmd struct {
	Handle         common.Handle
	VertexShader   string
	FragmentShader string
}

// CreateProgramUniformCmd declares a uniform variable on a program. The name
// hash matches HashUniformName of the shader-side name.
type CreateProgramUniformCmd struct {
	Handle common.Handle
	Name   string
	Hash   uint64
}

// CreateProgramAttributeCmd binds a vertex attribute slot to a shader input
// name on a program.
type CreateProgramAttributeCmd struct {
	Handle    common.Handle
	Attribute VertexAttribute
	Name      string
}

// FreeProgramCmd destroys a program.
type FreeProgramCmd struct {
	Handle common.Handle
}

// CreateRenderStateCmd installs a new stateless render state block.
type CreateRenderStateCmd struct {
	Handle common.Handle
	State  RenderState
}

// UpdateRenderStateCmd replaces a render state block.
type UpdateRenderStateCmd struct {
	Handle common.Handle
	State  RenderState
}

// FreeRenderStateCmd destroys a render state block.
type FreeRenderStateCmd struct {
	Handle common.Handle
}

func (CreateVertexBufferCmd) isCommand()       {}
func (UpdateVertexBufferCmd) isCommand()       {}
func (FreeVertexBufferCmd) isCommand()         {}
func (CreateIndexBufferCmd) isCommand()        {}
func (UpdateIndexBufferCmd) isCommand()        {}
func (FreeIndexBufferCmd) isCommand()          {}
func (CreateTextureCmd) isCommand()            {}
func (UpdateTextureMipmapCmd) isCommand()      {}
func (UpdateTextureAddressModeCmd) isCommand() {}
func (UpdateTextureFilterModeCmd) isCommand()  {}
func (FreeTextureCmd) isCommand()              {}
func (CreateProgramCmd) isCommand()            {}
func (CreateProgramUniformCmd) isCommand()     {}
func (CreateProgramAttributeCmd) isCommand()   {}
func (FreeProgramCmd) isCommand()              {}
func (CreateRenderStateCmd) isCommand()        {}
func (UpdateRenderStateCmd) isCommand()        {}
func (FreeRenderStateCmd) isCommand()          {}

// IsFreeCommand reports whether the command destroys a resource. Frees are
// deferred past the frame's drawcalls so a resource freed mid-frame is still
// present for draws recorded earlier in the same frame.
//
// Parameters:
//   - c: the command to classify
//
// Returns:
//   - bool: true for Free* commands
func IsFreeCommand(c Command) bool {
	switch c.(type) {
	case FreeVertexBufferCmd, FreeIndexBufferCmd, FreeTextureCmd, FreeProgramCmd, FreeRenderStateCmd:
		return true
	default:
		return false
	}
}
